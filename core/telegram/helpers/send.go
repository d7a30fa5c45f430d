package helpers

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/expensebot/core/logger"
	"github.com/m3rciful/expensebot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

// sendAsync queues run on the shard of chatID, or runs it inline when no
// dispatcher is wired or the queue cannot take it.
func sendAsync(ctx context.Context, chatID int64, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	if err := disp.Enqueue(ctx, chatID, action, endpoint, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("action", action),
				slog.String("endpoint", endpoint),
				slog.Int64("chat_id", chatID),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// SendToChat sends raw text to chatID outside of an update handler.
func SendToChat(ctx context.Context, api tele.API, chatID int64, text string, opts *tele.SendOptions) error {
	if api == nil {
		return errors.New("telegram: bot not started")
	}
	return sendAsync(ctx, chatID, "send.text", "sendMessage", func() error {
		var err error
		if opts != nil {
			_, err = api.Send(tele.ChatID(chatID), text, opts)
		} else {
			_, err = api.Send(tele.ChatID(chatID), text)
		}
		return err
	})
}
