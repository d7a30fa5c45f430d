package app

import (
	"context"
	"errors"
	"sync"

	"github.com/m3rciful/expensebot/core/telegram/helpers"
	"github.com/m3rciful/expensebot/core/telegram/keyboard"
	"github.com/m3rciful/expensebot/core/telegram/middleware"
	"github.com/m3rciful/expensebot/internal/flow"

	tele "gopkg.in/telebot.v4"
)

var errNotBound = errors.New("app: telegram bot not bound")

// chatSender delivers flow messages through the async Telegram sender.
type chatSender struct {
	mu  sync.RWMutex
	api tele.API
}

func (s *chatSender) bind(api tele.API) {
	s.mu.Lock()
	s.api = api
	s.mu.Unlock()
}

func (s *chatSender) bot() tele.API {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.api
}

func (s *chatSender) Send(ctx context.Context, chatID int64, msg flow.Message) error {
	api := s.bot()
	if api == nil {
		return errNotBound
	}
	opts := sendOptions(msg)
	if err := helpers.SendToChat(ctx, api, chatID, msg.Text, opts); err != nil {
		return err
	}
	if c, ok := helpers.TeleContextFrom(ctx); ok {
		middleware.CountSent(c, len(msg.Choices) > 0)
	}
	return nil
}

// sendOptions maps choices to a reply keyboard; a message without choices
// may still remove the keyboard left by an earlier prompt.
func sendOptions(msg flow.Message) *tele.SendOptions {
	if markup := keyboard.ReplyButtons(msg.Choices...); markup != nil {
		return &tele.SendOptions{ReplyMarkup: markup}
	}
	if msg.ClearKeyboard {
		return &tele.SendOptions{ReplyMarkup: keyboard.RemoveKeyboard()}
	}
	return nil
}
