package app

import (
	"context"

	"github.com/m3rciful/expensebot/core/telegram/commands"
	"github.com/m3rciful/expensebot/core/telegram/helpers"
	"github.com/m3rciful/expensebot/internal/flow"

	tele "gopkg.in/telebot.v4"
)

// RateLimitedText answers updates dropped by the rate limiter.
const RateLimitedText = "Too many messages, please slow down."

func (a *App) registerCommands() {
	a.registry.RegisterCommand("/start", commands.Command{
		Handler:     a.onStart,
		Description: "Show the welcome message",
	})
	a.registry.RegisterCommand("/add", commands.Command{
		Handler:     a.onAdd,
		Description: "Record a new expense",
	})
	a.registry.RegisterCommand("/cancel", commands.Command{
		Handler:     a.onCancel,
		Description: "Cancel the expense being entered",
	})
	a.registry.SetTextFallback(a.onText)
}

func (a *App) onStart(c tele.Context) error {
	ctx, chatID, ok := updateScope(c)
	if !ok {
		return nil
	}
	return a.flow.Welcome(ctx, chatID)
}

func (a *App) onAdd(c tele.Context) error {
	ctx, chatID, ok := updateScope(c)
	if !ok {
		return nil
	}
	return a.flow.Begin(ctx, chatID)
}

func (a *App) onCancel(c tele.Context) error {
	ctx, chatID, ok := updateScope(c)
	if !ok {
		return nil
	}
	return a.flow.Cancel(ctx, chatID)
}

func (a *App) onText(c tele.Context) error {
	ctx, chatID, ok := updateScope(c)
	if !ok {
		return nil
	}
	return a.flow.HandleText(ctx, chatID, c.Text())
}

func (a *App) onLimited(c tele.Context) error {
	ctx, chatID, ok := updateScope(c)
	if !ok {
		return nil
	}
	return a.out.Send(ctx, chatID, flow.Message{Text: RateLimitedText})
}

// updateScope returns the logging context of c, carrying c itself, and the
// chat the update belongs to. Updates without a chat are ignored.
func updateScope(c tele.Context) (context.Context, int64, bool) {
	chat := c.Chat()
	if chat == nil {
		return nil, 0, false
	}
	return helpers.WithTeleContext(helpers.BuildContext(c), c), chat.ID, true
}
