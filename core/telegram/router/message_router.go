package router

import (
	"strings"

	tg "github.com/m3rciful/expensebot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// TextOptions controls fallback behaviour for text updates.
type TextOptions struct {
	// UnknownCommand handles slash text that matches no registered command.
	// Nil ignores it.
	UnknownCommand tele.HandlerFunc
}

// TextRoutes builds the handler for plain text. Text that resolves to a
// registered command (for example an alias typed without telebot matching
// it) runs that command; everything else goes to the registry's text
// fallback.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	if reg == nil {
		reg = tg.NewRegistry()
	}
	handler := func(c tele.Context) error {
		text := c.Text()

		if strings.HasPrefix(text, "/") {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				return newSummary(key).run(c, func() error { return cmd.Handler(c) })
			}
			if opts.UnknownCommand != nil {
				return newSummary("unknown_command").run(c, func() error { return opts.UnknownCommand(c) })
			}
			newSummary("unknown_command").skip(c)
			return nil
		}

		if fb := reg.TextFallback(); fb != nil {
			return newSummary("text").run(c, func() error { return fb(c) })
		}
		newSummary("unknown_text").skip(c)
		return nil
	}

	return []tg.Route{{Endpoint: tele.OnText, Handler: handler}}
}
