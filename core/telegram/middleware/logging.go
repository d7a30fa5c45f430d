package middleware

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/expensebot/core/logger"
	tghelpers "github.com/m3rciful/expensebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// updateWindow remembers recently seen update ids so an update routed
// through several branches is reported once.
type updateWindow struct {
	mu        sync.Mutex
	ttl       time.Duration
	seen      map[int]time.Time
	lastPrune time.Time
}

func newUpdateWindow(ttl time.Duration) *updateWindow {
	return &updateWindow{ttl: ttl, seen: make(map[int]time.Time)}
}

// first reports whether id was not seen within the window.
func (w *updateWindow) first(id int, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if now.Sub(w.lastPrune) > w.ttl {
		for k, ts := range w.seen {
			if now.Sub(ts) > w.ttl {
				delete(w.seen, k)
			}
		}
		w.lastPrune = now
	}
	if ts, ok := w.seen[id]; ok && now.Sub(ts) <= w.ttl {
		return false
	}
	w.seen[id] = now
	return true
}

var received = newUpdateWindow(10 * time.Second)

// LoggerMiddleware attaches the update's rid and logging context, and logs a
// sampled receipt line. Message text is never logged, only its length.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		var chatID, userID int64
		if chat := c.Chat(); chat != nil {
			chatID = chat.ID
		}
		if user := c.Sender(); user != nil {
			userID = user.ID
		}
		c.Set("rid", logger.BuildRID(upd.ID, chatID, userID))
		ctx := tghelpers.BuildContext(c)

		if logger.ShouldSampleDebug() && received.first(upd.ID, time.Now()) {
			logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received", receiptAttrs(c)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil && user.Username != "" {
		attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
	}
	if c.Message() != nil {
		text := c.Text()
		attrs = append(attrs,
			slog.Int("text_len", len([]rune(text))),
			slog.Bool("command", strings.HasPrefix(text, "/")),
		)
	}
	return attrs
}
