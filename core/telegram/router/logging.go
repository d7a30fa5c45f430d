package router

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/expensebot/core/logger"
	tghelpers "github.com/m3rciful/expensebot/core/telegram/helpers"
	"github.com/m3rciful/expensebot/core/telegram/middleware"
	"github.com/m3rciful/expensebot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

// summary is the single handler.handled line logged per routed update.
type summary struct {
	handler string
	start   time.Time
	// status and outcome override the values derived from the error.
	status  string
	outcome string
}

func newSummary(handler string) summary {
	return summary{handler: normalizeHandlerName(handler), start: time.Now()}
}

// run executes fn with the handler name in the update context and logs the
// summary.
func (s summary) run(c tele.Context, fn func() error) error {
	tghelpers.WithHandler(c, s.handler)
	err := fn()
	s.log(c, err)
	return err
}

// skip logs an update nobody handled.
func (s summary) skip(c tele.Context) {
	s.status, s.outcome = "skip", "ok"
	s.log(c, nil)
}

func (s summary) log(c tele.Context, err error) {
	ctx := tghelpers.WithHandler(c, s.handler)
	msgs, kb := middleware.GetCounters(c)

	derived := "ok"
	if err != nil {
		derived = "fail"
	}
	status, outcome := s.status, s.outcome
	if status == "" {
		status = derived
	}
	if outcome == "" {
		outcome = derived
	}

	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("handler", s.handler),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", logger.Took(s.start)),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(netutil.Redact(err), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	logger.LogEvent(ctx, logger.Component("tg"), slog.LevelInfo, "handler.handled", attrs...)
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}

// errorCode prefers a code the error reports itself, then the Bot API
// status, then the transport failure kind.
func errorCode(err error) string {
	type coder interface{ Code() string }
	var c coder
	if errors.As(err, &c) {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	if status := netutil.StatusCode(err); status != 0 {
		return "HTTP_" + strconv.Itoa(status)
	}
	if kind := netutil.Classify(err); kind != "unknown" {
		return strings.ToUpper(kind)
	}
	return "INTERNAL"
}
