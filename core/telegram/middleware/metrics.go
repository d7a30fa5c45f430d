package middleware

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

const counterKey = "send_counter"

// sendCounter tallies what one update sent back to the chat.
type sendCounter struct {
	mu       sync.Mutex
	messages int
	keyboard bool
}

func (s *sendCounter) add(withKeyboard bool) {
	s.mu.Lock()
	s.messages++
	s.keyboard = s.keyboard || withKeyboard
	s.mu.Unlock()
}

func counterOf(c tele.Context) *sendCounter {
	if sc, ok := c.Get(counterKey).(*sendCounter); ok {
		return sc
	}
	return nil
}

// countingContext counts successful Send and Reply calls made by handlers.
type countingContext struct {
	tele.Context
	counter *sendCounter
}

func (m countingContext) Send(what interface{}, opts ...interface{}) error {
	err := m.Context.Send(what, opts...)
	if err == nil {
		m.counter.add(carriesMarkup(opts))
	}
	return err
}

func (m countingContext) Reply(what interface{}, opts ...interface{}) error {
	err := m.Context.Reply(what, opts...)
	if err == nil {
		m.counter.add(carriesMarkup(opts))
	}
	return err
}

func carriesMarkup(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// MessageMetricsMiddleware counts the messages each update produces; the
// handler summary reports them.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		sc := &sendCounter{}
		c.Set(counterKey, sc)
		return next(countingContext{Context: c, counter: sc})
	}
}

// CountSent records a message delivered without going through c, such as
// one queued on the async sender.
func CountSent(c tele.Context, withKeyboard bool) {
	if c == nil {
		return
	}
	sc := counterOf(c)
	if sc == nil {
		sc = &sendCounter{}
		c.Set(counterKey, sc)
	}
	sc.add(withKeyboard)
}

// GetCounters returns how many messages the update sent and whether any of
// them carried a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	sc := counterOf(c)
	if sc == nil {
		return 0, false
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.messages, sc.keyboard
}
