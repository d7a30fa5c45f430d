package app

import (
	"context"
	"sync"

	"github.com/m3rciful/expensebot/internal/expense"

	tele "gopkg.in/telebot.v4"
)

type sent struct {
	to     string
	text   string
	markup *tele.ReplyMarkup
}

// fakeAPI records Send calls; every other tele.API method is unused.
type fakeAPI struct {
	tele.API
	mu   sync.Mutex
	sent []sent
	err  error
}

func (f *fakeAPI) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s := sent{to: to.Recipient()}
	s.text, _ = what.(string)
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok && so != nil {
			s.markup = so.ReplyMarkup
		}
	}
	f.sent = append(f.sent, s)
	return &tele.Message{}, nil
}

func (f *fakeAPI) last() sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sent{}
	}
	return f.sent[len(f.sent)-1]
}

// fakeContext is the subset of tele.Context the handlers touch.
type fakeContext struct {
	tele.Context
	chat  *tele.Chat
	user  *tele.User
	text  string
	store map[string]interface{}
}

func newFakeContext(chatID int64, text string) *fakeContext {
	return &fakeContext{
		chat:  &tele.Chat{ID: chatID},
		user:  &tele.User{ID: chatID},
		text:  text,
		store: map[string]interface{}{},
	}
}

func (c *fakeContext) Chat() *tele.Chat { return c.chat }
func (c *fakeContext) Sender() *tele.User { return c.user }
func (c *fakeContext) Text() string { return c.text }
func (c *fakeContext) Update() tele.Update { return tele.Update{ID: 1} }
func (c *fakeContext) Get(key string) interface{} { return c.store[key] }
func (c *fakeContext) Set(key string, val interface{}) { c.store[key] = val }

type memStorage struct {
	mu      sync.Mutex
	records []expense.Record
	err     error
	closed  bool
}

func (m *memStorage) Insert(_ context.Context, r expense.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, r)
	return nil
}

func (m *memStorage) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
