package flow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/expensebot/core/logger"
	"github.com/m3rciful/expensebot/core/telegram/state"
	"github.com/m3rciful/expensebot/internal/expense"
)

type sentMessage struct {
	ChatID int64
	Msg    Message
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeSender) Send(_ context.Context, chatID int64, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Msg: msg})
	return nil
}

func (f *fakeSender) texts(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, s := range f.sent {
		if s.ChatID == chatID {
			out = append(out, s.Msg.Text)
		}
	}
	return out
}

func (f *fakeSender) last(t *testing.T, chatID int64) Message {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].ChatID == chatID {
			return f.sent[i].Msg
		}
	}
	t.Fatalf("no message sent to chat %d", chatID)
	return Message{}
}

type fakeStorage struct {
	mu      sync.Mutex
	records []expense.Record
	err     error
	// started, when set, is signalled on entry and release is awaited.
	started chan struct{}
	release chan struct{}
}

func (f *fakeStorage) Insert(ctx context.Context, r expense.Record) error {
	if f.started != nil {
		f.started <- struct{}{}
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, r)
	return nil
}

func (f *fakeStorage) stored() []expense.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]expense.Record(nil), f.records...)
}

// failingStore wraps a Store and fails selected operations.
type failingStore struct {
	state.Store[expense.Draft]
	failGet    bool
	failUpdate bool
	failDelete bool
}

var errStoreDown = errors.New("store down")

func (f *failingStore) Get(ctx context.Context, key int64) (state.Session[expense.Draft], bool, error) {
	if f.failGet {
		return state.Session[expense.Draft]{}, false, errStoreDown
	}
	return f.Store.Get(ctx, key)
}

func (f *failingStore) Update(ctx context.Context, key int64, sess state.Session[expense.Draft]) error {
	if f.failUpdate {
		return errStoreDown
	}
	return f.Store.Update(ctx, key, sess)
}

func (f *failingStore) Delete(ctx context.Context, key int64) error {
	if f.failDelete {
		return errStoreDown
	}
	return f.Store.Delete(ctx, key)
}

// captureLogs routes the base logger into a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prev := logger.L
	logger.L = slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	t.Cleanup(func() { logger.L = prev })
	return buf
}

// logEvents decodes JSON log lines and keeps those with the given event.
func logEvents(t *testing.T, buf *bytes.Buffer, event string) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var entry map[string]any
		require.NoError(t, dec.Decode(&entry))
		if entry["event"] == event {
			out = append(out, entry)
		}
	}
	return out
}

var fixedNow = time.Date(2024, time.June, 3, 10, 0, 0, 0, time.UTC)

type harness struct {
	d        *Dispatcher
	out      *fakeSender
	storage  *fakeStorage
	sessions state.Store[expense.Draft]
	now      time.Time
}

func newHarness(t *testing.T, mutate ...func(*Options)) *harness {
	t.Helper()
	h := &harness{
		out:     &fakeSender{},
		storage: &fakeStorage{},
		now:     fixedNow,
	}
	clock := func() time.Time { return h.now }
	h.sessions = state.NewMemoryStore[expense.Draft](state.WithNow(clock))
	opts := Options{
		Engine:   expense.NewEngine(expense.EngineOptions{Location: time.UTC}),
		Sessions: h.sessions,
		Storage:  h.storage,
		Sender:   h.out,
		Now:      clock,
	}
	for _, m := range mutate {
		m(&opts)
	}
	h.sessions = opts.Sessions
	d, err := New(opts)
	require.NoError(t, err)
	h.d = d
	return h
}

func (h *harness) session(t *testing.T, chatID int64) (state.Session[expense.Draft], bool) {
	t.Helper()
	sess, ok, err := h.sessions.Get(context.Background(), chatID)
	require.NoError(t, err)
	return sess, ok
}
