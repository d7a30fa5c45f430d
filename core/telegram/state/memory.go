package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/expensebot/core/logger"
)

type memoryStore[D any] struct {
	mu       sync.RWMutex
	sessions map[int64]Session[D]
	now      func() time.Time
}

// MemoryOption configures a memory store.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	now func() time.Time
}

// WithNow sets the clock used to stamp Session.UpdatedAt.
func WithNow(now func() time.Time) MemoryOption {
	return func(o *memoryOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// NewMemoryStore constructs an in-memory Store. Sessions are held by value so
// callers never share a stored session.
func NewMemoryStore[D any](opts ...MemoryOption) Store[D] {
	o := memoryOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &memoryStore[D]{
		sessions: make(map[int64]Session[D]),
		now:      o.now,
	}
}

func (m *memoryStore[D]) Create(ctx context.Context, key int64, st State, draft D) (Session[D], error) {
	sess := Session[D]{State: st, Draft: draft, UpdatedAt: m.now()}

	m.mu.Lock()
	_, replaced := m.sessions[key]
	m.sessions[key] = sess
	m.mu.Unlock()

	logger.Debug(ctx, "session", "session.create",
		slog.String("status", "ok"),
		slog.Int64("chat_id", key),
		slog.String("state", string(st)),
		slog.Bool("replaced", replaced),
	)
	return sess, nil
}

func (m *memoryStore[D]) Get(_ context.Context, key int64) (Session[D], bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[key]
	return sess, ok, nil
}

func (m *memoryStore[D]) Update(_ context.Context, key int64, sess Session[D]) error {
	sess.UpdatedAt = m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[key] = sess
	return nil
}

func (m *memoryStore[D]) Delete(_ context.Context, key int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}
