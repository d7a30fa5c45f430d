package state

import (
	"context"
	"time"
)

// State identifies a finite-state-machine step used in conversations. A chat
// without a stored session has no state.
type State string

// Session stores the conversation step and the draft built so far.
type Session[D any] struct {
	State     State     `json:"state"`
	Draft     D         `json:"draft"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store keeps at most one session per key. Operations are individually
// atomic; callers serialize read-modify-write sequences with KeyedMutex.
type Store[D any] interface {
	// Create replaces any session stored under key.
	Create(ctx context.Context, key int64, st State, draft D) (Session[D], error)
	// Get reports ok=false when no session exists.
	Get(ctx context.Context, key int64) (sess Session[D], ok bool, err error)
	Update(ctx context.Context, key int64, sess Session[D]) error
	Delete(ctx context.Context, key int64) error
}
