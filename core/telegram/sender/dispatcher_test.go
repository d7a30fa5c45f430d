package sender

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherKeepsOrderPerKey(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4, QueueSize: 128})

	var mu sync.Mutex
	got := map[int64][]int{}
	for i := 0; i < 50; i++ {
		for _, key := range []int64{-100123, 7, 42} {
			key, i := key, i
			require.NoError(t, d.Enqueue(context.Background(), key, "send.text", "sendMessage", func() error {
				mu.Lock()
				got[key] = append(got[key], i)
				mu.Unlock()
				return nil
			}))
		}
	}
	d.Close()

	for key, seq := range got {
		require.Len(t, seq, 50, "key %d", key)
		for i, v := range seq {
			assert.Equal(t, i, v, "key %d out of order", key)
		}
	}
}

func TestDispatcherClosed(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Close()
	d.Close()
	err := d.Enqueue(context.Background(), 1, "a", "b", func() error { return nil })
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestDispatcherQueueFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	defer d.Close()

	block := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, d.Enqueue(context.Background(), 1, "a", "", func() error {
		close(started)
		<-block
		return nil
	}))
	<-started
	require.NoError(t, d.Enqueue(context.Background(), 1, "a", "", func() error { return nil }))
	err := d.Enqueue(context.Background(), 1, "a", "", func() error { return nil })
	assert.ErrorIs(t, err, ErrQueueFull)
	close(block)
}

func TestDispatcherCountsFailures(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	calls := 0
	require.NoError(t, d.Enqueue(context.Background(), 1, "a", "", func() error {
		calls++
		return errors.New("permanent")
	}))
	d.Close()
	assert.Equal(t, 1, calls, "non-network errors are not retried")
	assert.Equal(t, uint64(1), d.ErrorCount())
}

func TestDispatcherRejectsNilRun(t *testing.T) {
	d := NewDispatcher(Options{})
	defer d.Close()
	assert.Error(t, d.Enqueue(context.Background(), 1, "a", "", nil))
}

func TestDispatcherRetriesTransientFailures(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	calls := 0
	require.NoError(t, d.Enqueue(context.Background(), 1, "a", "", func() error {
		calls++
		if calls == 1 {
			return context.DeadlineExceeded
		}
		return nil
	}))
	d.Close()
	assert.Equal(t, 2, calls)
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherOutlivesCancelledUpdate(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ran := false
	require.NoError(t, d.Enqueue(ctx, 1, "a", "", func() error {
		ran = true
		return nil
	}))
	d.Close()
	assert.True(t, ran)
}
