package memqueue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiragkoyande/audit-project/internal/domain/notification"
)

func newNotification(t *testing.T) *notification.Notification {
	t.Helper()
	n, err := notification.New(notification.Params{
		Recipients: []string{"ops@example.com"},
		Subject:    "subject",
		Content:    "content",
	})
	require.NoError(t, err)
	return n
}

func TestQueue_PublishFull(t *testing.T) {
	q := New(1)
	ctx := context.Background()

	require.NoError(t, q.Publish(ctx, newNotification(t)))
	assert.ErrorIs(t, q.Publish(ctx, newNotification(t)), ErrQueueFull)

	size, err := q.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size)
	assert.Equal(t, "memory", q.Kind())
}

func TestQueue_ConsumeRetriesFailures(t *testing.T) {
	q := New(10)
	q.retryDelay = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := newNotification(t)
	require.NoError(t, q.Publish(ctx, n))

	var calls int32
	done := make(chan struct{})
	go func() {
		_ = q.Consume(ctx, func(_ context.Context, got *notification.Notification) error {
			assert.Equal(t, n.ID, got.ID)
			if atomic.AddInt32(&calls, 1) == 1 {
				return errors.New("database unavailable")
			}
			close(done)
			return nil
		})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not redelivered")
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestQueue_ConsumeStopsOnCancel(t *testing.T) {
	q := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, q.Consume(ctx, func(context.Context, *notification.Notification) error { return nil }))
}
