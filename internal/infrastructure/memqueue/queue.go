// Package memqueue provides a bounded in-process notification queue used
// when no broker is configured.
package memqueue

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/chiragkoyande/audit-project/internal/domain/notification"
)

// ErrQueueFull is returned by Publish when the buffer is full.
var ErrQueueFull = errors.New("notification queue is full")

// DefaultRetryDelay is the pause before a failed message is redelivered.
const DefaultRetryDelay = time.Second

// Queue implements notification.Queue over a buffered channel.
type Queue struct {
	items      chan *notification.Notification
	retryDelay time.Duration
}

var _ notification.Queue = (*Queue)(nil)

// New creates a queue holding up to size messages.
func New(size int) *Queue {
	if size <= 0 {
		size = 1000
	}
	return &Queue{items: make(chan *notification.Notification, size), retryDelay: DefaultRetryDelay}
}

// Kind implements notification.Queue.
func (q *Queue) Kind() string { return "memory" }

// Publish implements notification.Queue.
func (q *Queue) Publish(_ context.Context, n *notification.Notification) error {
	select {
	case q.items <- n:
		return nil
	default:
		return ErrQueueFull
	}
}

// Consume implements notification.Queue. Failed messages go back to the
// tail of the queue after the retry delay.
func (q *Queue) Consume(ctx context.Context, handler notification.Handler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-q.items:
			if err := handler(ctx, n); err != nil {
				q.requeue(ctx, n, err)
			}
		}
	}
}

func (q *Queue) requeue(ctx context.Context, n *notification.Notification, cause error) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(q.retryDelay):
	}
	if err := q.Publish(ctx, n); err != nil {
		log.Error().Err(cause).Str("notification_id", n.ID).Msg("Dropping notification, queue is full")
		return
	}
	log.Warn().Err(cause).Str("notification_id", n.ID).Msg("Requeued notification")
}

// Size implements notification.Queue.
func (q *Queue) Size(context.Context) (int, error) {
	return len(q.items), nil
}

// Close implements notification.Queue.
func (q *Queue) Close() error { return nil }
