package syslog

import (
	"context"
	"time"
)

// Repository defines the interface for system log persistence operations.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error

	// ListByLevel returns the newest entries of a level first.
	ListByLevel(ctx context.Context, level Level, limit int) ([]*Entry, error)

	// ListByModule returns the newest entries of a module first.
	ListByModule(ctx context.Context, module string, limit int) ([]*Entry, error)

	// ListByRequest returns every entry of a request in chronological order.
	ListByRequest(ctx context.Context, requestID string) ([]*Entry, error)

	// DeleteOlderThan removes entries older than cutoff and returns the count removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
