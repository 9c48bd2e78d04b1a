package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists processed notifications for history and statistics.
type Repository interface {
	Save(ctx context.Context, n *Notification) error
	// ListRecent returns up to limit notifications, newest first.
	ListRecent(ctx context.Context, limit int) ([]*Notification, error)
	Stats(ctx context.Context) (*Stats, error)
}

// Stats summarises delivery history.
type Stats struct {
	TotalSent    int64           `json:"total_sent"`
	SuccessRate  float64         `json:"success_rate"`
	ChannelsUsed map[Channel]int `json:"channels_used"`
	LastSent     *time.Time      `json:"last_sent"`
}

// InboxItem is an in-app notification for one recipient.
type InboxItem struct {
	ID             uuid.UUID  `json:"id"`
	NotificationID string     `json:"notification_id"`
	Recipient      string     `json:"recipient"`
	Type           Type       `json:"type"`
	Priority       Priority   `json:"priority"`
	Subject        string     `json:"subject"`
	Content        string     `json:"content"`
	CreatedAt      time.Time  `json:"created_at"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}

// InboxItemsFor fans a notification out into one inbox item per recipient.
func InboxItemsFor(n *Notification) []*InboxItem {
	items := make([]*InboxItem, 0, len(n.Recipients))
	for _, r := range n.Recipients {
		items = append(items, &InboxItem{
			ID:             uuid.New(),
			NotificationID: n.ID,
			Recipient:      r,
			Type:           n.Type,
			Priority:       n.Priority,
			Subject:        n.Subject,
			Content:        n.Content,
			CreatedAt:      n.CreatedAt,
		})
	}
	return items
}

// InboxRepository stores in-app notifications.
type InboxRepository interface {
	Add(ctx context.Context, items []*InboxItem) error
	List(ctx context.Context, recipient string, unreadOnly bool, limit int) ([]*InboxItem, error)
	MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// DefaultHistoryLimit bounds History when no limit is given.
const DefaultHistoryLimit = 50

// Handler processes one dequeued notification. A returned error asks the
// queue to redeliver the message later.
type Handler func(ctx context.Context, n *Notification) error

// Queue carries notifications to an asynchronous delivery worker.
type Queue interface {
	Publish(ctx context.Context, n *Notification) error
	// Consume blocks, feeding messages to handler until ctx is done.
	Consume(ctx context.Context, handler Handler) error
	Size(ctx context.Context) (int, error)
	Kind() string
	Close() error
}
