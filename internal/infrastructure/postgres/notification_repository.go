package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/chiragkoyande/audit-project/internal/domain/notification"
)

// NotificationRepository implements notification.Repository interface.
type NotificationRepository struct {
	db *DB
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Save upserts a processed notification.
func (r *NotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	data, err := toJSONB(n.Data)
	if err != nil {
		return err
	}
	results, err := json.Marshal(n.Results)
	if err != nil {
		return fmt.Errorf("failed to encode notification results: %w", err)
	}

	query := `
		INSERT INTO notifications (
			id, type, priority, recipients, channels, subject, content, data, status, results, created_at, sent_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status, results = EXCLUDED.results, sent_at = EXCLUDED.sent_at
	`
	_, err = r.db.ExecContext(ctx, query,
		n.ID, string(n.Type), string(n.Priority), pq.Array(n.Recipients), pq.Array(channelNames(n.Channels)),
		n.Subject, n.Content, data, string(n.Status), results, n.CreatedAt, n.SentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

// ListRecent returns the newest notifications.
func (r *NotificationRepository) ListRecent(ctx context.Context, limit int) ([]*notification.Notification, error) {
	if limit <= 0 {
		limit = notification.DefaultHistoryLimit
	}
	query := `
		SELECT id, type, priority, recipients, channels, subject, content, data, status, results, created_at, sent_at
		FROM notifications
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer closeRows(rows, "notification history")

	var out []*notification.Notification
	for rows.Next() {
		var (
			n        notification.Notification
			typ      string
			priority string
			status   string
			channels []string
			data     []byte
			results  []byte
			sentAt   sql.NullTime
		)
		if err := rows.Scan(
			&n.ID, &typ, &priority, pq.Array(&n.Recipients), pq.Array(&channels),
			&n.Subject, &n.Content, &data, &status, &results, &n.CreatedAt, &sentAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Type = notification.Type(typ)
		n.Priority = notification.Priority(priority)
		n.Status = notification.Status(status)
		n.Data = fromJSONB(data)
		for _, c := range channels {
			n.Channels = append(n.Channels, notification.Channel(c))
		}
		if len(results) > 0 {
			if err := json.Unmarshal(results, &n.Results); err != nil {
				return nil, fmt.Errorf("failed to decode notification results: %w", err)
			}
		}
		if sentAt.Valid {
			t := sentAt.Time.UTC()
			n.SentAt = &t
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return out, nil
}

// Stats aggregates delivery history.
func (r *NotificationRepository) Stats(ctx context.Context) (*notification.Stats, error) {
	stats := &notification.Stats{ChannelsUsed: map[notification.Channel]int{}}

	var sent int64
	var lastSent sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'sent'), MAX(sent_at)
		FROM notifications
	`).Scan(&stats.TotalSent, &sent, &lastSent)
	if err != nil {
		return nil, fmt.Errorf("failed to get notification stats: %w", err)
	}
	if stats.TotalSent > 0 {
		stats.SuccessRate = float64(sent) / float64(stats.TotalSent) * 100
	}
	if lastSent.Valid {
		t := lastSent.Time.UTC()
		stats.LastSent = &t
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT channel, COUNT(*) FROM notifications, UNNEST(channels) AS channel GROUP BY channel
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get channel usage: %w", err)
	}
	defer closeRows(rows, "notification channel usage")

	for rows.Next() {
		var c string
		var count int
		if err := rows.Scan(&c, &count); err != nil {
			return nil, fmt.Errorf("failed to scan channel usage: %w", err)
		}
		stats.ChannelsUsed[notification.Channel(c)] = count
	}
	return stats, rows.Err()
}

func channelNames(cs []notification.Channel) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}

// InboxRepository implements notification.InboxRepository interface.
type InboxRepository struct {
	db *DB
}

// NewInboxRepository creates a new InboxRepository.
func NewInboxRepository(db *DB) *InboxRepository {
	return &InboxRepository{db: db}
}

// Add stores inbox items in one transaction.
func (r *InboxRepository) Add(ctx context.Context, items []*notification.InboxItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO notification_inbox (id, notification_id, recipient, type, priority, subject, content, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare inbox insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, it := range items {
			if _, err := stmt.ExecContext(ctx,
				it.ID, it.NotificationID, it.Recipient, string(it.Type), string(it.Priority),
				it.Subject, it.Content, it.CreatedAt,
			); err != nil {
				return fmt.Errorf("failed to insert inbox item: %w", err)
			}
		}
		return nil
	})
}

// List returns a recipient's inbox, newest first.
func (r *InboxRepository) List(ctx context.Context, recipient string, unreadOnly bool, limit int) ([]*notification.InboxItem, error) {
	if limit <= 0 {
		limit = notification.DefaultHistoryLimit
	}
	query := `
		SELECT id, notification_id, recipient, type, priority, subject, content, created_at, read_at
		FROM notification_inbox
		WHERE recipient = $1 AND ($2 = FALSE OR read_at IS NULL)
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, recipient, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list inbox: %w", err)
	}
	defer closeRows(rows, "inbox list")

	var out []*notification.InboxItem
	for rows.Next() {
		var (
			it       notification.InboxItem
			typ      string
			priority string
			readAt   sql.NullTime
		)
		if err := rows.Scan(
			&it.ID, &it.NotificationID, &it.Recipient, &typ, &priority,
			&it.Subject, &it.Content, &it.CreatedAt, &readAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan inbox item: %w", err)
		}
		it.Type = notification.Type(typ)
		it.Priority = notification.Priority(priority)
		if readAt.Valid {
			t := readAt.Time.UTC()
			it.ReadAt = &t
		}
		out = append(out, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate inbox: %w", err)
	}
	return out, nil
}

// MarkRead sets read_at on an unread item.
func (r *InboxRepository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notification_inbox SET read_at = COALESCE(read_at, $2) WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to mark inbox item read: %w", err)
	}
	return requireAffected(res)
}

// DeleteOlderThan purges inbox items created before cutoff.
func (r *InboxRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notification_inbox WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge inbox: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}
