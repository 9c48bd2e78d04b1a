// Package rabbitmq provides the durable notification queue on RabbitMQ.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/chiragkoyande/audit-project/internal/domain/notification"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/config"
)

var (
	// ErrClosed is returned by Consume when the broker closes the delivery channel.
	ErrClosed = errors.New("rabbitmq delivery channel closed")

	// ErrQueueClosed is returned once Close has been called.
	ErrQueueClosed = errors.New("rabbitmq queue closed")
)

// Queue implements notification.Queue. A dropped connection is redialed on
// the next Publish, Size or Consume call.
type Queue struct {
	url      string
	name     string
	prefetch int

	mu     sync.Mutex
	conn   *amqp.Connection
	pub    *amqp.Channel
	closed bool
}

var _ notification.Queue = (*Queue)(nil)

// NewQueue dials the broker and declares the durable queue.
func NewQueue(cfg *config.RabbitMQConfig) (*Queue, error) {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 10
	}

	q := &Queue{url: cfg.URL, name: cfg.Queue, prefetch: prefetch}
	if err := q.ensureLocked(); err != nil {
		if q.conn != nil {
			_ = q.conn.Close()
		}
		return nil, err
	}

	log.Info().Str("queue", cfg.Queue).Msg("Connected to RabbitMQ")
	return q, nil
}

// ensureLocked redials the connection and reopens the publish channel when
// either is gone. The caller holds q.mu, except in NewQueue.
func (q *Queue) ensureLocked() error {
	if q.closed {
		return ErrQueueClosed
	}
	if q.conn != nil && !q.conn.IsClosed() && q.pub != nil && !q.pub.IsClosed() {
		return nil
	}

	if q.conn == nil || q.conn.IsClosed() {
		conn, err := amqp.DialConfig(q.url, amqp.Config{
			Heartbeat: 10 * time.Second,
			Properties: amqp.Table{
				"connection_name": "audit-notifications",
			},
		})
		if err != nil {
			return fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		if q.conn != nil {
			log.Info().Str("queue", q.name).Msg("Reconnected to RabbitMQ")
		}
		q.conn = conn
		q.pub = nil
	}

	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(q.name, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("failed to declare queue %s: %w", q.name, err)
	}
	q.pub = ch
	return nil
}

func (q *Queue) connection() (*amqp.Connection, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.ensureLocked(); err != nil {
		return nil, err
	}
	return q.conn, nil
}

// Kind implements notification.Queue.
func (q *Queue) Kind() string { return "rabbitmq" }

// Publish implements notification.Queue.
func (q *Queue) Publish(ctx context.Context, n *notification.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.ensureLocked(); err != nil {
		return err
	}
	err = q.pub.PublishWithContext(ctx, "", q.name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    n.ID,
		Timestamp:    time.Now().UTC(),
		Type:         string(n.Type),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Consume implements notification.Queue. Messages are acked when handler
// succeeds, requeued when it fails and dropped when they cannot be decoded.
// It returns ErrClosed when the broker goes away so the caller can restart it.
func (q *Queue) Consume(ctx context.Context, handler notification.Handler) error {
	conn, err := q.connection()
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open consumer channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(q.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	deliveries, err := ch.Consume(q.name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return ErrClosed
			}
			q.handle(ctx, d, handler)
		}
	}
}

func (q *Queue) handle(ctx context.Context, d amqp.Delivery, handler notification.Handler) {
	var n notification.Notification
	if err := json.Unmarshal(d.Body, &n); err != nil {
		log.Error().Err(err).Str("message_id", d.MessageId).Msg("Dropping undecodable notification")
		_ = d.Nack(false, false)
		return
	}

	if err := handler(ctx, &n); err != nil {
		log.Warn().Err(err).Str("notification_id", n.ID).Msg("Requeueing notification")
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

// Size implements notification.Queue.
func (q *Queue) Size(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.ensureLocked(); err != nil {
		return 0, err
	}
	state, err := q.pub.QueueDeclarePassive(q.name, true, false, false, false, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect queue: %w", err)
	}
	return state.Messages, nil
}

// Close implements notification.Queue.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	if q.conn == nil || q.conn.IsClosed() {
		return nil
	}
	return q.conn.Close()
}
