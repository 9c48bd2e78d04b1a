// Package notification provides the multi-channel notification application service.
package notification

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/chiragkoyande/audit-project/internal/domain/notification"
	"github.com/chiragkoyande/audit-project/internal/domain/shared"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/config"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/metrics"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/tracing"
)

const (
	defaultMaxAttempts   = 3
	defaultBackoffFactor = 2.0
	defaultInitialDelay  = time.Second
	defaultRetentionDays = 30
	maxHistoryLimit      = 500
	purgeInterval        = 24 * time.Hour

	defaultRestartDelay = time.Second
	maxRestartDelay     = time.Minute
)

// ErrQueueUnavailable is returned by Enqueue when no queue accepted the message.
var ErrQueueUnavailable = fmt.Errorf("%w: notification queue", shared.ErrUnavailable)

// Health is the notification service health report.
type Health struct {
	Status          string                 `json:"status"`
	EnabledChannels []notification.Channel `json:"enabled_channels"`
	Queue           string                 `json:"queue"`
	QueueSize       int                    `json:"queue_size"`
	TotalSent       int64                  `json:"total_sent"`
}

// Service delivers notifications over the configured channels, synchronously
// or through a queue drained by Run.
type Service struct {
	senders       map[notification.Channel]notification.Sender
	repo          notification.Repository
	inbox         notification.InboxRepository
	queue         notification.Queue
	fallback      notification.Queue
	retry         config.RetryConfig
	retentionDays int
	restartDelay  time.Duration
	now           func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithQueue sets the primary delivery queue.
func WithQueue(q notification.Queue) Option {
	return func(s *Service) { s.queue = q }
}

// WithFallbackQueue sets the queue used when publishing to the primary one fails.
func WithFallbackQueue(q notification.Queue) Option {
	return func(s *Service) { s.fallback = q }
}

// WithRestartDelay sets the first pause before a stopped queue worker is
// started again. Later restarts back off up to a minute.
func WithRestartDelay(d time.Duration) Option {
	return func(s *Service) { s.restartDelay = d }
}

// WithInbox sets the in-app inbox store.
func WithInbox(inbox notification.InboxRepository) Option {
	return func(s *Service) { s.inbox = inbox }
}

// WithSenders registers channel senders. Channels without a sender are
// reported as disabled.
func WithSenders(senders ...notification.Sender) Option {
	return func(s *Service) {
		for _, sender := range senders {
			s.senders[sender.Channel()] = sender
		}
	}
}

// NewService creates a new notification service.
func NewService(repo notification.Repository, cfg config.NotificationConfig, opts ...Option) *Service {
	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = defaultMaxAttempts
	}
	if retry.BackoffFactor <= 1 {
		retry.BackoffFactor = defaultBackoffFactor
	}
	if retry.InitialDelay <= 0 {
		retry.InitialDelay = defaultInitialDelay
	}
	retention := cfg.InApp.RetentionDays
	if retention <= 0 {
		retention = defaultRetentionDays
	}

	s := &Service{
		senders:       make(map[notification.Channel]notification.Sender),
		repo:          repo,
		retry:         retry,
		retentionDays: retention,
		restartDelay:  defaultRestartDelay,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send creates a notification and delivers it before returning.
func (s *Service) Send(ctx context.Context, p notification.Params) (*notification.Notification, error) {
	n, err := notification.New(p)
	if err != nil {
		return nil, err
	}
	s.deliver(ctx, n)
	if err := s.save(ctx, n); err != nil {
		log.Warn().Err(err).Str("notification_id", n.ID).Msg("Notification delivered but not persisted")
	}
	return n, nil
}

// Enqueue creates a notification and hands it to the delivery queue.
func (s *Service) Enqueue(ctx context.Context, p notification.Params) (*notification.Notification, error) {
	n, err := notification.New(p)
	if err != nil {
		return nil, err
	}
	n.Status = notification.StatusQueued

	if s.queue != nil {
		err = s.queue.Publish(ctx, n)
		if err == nil {
			return n, nil
		}
		log.Warn().Err(err).Str("queue", s.queue.Kind()).Msg("Failed to publish notification, trying fallback queue")
	}
	if s.fallback != nil {
		ferr := s.fallback.Publish(ctx, n)
		if ferr == nil {
			return n, nil
		}
		err = errors.Join(err, ferr)
	}
	if err == nil {
		return nil, ErrQueueUnavailable
	}
	return nil, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
}

// Run drains the queues until ctx is done and purges expired inbox items
// daily. Each queue has its own worker, and a worker whose queue stops
// consuming is restarted with backoff without affecting the others.
func (s *Service) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, q := range []notification.Queue{s.queue, s.fallback} {
		if q == nil {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.work(ctx, q)
		}()
	}
	if s.inbox != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.purgeLoop(ctx)
		}()
	}
	wg.Wait()
}

func (s *Service) work(ctx context.Context, q notification.Queue) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.restartDelay
	b.MaxInterval = maxRestartDelay

	for {
		log.Info().Str("queue", q.Kind()).Msg("Notification worker started")
		started := time.Now()
		err := q.Consume(ctx, s.Process)
		if ctx.Err() != nil {
			return
		}
		if time.Since(started) > maxRestartDelay {
			b.Reset()
		}

		delay := b.NextBackOff()
		log.Warn().Err(err).Str("queue", q.Kind()).Dur("restart_in", delay).Msg("Notification worker stopped")
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func (s *Service) purgeLoop(ctx context.Context) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.PurgeInbox(ctx); err != nil {
				log.Warn().Err(err).Msg("Inbox purge failed")
			}
		}
	}
}

// Process is the queue handler. Channel failures are terminal and recorded
// on the notification. A finished notification is only saved, and its save
// error is returned so the queue redelivers it. A queued notification is
// delivered at most once per message: when its record cannot be saved, the
// finished copy is published back onto a queue and the original message is
// still acknowledged.
func (s *Service) Process(ctx context.Context, n *notification.Notification) error {
	if n.Finished() {
		return s.saveWithRetry(ctx, n)
	}

	s.deliver(ctx, n)
	if err := s.saveWithRetry(ctx, n); err != nil {
		s.handOff(ctx, n, err)
	}
	return nil
}

// handOff republishes a delivered notification whose record could not be saved.
func (s *Service) handOff(ctx context.Context, n *notification.Notification, cause error) {
	for _, q := range []notification.Queue{s.queue, s.fallback} {
		if q == nil {
			continue
		}
		if err := q.Publish(ctx, n); err != nil {
			log.Warn().Err(err).Str("queue", q.Kind()).Str("notification_id", n.ID).Msg("Failed to republish delivered notification")
			continue
		}
		log.Warn().Err(cause).Str("queue", q.Kind()).Str("notification_id", n.ID).Msg("Delivered notification republished for saving")
		return
	}
	log.Error().Err(cause).Str("notification_id", n.ID).Str("status", string(n.Status)).Msg("Notification delivered but its record was lost")
}

func (s *Service) deliver(ctx context.Context, n *notification.Notification) {
	ctx, span := tracing.StartSpan(ctx, "notification.Deliver")
	defer span.End()

	var mu sync.Mutex
	results := make(map[notification.Channel]notification.ChannelResult, len(n.Channels))

	var wg sync.WaitGroup
	for _, ch := range n.Channels {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := s.deliverChannel(ctx, ch, n)
			metrics.RecordNotification(string(ch), string(res.Status))

			mu.Lock()
			results[ch] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	n.Finalize(results, s.now())

	log.Info().
		Str("notification_id", n.ID).
		Str("type", string(n.Type)).
		Str("status", string(n.Status)).
		Int("recipients", len(n.Recipients)).
		Msg("Notification processed")
}

func (s *Service) deliverChannel(ctx context.Context, ch notification.Channel, n *notification.Notification) notification.ChannelResult {
	sender, ok := s.senders[ch]
	if !ok {
		return notification.ChannelResult{Status: notification.StatusDisabled, Error: notification.ErrChannelDisabled.Error()}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retry.InitialDelay
	b.Multiplier = s.retry.BackoffFactor

	attempts := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		if err := sender.Send(ctx, n); err != nil {
			if notification.IsPermanent(err) {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(s.retry.MaxAttempts)))

	if err != nil {
		log.Warn().Err(err).Str("notification_id", n.ID).Str("channel", string(ch)).Int("attempts", attempts).Msg("Notification channel failed")
		return notification.ChannelResult{Status: notification.StatusFailed, Error: err.Error(), Attempts: attempts}
	}
	sentAt := s.now().UTC()
	return notification.ChannelResult{Status: notification.StatusSuccess, Attempts: attempts, SentAt: &sentAt}
}

func (s *Service) save(ctx context.Context, n *notification.Notification) error {
	if s.repo == nil {
		return nil
	}
	if err := s.repo.Save(ctx, n); err != nil {
		return fmt.Errorf("failed to save notification %s: %w", n.ID, err)
	}
	return nil
}

func (s *Service) saveWithRetry(ctx context.Context, n *notification.Notification) error {
	if s.repo == nil {
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retry.InitialDelay
	b.Multiplier = s.retry.BackoffFactor

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, s.save(ctx, n)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(s.retry.MaxAttempts)))
	return err
}

func (s *Service) dispatch(ctx context.Context, p notification.Params, async bool) (*notification.Notification, error) {
	if async {
		return s.Enqueue(ctx, p)
	}
	return s.Send(ctx, p)
}

// SendAuditAlert notifies recipients about a suspicious audit event.
func (s *Service) SendAuditAlert(ctx context.Context, alert notification.AlertData, recipients []string, async bool) (*notification.Notification, error) {
	priority := alert.Priority
	if priority == "" {
		priority = notification.PriorityHigh
	}
	return s.dispatch(ctx, notification.Params{
		Type:       notification.TypeAuditAlert,
		Priority:   priority,
		Recipients: recipients,
		Subject:    notification.AuditAlertSubject(alert),
		Content:    notification.FormatAuditAlert(alert, s.now()),
		Data: map[string]interface{}{
			"alert_type": alert.Type,
			"severity":   alert.Severity,
		},
	}, async)
}

// SendComplianceWarning notifies recipients about a failing compliance check.
func (s *Service) SendComplianceWarning(ctx context.Context, summary notification.ComplianceSummary, recipients []string, async bool) (*notification.Notification, error) {
	return s.dispatch(ctx, notification.Params{
		Type:       notification.TypeComplianceWarning,
		Priority:   notification.PriorityHigh,
		Recipients: recipients,
		Channels:   []notification.Channel{notification.ChannelEmail, notification.ChannelInApp},
		Subject:    notification.ComplianceWarningSubject,
		Content:    notification.FormatComplianceWarning(summary, s.now()),
		Data: map[string]interface{}{
			"compliance_score": summary.Score,
			"overall_status":   summary.OverallStatus,
			"frameworks":       summary.Frameworks,
		},
	}, async)
}

// SendReportReady tells recipients a report can be downloaded.
func (s *Service) SendReportReady(ctx context.Context, info notification.ReportInfo, recipients []string, async bool) (*notification.Notification, error) {
	return s.dispatch(ctx, notification.Params{
		Type:       notification.TypeReportReady,
		Priority:   notification.PriorityMedium,
		Recipients: recipients,
		Channels:   []notification.Channel{notification.ChannelEmail, notification.ChannelInApp},
		Subject:    notification.ReportReadySubject(info),
		Content:    notification.FormatReportReady(info, s.now()),
		Data: map[string]interface{}{
			"report_id": info.ReportID,
			"url":       info.URL,
		},
	}, async)
}

// SendDeadlineReminder reminds recipients of an upcoming deadline.
func (s *Service) SendDeadlineReminder(ctx context.Context, info notification.DeadlineInfo, daysUntil int, recipients []string, async bool) (*notification.Notification, error) {
	return s.dispatch(ctx, notification.Params{
		Type:       notification.TypeDeadlineReminder,
		Priority:   notification.DeadlinePriority(daysUntil),
		Recipients: recipients,
		Subject:    notification.DeadlineReminderSubject(daysUntil),
		Content:    notification.FormatDeadlineReminder(info, daysUntil),
		Data: map[string]interface{}{
			"task_id":        info.TaskID,
			"deadline":       info.DeadlineDate,
			"days_remaining": daysUntil,
		},
	}, async)
}

// History returns recent notifications, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]*notification.Notification, error) {
	if limit <= 0 {
		limit = notification.DefaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.repo.ListRecent(ctx, limit)
}

// Stats summarises delivery history.
func (s *Service) Stats(ctx context.Context) (*notification.Stats, error) {
	return s.repo.Stats(ctx)
}

// ListInbox returns a recipient's in-app notifications, newest first.
func (s *Service) ListInbox(ctx context.Context, recipient string, unreadOnly bool, limit int) ([]*notification.InboxItem, error) {
	if s.inbox == nil {
		return nil, fmt.Errorf("%w: in-app inbox", shared.ErrUnavailable)
	}
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return nil, shared.NewValidationError("recipient", "is required")
	}
	if limit <= 0 {
		limit = notification.DefaultHistoryLimit
	}
	return s.inbox.List(ctx, recipient, unreadOnly, limit)
}

// MarkRead marks an inbox item as read.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID) error {
	if s.inbox == nil {
		return fmt.Errorf("%w: in-app inbox", shared.ErrUnavailable)
	}
	return s.inbox.MarkRead(ctx, id, s.now().UTC())
}

// PurgeInbox deletes inbox items older than the retention window.
func (s *Service) PurgeInbox(ctx context.Context) (int64, error) {
	if s.inbox == nil {
		return 0, nil
	}
	cutoff := s.now().UTC().AddDate(0, 0, -s.retentionDays)
	n, err := s.inbox.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("Inbox items purged")
	}
	return n, nil
}

// EnabledChannels lists the channels with a registered sender.
func (s *Service) EnabledChannels() []notification.Channel {
	out := make([]notification.Channel, 0, len(s.senders))
	for ch := range s.senders {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Health reports channel, queue and history state.
func (s *Service) Health(ctx context.Context) Health {
	h := Health{Status: "healthy", EnabledChannels: s.EnabledChannels(), Queue: "disabled"}

	q := s.queue
	if q == nil {
		q = s.fallback
	}
	if q != nil {
		h.Queue = q.Kind()
		size, err := q.Size(ctx)
		if err != nil {
			log.Warn().Err(err).Str("queue", h.Queue).Msg("Queue size check failed")
			h.Status = "degraded"
		}
		h.QueueSize = size
	}
	if s.repo != nil {
		stats, err := s.repo.Stats(ctx)
		if err != nil {
			h.Status = "degraded"
		} else {
			h.TotalSent = stats.TotalSent
		}
	}
	if len(h.EnabledChannels) == 0 {
		h.Status = "degraded"
	}
	return h
}
