package notification_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	notificationapp "github.com/chiragkoyande/audit-project/internal/application/notification"
	"github.com/chiragkoyande/audit-project/internal/domain/notification"
	"github.com/chiragkoyande/audit-project/internal/domain/shared"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/config"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/memqueue"
)

// MockRepository is a mock implementation of notification.Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Save(ctx context.Context, n *notification.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockRepository) ListRecent(ctx context.Context, limit int) ([]*notification.Notification, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*notification.Notification), args.Error(1)
}

func (m *MockRepository) Stats(ctx context.Context) (*notification.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Stats), args.Error(1)
}

// fakeSender fails its first `failures` calls with err.
type fakeSender struct {
	channel  notification.Channel
	failures int
	err      error

	mu    sync.Mutex
	calls int
}

func (f *fakeSender) Channel() notification.Channel { return f.channel }

func (f *fakeSender) Send(context.Context, *notification.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func (f *fakeSender) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recordingQueue stores published messages as JSON, the way a broker does,
// and optionally refuses to publish or consume.
type recordingQueue struct {
	publishErr error
	consumeErr error

	mu        sync.Mutex
	bodies    [][]byte
	consumers int32
}

func (q *recordingQueue) Publish(_ context.Context, n *notification.Notification) error {
	if q.publishErr != nil {
		return q.publishErr
	}
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.bodies = append(q.bodies, body)
	return nil
}

func (q *recordingQueue) Consume(ctx context.Context, _ notification.Handler) error {
	atomic.AddInt32(&q.consumers, 1)
	if q.consumeErr != nil {
		return q.consumeErr
	}
	<-ctx.Done()
	return nil
}

func (q *recordingQueue) Size(context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.bodies), nil
}

func (q *recordingQueue) Kind() string { return "recording" }
func (q *recordingQueue) Close() error { return nil }

func (q *recordingQueue) published() [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([][]byte(nil), q.bodies...)
}

// decode reads a message body back the way a queue consumer does.
func decode(t *testing.T, body []byte) *notification.Notification {
	t.Helper()
	var n notification.Notification
	require.NoError(t, json.Unmarshal(body, &n))
	return &n
}

var fastRetry = config.NotificationConfig{
	Retry: config.RetryConfig{MaxAttempts: 3, BackoffFactor: 2, InitialDelay: time.Millisecond},
}

func alertParams() notification.Params {
	return notification.Params{
		Type:       notification.TypeAuditAlert,
		Priority:   notification.PriorityHigh,
		Recipients: []string{"security@example.com"},
		Subject:    "Audit Alert: test",
		Content:    "body",
	}
}

func TestService_Send(t *testing.T) {
	t.Run("success - retries transient failures and marks missing channels disabled", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Save", mock.Anything, mock.AnythingOfType("*notification.Notification")).Return(nil)
		email := &fakeSender{channel: notification.ChannelEmail, failures: 2, err: errors.New("smtp busy")}
		svc := notificationapp.NewService(repo, fastRetry, notificationapp.WithSenders(email))

		n, err := svc.Send(context.Background(), alertParams())
		require.NoError(t, err)
		assert.Equal(t, notification.StatusSent, n.Status)
		assert.Equal(t, notification.StatusSuccess, n.Results[notification.ChannelEmail].Status)
		assert.Equal(t, 3, n.Results[notification.ChannelEmail].Attempts)
		assert.Equal(t, notification.StatusDisabled, n.Results[notification.ChannelInApp].Status)
		assert.NotNil(t, n.SentAt)
		repo.AssertExpectations(t)
	})

	t.Run("success - permanent failure is not retried", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)
		email := &fakeSender{channel: notification.ChannelEmail, failures: 5, err: notification.Permanent(errors.New("bad address"))}
		svc := notificationapp.NewService(repo, fastRetry, notificationapp.WithSenders(email))

		n, err := svc.Send(context.Background(), alertParams())
		require.NoError(t, err)
		assert.Equal(t, notification.StatusFailed, n.Status)
		res := n.Results[notification.ChannelEmail]
		assert.Equal(t, notification.StatusFailed, res.Status)
		assert.Equal(t, 1, res.Attempts)
		assert.Contains(t, res.Error, "bad address")
	})

	t.Run("success - save failure does not fail a delivered send", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down"))
		svc := notificationapp.NewService(repo, fastRetry, notificationapp.WithSenders(&fakeSender{channel: notification.ChannelInApp}))

		n, err := svc.Send(context.Background(), alertParams())
		require.NoError(t, err)
		assert.Equal(t, notification.StatusSent, n.Status)
	})

	t.Run("error - no recipients", func(t *testing.T) {
		svc := notificationapp.NewService(new(MockRepository), fastRetry)
		p := alertParams()
		p.Recipients = nil
		_, err := svc.Send(context.Background(), p)
		assert.ErrorIs(t, err, notification.ErrNoRecipients)
	})
}

func TestService_Enqueue(t *testing.T) {
	t.Run("success - published as queued", func(t *testing.T) {
		q := memqueue.New(10)
		svc := notificationapp.NewService(new(MockRepository), fastRetry, notificationapp.WithQueue(q))

		n, err := svc.Enqueue(context.Background(), alertParams())
		require.NoError(t, err)
		assert.Equal(t, notification.StatusQueued, n.Status)
		size, _ := q.Size(context.Background())
		assert.Equal(t, 1, size)
	})

	t.Run("success - falls back when the primary queue rejects", func(t *testing.T) {
		primary := memqueue.New(1)
		fallback := memqueue.New(10)
		svc := notificationapp.NewService(new(MockRepository), fastRetry,
			notificationapp.WithQueue(primary), notificationapp.WithFallbackQueue(fallback))

		_, err := svc.Enqueue(context.Background(), alertParams())
		require.NoError(t, err)
		_, err = svc.Enqueue(context.Background(), alertParams())
		require.NoError(t, err)

		size, _ := fallback.Size(context.Background())
		assert.Equal(t, 1, size)
	})

	t.Run("error - no queue", func(t *testing.T) {
		svc := notificationapp.NewService(new(MockRepository), fastRetry)
		_, err := svc.Enqueue(context.Background(), alertParams())
		assert.ErrorIs(t, err, shared.ErrUnavailable)
	})
}

func TestService_Process(t *testing.T) {
	t.Run("success - save failure after delivery republishes the finished notification", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down")).Times(fastRetry.Retry.MaxAttempts)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
		sender := &fakeSender{channel: notification.ChannelEmail}
		q := &recordingQueue{}
		svc := notificationapp.NewService(repo, fastRetry,
			notificationapp.WithQueue(q), notificationapp.WithSenders(sender))

		queued, err := svc.Enqueue(context.Background(), alertParams())
		require.NoError(t, err)
		require.Len(t, q.published(), 1)
		original := q.published()[0]

		// The original message is acknowledged, so only the finished copy comes back.
		require.NoError(t, svc.Process(context.Background(), decode(t, original)))
		assert.Equal(t, 1, sender.callCount())

		bodies := q.published()
		require.Len(t, bodies, 2)
		finished := decode(t, bodies[1])
		assert.Equal(t, queued.ID, finished.ID)
		assert.Equal(t, notification.StatusSent, finished.Status)
		assert.Equal(t, notification.StatusSuccess, finished.Results[notification.ChannelEmail].Status)

		require.NoError(t, svc.Process(context.Background(), finished))
		assert.Equal(t, 1, sender.callCount())
		repo.AssertExpectations(t)
	})

	t.Run("success - falls back to the second queue to hand off a finished notification", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down"))
		sender := &fakeSender{channel: notification.ChannelEmail}
		primary := &recordingQueue{publishErr: errors.New("broker down")}
		fallback := &recordingQueue{}
		svc := notificationapp.NewService(repo, fastRetry,
			notificationapp.WithQueue(primary), notificationapp.WithFallbackQueue(fallback),
			notificationapp.WithSenders(sender))

		n, err := notification.New(alertParams())
		require.NoError(t, err)
		n.Status = notification.StatusQueued

		require.NoError(t, svc.Process(context.Background(), n))
		require.Len(t, fallback.published(), 1)
		assert.Equal(t, notification.StatusSent, decode(t, fallback.published()[0]).Status)
	})

	t.Run("error - finished notification save failure asks for redelivery without resending", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down"))
		sender := &fakeSender{channel: notification.ChannelEmail}
		svc := notificationapp.NewService(repo, fastRetry, notificationapp.WithSenders(sender))

		n, err := notification.New(alertParams())
		require.NoError(t, err)
		n.Finalize(map[notification.Channel]notification.ChannelResult{
			notification.ChannelEmail: {Status: notification.StatusSuccess, Attempts: 1},
		}, time.Now())

		assert.Error(t, svc.Process(context.Background(), decode(t, mustJSON(t, n))))
		assert.Zero(t, sender.callCount())
		repo.AssertNumberOfCalls(t, "Save", fastRetry.Retry.MaxAttempts)
	})

	t.Run("success - worker drains the queue", func(t *testing.T) {
		repo := new(MockRepository)
		saved := make(chan struct{}, 1)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil).Run(func(mock.Arguments) { saved <- struct{}{} })
		q := memqueue.New(10)
		svc := notificationapp.NewService(repo, fastRetry,
			notificationapp.WithQueue(q), notificationapp.WithSenders(&fakeSender{channel: notification.ChannelInApp}))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go svc.Run(ctx)

		_, err := svc.Enqueue(ctx, alertParams())
		require.NoError(t, err)

		select {
		case <-saved:
		case <-time.After(2 * time.Second):
			t.Fatal("queued notification was not processed")
		}
	})
}

func TestService_Run(t *testing.T) {
	t.Run("success - fallback keeps draining when the primary consumer fails", func(t *testing.T) {
		repo := new(MockRepository)
		saved := make(chan struct{}, 1)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil).Run(func(mock.Arguments) {
			select {
			case saved <- struct{}{}:
			default:
			}
		})
		primary := &recordingQueue{
			publishErr: errors.New("connection closed"),
			consumeErr: errors.New("delivery channel closed"),
		}
		fallback := memqueue.New(10)
		sender := &fakeSender{channel: notification.ChannelInApp}
		svc := notificationapp.NewService(repo, fastRetry,
			notificationapp.WithQueue(primary), notificationapp.WithFallbackQueue(fallback),
			notificationapp.WithSenders(sender), notificationapp.WithRestartDelay(time.Millisecond))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go svc.Run(ctx)

		n, err := svc.Enqueue(ctx, alertParams())
		require.NoError(t, err)
		assert.Equal(t, notification.StatusQueued, n.Status)

		select {
		case <-saved:
		case <-time.After(2 * time.Second):
			t.Fatal("fallback queue was not drained")
		}
		assert.Equal(t, 1, sender.callCount())
		assert.Eventually(t, func() bool { return atomic.LoadInt32(&primary.consumers) >= 2 },
			2*time.Second, 5*time.Millisecond, "primary consumer was not restarted")
	})

	t.Run("success - returns when the context is cancelled", func(t *testing.T) {
		svc := notificationapp.NewService(new(MockRepository), fastRetry,
			notificationapp.WithQueue(&recordingQueue{}), notificationapp.WithFallbackQueue(memqueue.New(1)))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			svc.Run(ctx)
			close(done)
		}()
		cancel()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
	})
}

func mustJSON(t *testing.T, n *notification.Notification) []byte {
	t.Helper()
	body, err := json.Marshal(n)
	require.NoError(t, err)
	return body
}

func TestService_Helpers(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	svc := notificationapp.NewService(repo, fastRetry, notificationapp.WithSenders(&fakeSender{channel: notification.ChannelInApp}))
	ctx := context.Background()
	to := []string{"ops@example.com"}

	t.Run("success - audit alert", func(t *testing.T) {
		n, err := svc.SendAuditAlert(ctx, notification.AlertData{Type: "delete", Severity: "High"}, to, false)
		require.NoError(t, err)
		assert.Equal(t, "Audit Alert: Unknown Alert", n.Subject)
		assert.Equal(t, notification.PriorityHigh, n.Priority)
	})

	t.Run("success - audit alert honours the requested priority", func(t *testing.T) {
		n, err := svc.SendAuditAlert(ctx, notification.AlertData{Type: "delete", Priority: notification.PriorityCritical}, to, false)
		require.NoError(t, err)
		assert.Equal(t, notification.PriorityCritical, n.Priority)
		assert.Equal(t, notification.ChannelsForPriority(notification.PriorityCritical), n.Channels)
	})

	t.Run("success - compliance warning uses email and in-app", func(t *testing.T) {
		n, err := svc.SendComplianceWarning(ctx, notification.ComplianceSummary{Score: 0.42, OverallStatus: "non_compliant", Frameworks: []string{"SOX"}}, to, false)
		require.NoError(t, err)
		assert.Equal(t, notification.ComplianceWarningSubject, n.Subject)
		assert.Equal(t, []notification.Channel{notification.ChannelEmail, notification.ChannelInApp}, n.Channels)
		assert.Contains(t, n.Content, "Compliance Score: 0.42")
	})

	t.Run("success - report ready", func(t *testing.T) {
		n, err := svc.SendReportReady(ctx, notification.ReportInfo{ReportID: "r1"}, to, false)
		require.NoError(t, err)
		assert.Equal(t, "Report Ready: Audit Report", n.Subject)
		assert.Equal(t, notification.PriorityMedium, n.Priority)
	})

	t.Run("success - deadline reminder is critical within a day", func(t *testing.T) {
		n, err := svc.SendDeadlineReminder(ctx, notification.DeadlineInfo{TaskName: "SOX review"}, 1, to, false)
		require.NoError(t, err)
		assert.Equal(t, notification.PriorityCritical, n.Priority)
		assert.Equal(t, "Deadline Reminder: 1 days remaining", n.Subject)
		assert.Contains(t, n.Content, "URGENT")
		assert.Equal(t, notification.StatusDisabled, n.Results[notification.ChannelSMS].Status)
	})
}

func TestService_Queries(t *testing.T) {
	t.Run("success - history default limit", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("ListRecent", mock.Anything, notification.DefaultHistoryLimit).Return([]*notification.Notification{}, nil)
		svc := notificationapp.NewService(repo, fastRetry)

		_, err := svc.History(context.Background(), 0)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("error - inbox without store", func(t *testing.T) {
		svc := notificationapp.NewService(new(MockRepository), fastRetry)
		_, err := svc.ListInbox(context.Background(), "a@example.com", false, 0)
		assert.ErrorIs(t, err, shared.ErrUnavailable)
	})

	t.Run("success - health", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Stats", mock.Anything).Return(&notification.Stats{TotalSent: 7}, nil)
		svc := notificationapp.NewService(repo, fastRetry,
			notificationapp.WithQueue(memqueue.New(5)),
			notificationapp.WithSenders(&fakeSender{channel: notification.ChannelSlack}, &fakeSender{channel: notification.ChannelEmail}))

		h := svc.Health(context.Background())
		assert.Equal(t, "healthy", h.Status)
		assert.Equal(t, "memory", h.Queue)
		assert.Equal(t, int64(7), h.TotalSent)
		assert.Equal(t, []notification.Channel{notification.ChannelEmail, notification.ChannelSlack}, h.EnabledChannels)
	})

	t.Run("success - health reports the fallback queue when there is no primary", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Stats", mock.Anything).Return(&notification.Stats{}, nil)
		fallback := memqueue.New(5)
		svc := notificationapp.NewService(repo, fastRetry,
			notificationapp.WithFallbackQueue(fallback),
			notificationapp.WithSenders(&fakeSender{channel: notification.ChannelInApp}))

		_, err := svc.Enqueue(context.Background(), alertParams())
		require.NoError(t, err)

		h := svc.Health(context.Background())
		assert.Equal(t, "healthy", h.Status)
		assert.Equal(t, "memory", h.Queue)
		assert.Equal(t, 1, h.QueueSize)
	})
}
