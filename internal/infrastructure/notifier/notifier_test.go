package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chiragkoyande/audit-project/internal/domain/notification"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/config"
)

func newNotification(t *testing.T, recipients ...string) *notification.Notification {
	t.Helper()
	n, err := notification.New(notification.Params{
		Type:       notification.TypeAuditAlert,
		Priority:   notification.PriorityCritical,
		Recipients: recipients,
		Subject:    "Audit Alert: Failed delete",
		Content:    "Someone tried to delete report 42",
	})
	require.NoError(t, err)
	return n
}

func TestSlackSender_Send(t *testing.T) {
	t.Run("success - posts channel and text", func(t *testing.T) {
		var got slackMessage
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		s := NewSlackSender(&config.SlackConfig{Enabled: true, WebhookURL: srv.URL, Channel: "#audit-alerts"})
		require.NoError(t, s.Send(context.Background(), newNotification(t, "ops@example.com")))
		assert.Equal(t, "#audit-alerts", got.Channel)
		assert.Contains(t, got.Text, "[critical] Audit Alert: Failed delete")
	})

	t.Run("error - 4xx is permanent", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "invalid_token", http.StatusForbidden)
		}))
		defer srv.Close()

		s := NewSlackSender(&config.SlackConfig{WebhookURL: srv.URL})
		err := s.Send(context.Background(), newNotification(t, "ops@example.com"))
		require.Error(t, err)
		assert.True(t, notification.IsPermanent(err))
	})

	t.Run("error - 5xx is retryable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		s := NewSlackSender(&config.SlackConfig{WebhookURL: srv.URL})
		err := s.Send(context.Background(), newNotification(t, "ops@example.com"))
		require.Error(t, err)
		assert.False(t, notification.IsPermanent(err))
	})

	t.Run("error - missing url", func(t *testing.T) {
		err := NewSlackSender(&config.SlackConfig{}).Send(context.Background(), newNotification(t, "a@b.co"))
		assert.True(t, notification.IsPermanent(err))
	})
}

func TestWebhookSender_Send(t *testing.T) {
	var bodies [][]byte
	var sigs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, b)
		sigs = append(sigs, r.Header.Get(SignatureHeader))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewWebhookSender(&config.WebhookConfig{
		Enabled:   true,
		Endpoints: []string{srv.URL + "/a", srv.URL + "/b"},
		Secret:    "shh",
	})
	n := newNotification(t, "ops@example.com")
	require.NoError(t, s.Send(context.Background(), n))

	require.Len(t, bodies, 2)
	assert.Equal(t, Sign("shh", bodies[0]), sigs[0])
	assert.True(t, strings.HasPrefix(sigs[0], "sha256="))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(bodies[0], &payload))
	assert.Equal(t, n.ID, payload["id"])
	assert.Equal(t, "audit_alert", payload["type"])
}

func TestWebhookSender_NoEndpoints(t *testing.T) {
	err := NewWebhookSender(&config.WebhookConfig{}).Send(context.Background(), newNotification(t, "a@b.co"))
	assert.True(t, notification.IsPermanent(err))
}

func TestSMSSender_Send(t *testing.T) {
	t.Run("success - one message per phone recipient", func(t *testing.T) {
		var to []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "AC123", user)
			assert.Equal(t, "token", pass)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "+15550000000", r.PostForm.Get("From"))
			to = append(to, r.PostForm.Get("To"))
			w.WriteHeader(http.StatusCreated)
		}))
		defer srv.Close()

		s := NewSMSSender(&config.SMSConfig{AccountSID: "AC123", AuthToken: "token", FromNumber: "+15550000000", BaseURL: srv.URL})
		require.NoError(t, s.Send(context.Background(), newNotification(t, "+14155550100", "ops@example.com", "+447700900123")))
		assert.Equal(t, []string{"+14155550100", "+447700900123"}, to)
	})

	t.Run("error - no phone recipients", func(t *testing.T) {
		s := NewSMSSender(&config.SMSConfig{})
		err := s.Send(context.Background(), newNotification(t, "ops@example.com"))
		assert.ErrorIs(t, err, ErrNoSMSRecipients)
		assert.True(t, notification.IsPermanent(err))
	})
}

func TestSMSBody_Truncates(t *testing.T) {
	n := newNotification(t, "+14155550100")
	n.Content = strings.Repeat("x", 2000)
	assert.Len(t, smsBody(n), maxSMSLength)
}

func TestEmailSender(t *testing.T) {
	s := NewEmailSender(&config.EmailConfig{FromAddress: "audit@company.com", FromName: "Audit System"})
	s.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	msg := string(s.buildMessage([]string{"a@example.com", "b@example.com"}, "Compliance Warning Detected", "line1\nline2"))
	assert.Contains(t, msg, "From: \"Audit System\" <audit@company.com>\r\n")
	assert.Contains(t, msg, "To: a@example.com, b@example.com\r\n")
	assert.Contains(t, msg, "Subject: Compliance Warning Detected\r\n")
	assert.Contains(t, msg, "Content-Type: text/plain; charset=UTF-8\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nline1\r\nline2"))

	assert.Equal(t, []string{"a@example.com"}, emailRecipients([]string{"a@example.com", "+14155550100", "not an email"}))

	err := s.Send(context.Background(), newNotification(t, "+14155550100"))
	assert.ErrorIs(t, err, ErrNoEmailRecipients)
	assert.True(t, notification.IsPermanent(err))
}

type mockInbox struct {
	mock.Mock
}

func (m *mockInbox) Add(ctx context.Context, items []*notification.InboxItem) error {
	return m.Called(ctx, items).Error(0)
}

func (m *mockInbox) List(ctx context.Context, recipient string, unreadOnly bool, limit int) ([]*notification.InboxItem, error) {
	args := m.Called(ctx, recipient, unreadOnly, limit)
	return args.Get(0).([]*notification.InboxItem), args.Error(1)
}

func (m *mockInbox) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockInbox) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func TestInAppSender_Send(t *testing.T) {
	inbox := new(mockInbox)
	inbox.On("Add", mock.Anything, mock.MatchedBy(func(items []*notification.InboxItem) bool {
		return len(items) == 2 && items[0].Recipient == "a@example.com"
	})).Return(nil)

	s := NewInAppSender(inbox)
	assert.Equal(t, notification.ChannelInApp, s.Channel())
	require.NoError(t, s.Send(context.Background(), newNotification(t, "a@example.com", "b@example.com")))
	inbox.AssertExpectations(t)
}
