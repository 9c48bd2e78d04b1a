package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiragkoyande/audit-project/internal/domain/auditlog"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/config"
)

func newLog(t *testing.T) *auditlog.AuditLog {
	t.Helper()
	uid := uuid.New()
	l, err := auditlog.NewAuditLog(auditlog.Params{
		UserID:       &uid,
		Action:       "update",
		ResourceType: "report",
		ResourceID:   "42",
		Changes:      map[string]interface{}{"title": map[string]interface{}{"old": "a", "new": "b"}},
		IPAddress:    "10.0.0.1",
	})
	require.NoError(t, err)
	return l
}

func TestMirror_Disabled(t *testing.T) {
	m := NewMirror(&config.SupabaseConfig{})
	assert.False(t, m.Enabled())
	assert.NoError(t, m.Insert(context.Background(), newLog(t)))
}

func TestMirror_Insert(t *testing.T) {
	t.Run("success - posts row with auth headers", func(t *testing.T) {
		var got map[string]interface{}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/rest/v1/audit_logs", r.URL.Path)
			assert.Equal(t, "secret", r.Header.Get("apikey"))
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusCreated)
		}))
		defer srv.Close()

		m := NewMirror(&config.SupabaseConfig{URL: srv.URL + "/", Key: "secret", Timeout: time.Second})
		l := newLog(t)
		require.NoError(t, m.Insert(context.Background(), l))

		assert.Equal(t, "update", got["action"])
		assert.Equal(t, "report", got["resource_type"])
		assert.Equal(t, l.UserID().String(), got["user_id"])
		assert.Equal(t, "success", got["status"])
		assert.Contains(t, got, "changes")
	})

	t.Run("error - non 2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"message":"permission denied"}`, http.StatusUnauthorized)
		}))
		defer srv.Close()

		m := NewMirror(&config.SupabaseConfig{URL: srv.URL, Key: "k", Table: "audit_mirror"})
		err := m.Insert(context.Background(), newLog(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})
}
