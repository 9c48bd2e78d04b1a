// Package supabase mirrors audit logs into a Supabase project through its
// PostgREST interface.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/chiragkoyande/audit-project/internal/domain/auditlog"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/config"
	"github.com/chiragkoyande/audit-project/pkg/circuitbreaker"
)

const defaultTable = "audit_logs"

// Mirror implements auditlog.Mirror.
type Mirror struct {
	endpoint string
	key      string
	client   *http.Client
	breaker  *circuitbreaker.CircuitBreaker
}

var _ auditlog.Mirror = (*Mirror)(nil)

// NewMirror creates a Supabase mirror. A mirror without URL or key is a no-op.
func NewMirror(cfg *config.SupabaseConfig) *Mirror {
	m := &Mirror{key: cfg.Key}
	if !cfg.Enabled() {
		return m
	}

	table := cfg.Table
	if table == "" {
		table = defaultTable
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	settings := circuitbreaker.DefaultSettings("supabase")
	settings.OnStateChange = func(name string, from, to circuitbreaker.State) {
		log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
	}

	m.endpoint = strings.TrimRight(cfg.URL, "/") + "/rest/v1/" + table
	m.client = &http.Client{Timeout: timeout}
	m.breaker = circuitbreaker.New(settings)
	return m
}

// Enabled reports whether the mirror sends anything.
func (m *Mirror) Enabled() bool {
	return m.endpoint != ""
}

type row struct {
	UserID       *string                `json:"user_id"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id"`
	Description  string                 `json:"description"`
	Changes      map[string]interface{} `json:"changes"`
	IPAddress    string                 `json:"ip_address"`
	Status       string                 `json:"status"`
	Timestamp    string                 `json:"timestamp"`
}

func toRow(l *auditlog.AuditLog) row {
	r := row{
		Action:       l.Action(),
		ResourceType: l.ResourceType(),
		ResourceID:   l.ResourceID(),
		Description:  l.Description(),
		Changes:      l.Changes(),
		IPAddress:    l.IPAddress(),
		Status:       string(l.Status()),
		Timestamp:    l.Timestamp().Format(time.RFC3339Nano),
	}
	if id := l.UserID(); id != nil {
		s := id.String()
		r.UserID = &s
	}
	return r
}

// Insert posts the log to the configured table.
func (m *Mirror) Insert(ctx context.Context, l *auditlog.AuditLog) error {
	if !m.Enabled() {
		return nil
	}

	body, err := json.Marshal(toRow(l))
	if err != nil {
		return fmt.Errorf("failed to encode audit log: %w", err)
	}

	return m.breaker.Execute(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("apikey", m.key)
		req.Header.Set("Authorization", "Bearer "+m.key)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=minimal")

		resp, err := m.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to reach supabase: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= 300 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("supabase insert failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		}
		return nil
	})
}
