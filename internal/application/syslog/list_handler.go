package syslog

import (
	"context"
	"strings"

	"github.com/chiragkoyande/audit-project/internal/domain/shared"
	"github.com/chiragkoyande/audit-project/internal/domain/syslog"
)

// ListQuery represents the list system logs query. Exactly one of Level,
// Module or RequestID selects the entries.
type ListQuery struct {
	Level     string
	Module    string
	RequestID string
	Limit     int
}

// ListHandler handles the ListSystemLogs query.
type ListHandler struct {
	repo syslog.Repository
}

// NewListHandler creates a new ListHandler.
func NewListHandler(repo syslog.Repository) *ListHandler {
	return &ListHandler{repo: repo}
}

// Handle executes the list system logs query.
func (h *ListHandler) Handle(ctx context.Context, query ListQuery) ([]*syslog.Entry, error) {
	set := 0
	for _, v := range []string{query.Level, query.Module, query.RequestID} {
		if strings.TrimSpace(v) != "" {
			set++
		}
	}
	if set != 1 {
		return nil, shared.NewValidationError("query", "exactly one of level, module or request_id is required")
	}

	switch {
	case query.Level != "":
		return h.ListByLevel(ctx, query.Level, query.Limit)
	case query.Module != "":
		return h.ListByModule(ctx, query.Module, query.Limit)
	default:
		return h.ListByRequest(ctx, query.RequestID)
	}
}

// ListByLevel returns the newest entries of a level.
func (h *ListHandler) ListByLevel(ctx context.Context, level string, limit int) ([]*syslog.Entry, error) {
	lvl, err := syslog.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return h.repo.ListByLevel(ctx, lvl, syslog.NormalizeLimit(limit))
}

// ListByModule returns the newest entries of a module.
func (h *ListHandler) ListByModule(ctx context.Context, module string, limit int) ([]*syslog.Entry, error) {
	return h.repo.ListByModule(ctx, strings.TrimSpace(module), syslog.NormalizeLimit(limit))
}

// ListByRequest returns every entry of a request in chronological order.
func (h *ListHandler) ListByRequest(ctx context.Context, requestID string) ([]*syslog.Entry, error) {
	return h.repo.ListByRequest(ctx, strings.TrimSpace(requestID))
}
