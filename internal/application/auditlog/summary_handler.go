package auditlog

import (
	"context"

	"github.com/chiragkoyande/audit-project/internal/domain/auditlog"
	"github.com/chiragkoyande/audit-project/internal/domain/shared"
)

// SummaryQuery represents the audit summary query.
type SummaryQuery struct {
	TimeRange string
}

// SummaryHandler handles the GetAuditSummary query.
type SummaryHandler struct {
	repo auditlog.Repository
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(repo auditlog.Repository) *SummaryHandler {
	return &SummaryHandler{repo: repo}
}

// Handle executes the audit summary query.
func (h *SummaryHandler) Handle(ctx context.Context, query SummaryQuery) (*auditlog.Summary, error) {
	tr := query.TimeRange
	switch tr {
	case "":
		tr = "24h"
	case "24h", "7d", "30d":
	default:
		return nil, shared.NewValidationError("time_range", "must be one of 24h, 7d, 30d")
	}
	return h.repo.GetSummary(ctx, tr)
}
