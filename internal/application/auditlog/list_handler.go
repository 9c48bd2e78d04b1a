package auditlog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/chiragkoyande/audit-project/internal/domain/auditlog"
	"github.com/chiragkoyande/audit-project/internal/domain/shared"
)

// ListQuery represents the list audit logs query.
type ListQuery struct {
	Page         int
	PageSize     int
	Search       string
	UserID       *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   string
	Status       string
	DateFrom     *time.Time
	DateTo       *time.Time
	SortBy       string
	SortOrder    string
}

// ListResult represents the list audit logs result.
type ListResult struct {
	Logs        []*auditlog.AuditLog
	TotalItems  int64
	TotalPages  int32
	CurrentPage int32
	PageSize    int32
}

// ListHandler handles the ListAuditLogs query.
type ListHandler struct {
	repo auditlog.Repository
}

// NewListHandler creates a new ListHandler.
func NewListHandler(repo auditlog.Repository) *ListHandler {
	return &ListHandler{repo: repo}
}

// Handle executes the list audit logs query.
func (h *ListHandler) Handle(ctx context.Context, query ListQuery) (*ListResult, error) {
	params, err := query.params()
	if err != nil {
		return nil, err
	}

	logs, total, err := h.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	totalPages := int32(total) / int32(params.PageSize)
	if int32(total)%int32(params.PageSize) > 0 {
		totalPages++
	}

	return &ListResult{
		Logs:        logs,
		TotalItems:  total,
		TotalPages:  totalPages,
		CurrentPage: int32(params.Page),
		PageSize:    int32(params.PageSize),
	}, nil
}

func (q ListQuery) params() (auditlog.ListParams, error) {
	page, pageSize := shared.NormalizePage(q.Page, q.PageSize)

	var status auditlog.Status
	if q.Status != "" {
		s, err := auditlog.ParseStatus(q.Status)
		if err != nil {
			return auditlog.ListParams{}, err
		}
		status = s
	}
	if q.DateFrom != nil && q.DateTo != nil && q.DateTo.Before(*q.DateFrom) {
		return auditlog.ListParams{}, shared.NewValidationError("date_to", "must not be before date_from")
	}

	return auditlog.ListParams{
		Page:         page,
		PageSize:     pageSize,
		Search:       q.Search,
		UserID:       q.UserID,
		Action:       q.Action,
		ResourceType: q.ResourceType,
		ResourceID:   q.ResourceID,
		Status:       status,
		DateFrom:     q.DateFrom,
		DateTo:       q.DateTo,
		SortBy:       q.SortBy,
		SortOrder:    q.SortOrder,
	}, nil
}
