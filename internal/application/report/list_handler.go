package report

import (
	"context"

	"github.com/google/uuid"

	"github.com/chiragkoyande/audit-project/internal/domain/report"
	"github.com/chiragkoyande/audit-project/internal/domain/shared"
)

// ListQuery represents the list reports query.
type ListQuery struct {
	Page      int
	PageSize  int
	Search    string
	UserID    *uuid.UUID
	Status    string
	SortBy    string
	SortOrder string
}

// ListResult represents the list reports result.
type ListResult struct {
	Reports     []*report.Report
	TotalItems  int64
	TotalPages  int32
	CurrentPage int32
	PageSize    int32
}

// ListHandler handles the ListReports query.
type ListHandler struct {
	repo report.Repository
}

// NewListHandler creates a new ListHandler.
func NewListHandler(repo report.Repository) *ListHandler {
	return &ListHandler{repo: repo}
}

// Handle executes the list reports query.
func (h *ListHandler) Handle(ctx context.Context, query ListQuery) (*ListResult, error) {
	page, pageSize := shared.NormalizePage(query.Page, query.PageSize)

	var status report.Status
	if query.Status != "" {
		s, err := report.ParseStatus(query.Status)
		if err != nil {
			return nil, err
		}
		status = s
	}

	reports, total, err := h.repo.List(ctx, report.ListParams{
		Page:      page,
		PageSize:  pageSize,
		Search:    query.Search,
		UserID:    query.UserID,
		Status:    status,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	})
	if err != nil {
		return nil, err
	}

	totalPages := int32(total) / int32(pageSize)
	if int32(total)%int32(pageSize) > 0 {
		totalPages++
	}

	return &ListResult{
		Reports:     reports,
		TotalItems:  total,
		TotalPages:  totalPages,
		CurrentPage: int32(page),
		PageSize:    int32(pageSize),
	}, nil
}
