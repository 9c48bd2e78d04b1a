package report

import (
	"context"

	"github.com/google/uuid"

	"github.com/chiragkoyande/audit-project/internal/domain/report"
)

// GetQuery represents the get report query.
type GetQuery struct {
	ID uuid.UUID
}

// GetHandler handles the GetReport query.
type GetHandler struct {
	repo report.Repository
}

// NewGetHandler creates a new GetHandler.
func NewGetHandler(repo report.Repository) *GetHandler {
	return &GetHandler{repo: repo}
}

// Handle executes the get report query.
func (h *GetHandler) Handle(ctx context.Context, query GetQuery) (*report.Report, error) {
	return h.repo.GetByID(ctx, query.ID)
}
