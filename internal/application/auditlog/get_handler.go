package auditlog

import (
	"context"

	"github.com/google/uuid"

	"github.com/chiragkoyande/audit-project/internal/domain/auditlog"
)

// GetQuery represents the get audit log query.
type GetQuery struct {
	ID uuid.UUID
}

// GetHandler handles the GetAuditLog query.
type GetHandler struct {
	repo auditlog.Repository
}

// NewGetHandler creates a new GetHandler.
func NewGetHandler(repo auditlog.Repository) *GetHandler {
	return &GetHandler{repo: repo}
}

// Handle executes the get audit log query.
func (h *GetHandler) Handle(ctx context.Context, query GetQuery) (*auditlog.AuditLog, error) {
	return h.repo.GetByID(ctx, query.ID)
}
