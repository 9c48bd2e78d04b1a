package user

import (
	"context"

	"github.com/google/uuid"

	"github.com/chiragkoyande/audit-project/internal/domain/user"
)

// GetQuery represents the get user query.
type GetQuery struct {
	ID uuid.UUID
}

// GetHandler handles the GetUser query.
type GetHandler struct {
	repo user.Repository
}

// NewGetHandler creates a new GetHandler.
func NewGetHandler(repo user.Repository) *GetHandler {
	return &GetHandler{repo: repo}
}

// Handle executes the get user query.
func (h *GetHandler) Handle(ctx context.Context, query GetQuery) (*user.User, error) {
	return h.repo.GetByID(ctx, query.ID)
}
