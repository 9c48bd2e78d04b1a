package user

import (
	"context"

	"github.com/google/uuid"

	"github.com/chiragkoyande/audit-project/internal/domain/auditlog"
	"github.com/chiragkoyande/audit-project/internal/domain/user"
)

// DeactivateCommand represents the deactivate user command.
type DeactivateCommand struct {
	ID uuid.UUID
}

// DeactivateHandler handles the DeactivateUser command. Users are never hard
// deleted because audit logs reference them.
type DeactivateHandler struct {
	repo    user.Repository
	auditor auditlog.Recorder
}

// NewDeactivateHandler creates a new DeactivateHandler.
func NewDeactivateHandler(repo user.Repository, auditor auditlog.Recorder) *DeactivateHandler {
	return &DeactivateHandler{repo: repo, auditor: auditor}
}

// Handle executes the deactivate user command.
func (h *DeactivateHandler) Handle(ctx context.Context, cmd DeactivateCommand) (*user.User, error) {
	entity, err := h.repo.GetByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}

	if err := entity.Deactivate(); err != nil {
		return nil, err
	}

	if err := h.repo.Update(ctx, entity); err != nil {
		return nil, err
	}

	record(ctx, h.auditor, auditlog.Params{
		Action:       auditlog.ActionDelete,
		ResourceType: resourceType,
		ResourceID:   entity.ID().String(),
		Description:  "Deactivated user " + entity.Email(),
		Changes: map[string]interface{}{
			"is_active": map[string]interface{}{"old": true, "new": false},
		},
	})

	return entity, nil
}
