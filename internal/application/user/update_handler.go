package user

import (
	"context"

	"github.com/google/uuid"

	"github.com/chiragkoyande/audit-project/internal/domain/auditlog"
	"github.com/chiragkoyande/audit-project/internal/domain/shared"
	"github.com/chiragkoyande/audit-project/internal/domain/user"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/password"
)

// UpdateCommand represents the update user command. Nil fields are left unchanged.
type UpdateCommand struct {
	ID       uuid.UUID
	FullName *string
	Role     *string
	IsActive *bool
	Password *string
}

// UpdateHandler handles the UpdateUser command.
type UpdateHandler struct {
	repo    user.Repository
	auditor auditlog.Recorder
}

// NewUpdateHandler creates a new UpdateHandler.
func NewUpdateHandler(repo user.Repository, auditor auditlog.Recorder) *UpdateHandler {
	return &UpdateHandler{repo: repo, auditor: auditor}
}

// Handle executes the update user command.
func (h *UpdateHandler) Handle(ctx context.Context, cmd UpdateCommand) (*user.User, error) {
	entity, err := h.repo.GetByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	before := entity.ToMap()

	if cmd.FullName != nil {
		if err := entity.UpdateProfile(*cmd.FullName); err != nil {
			return nil, err
		}
	}
	if cmd.Role != nil {
		role, err := user.ParseRole(*cmd.Role)
		if err != nil {
			return nil, err
		}
		if err := entity.ChangeRole(role); err != nil {
			return nil, err
		}
	}
	if cmd.IsActive != nil && *cmd.IsActive != entity.IsActive() {
		if *cmd.IsActive {
			entity.Activate()
		} else if err := entity.Deactivate(); err != nil {
			return nil, err
		}
	}
	if cmd.Password != nil {
		if err := password.Validate(*cmd.Password, password.DefaultPolicy()); err != nil {
			return nil, shared.NewValidationError("password", err.Error())
		}
		hash, err := password.Hash(*cmd.Password)
		if err != nil {
			return nil, err
		}
		entity.SetPasswordHash(hash)
	}

	if err := h.repo.Update(ctx, entity); err != nil {
		return nil, err
	}

	action := auditlog.ActionUpdate
	if cmd.Role != nil && before["role"] != string(entity.Role()) {
		action = auditlog.ActionPermissionChange
	}
	changes := auditlog.ComputeChanges(before, entity.ToMap())
	if cmd.Password != nil {
		changes["password"] = map[string]interface{}{"old": "***", "new": "***"}
	}
	record(ctx, h.auditor, auditlog.Params{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   entity.ID().String(),
		Description:  "Updated user " + entity.Email(),
		Changes:      changes,
	})

	return entity, nil
}
