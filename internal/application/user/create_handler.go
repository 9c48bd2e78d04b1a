// Package user provides application layer handlers for user operations.
package user

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/chiragkoyande/audit-project/internal/domain/auditlog"
	"github.com/chiragkoyande/audit-project/internal/domain/shared"
	"github.com/chiragkoyande/audit-project/internal/domain/user"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/password"
)

const resourceType = "user"

// CreateCommand represents the create user command.
type CreateCommand struct {
	Email    string
	FullName string
	Role     string
	Password string
}

// CreateHandler handles the CreateUser command.
type CreateHandler struct {
	repo    user.Repository
	auditor auditlog.Recorder
}

// NewCreateHandler creates a new CreateHandler.
func NewCreateHandler(repo user.Repository, auditor auditlog.Recorder) *CreateHandler {
	return &CreateHandler{repo: repo, auditor: auditor}
}

// Handle executes the create user command.
func (h *CreateHandler) Handle(ctx context.Context, cmd CreateCommand) (*user.User, error) {
	role, err := user.ParseRole(cmd.Role)
	if err != nil {
		return nil, err
	}

	entity, err := user.NewUser(cmd.Email, cmd.FullName, role)
	if err != nil {
		return nil, err
	}

	if cmd.Password != "" {
		if err := password.Validate(cmd.Password, password.DefaultPolicy()); err != nil {
			return nil, shared.NewValidationError("password", err.Error())
		}
		hash, err := password.Hash(cmd.Password)
		if err != nil {
			return nil, err
		}
		entity.SetPasswordHash(hash)
	}

	exists, err := h.repo.ExistsByEmail(ctx, entity.Email())
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.ErrAlreadyExists
	}

	if err := h.repo.Create(ctx, entity); err != nil {
		return nil, err
	}

	record(ctx, h.auditor, auditlog.Params{
		Action:       auditlog.ActionCreate,
		ResourceType: resourceType,
		ResourceID:   entity.ID().String(),
		Description:  "Created user " + entity.Email(),
		Changes:      auditlog.ComputeChanges(nil, entity.ToMap()),
	})

	return entity, nil
}

// record writes an audit event without failing the calling use case.
func record(ctx context.Context, auditor auditlog.Recorder, p auditlog.Params) {
	if auditor == nil {
		return
	}
	if _, err := auditor.Record(ctx, p); err != nil {
		log.Warn().Err(err).Str("action", p.Action).Str("resource_id", p.ResourceID).Msg("Failed to record audit event")
	}
}
