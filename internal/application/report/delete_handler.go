package report

import (
	"context"

	"github.com/google/uuid"

	"github.com/chiragkoyande/audit-project/internal/domain/auditlog"
	"github.com/chiragkoyande/audit-project/internal/domain/report"
)

// DeleteCommand represents the delete report command.
type DeleteCommand struct {
	ID uuid.UUID
}

// DeleteHandler handles the DeleteReport command.
type DeleteHandler struct {
	repo    report.Repository
	auditor auditlog.Recorder
}

// NewDeleteHandler creates a new DeleteHandler.
func NewDeleteHandler(repo report.Repository, auditor auditlog.Recorder) *DeleteHandler {
	return &DeleteHandler{repo: repo, auditor: auditor}
}

// Handle executes the delete report command.
func (h *DeleteHandler) Handle(ctx context.Context, cmd DeleteCommand) error {
	entity, err := h.repo.GetByID(ctx, cmd.ID)
	if err != nil {
		return err
	}

	if err := h.repo.Delete(ctx, cmd.ID); err != nil {
		return err
	}

	record(ctx, h.auditor, auditlog.Params{
		Action:       auditlog.ActionDelete,
		ResourceType: resourceType,
		ResourceID:   cmd.ID.String(),
		Description:  "Deleted report " + entity.Title(),
		Changes:      auditlog.ComputeChanges(snapshot(entity), nil),
	})

	return nil
}
