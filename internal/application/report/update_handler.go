package report

import (
	"context"

	"github.com/google/uuid"

	"github.com/chiragkoyande/audit-project/internal/domain/auditlog"
	"github.com/chiragkoyande/audit-project/internal/domain/report"
)

// UpdateCommand represents the update report command. Nil fields are left
// unchanged. Content edits are applied before the status transition.
type UpdateCommand struct {
	ID       uuid.UUID
	Title    *string
	Content  *string
	Metadata map[string]interface{}
	Status   *string
}

// UpdateHandler handles the UpdateReport command.
type UpdateHandler struct {
	repo    report.Repository
	auditor auditlog.Recorder
}

// NewUpdateHandler creates a new UpdateHandler.
func NewUpdateHandler(repo report.Repository, auditor auditlog.Recorder) *UpdateHandler {
	return &UpdateHandler{repo: repo, auditor: auditor}
}

// Handle executes the update report command.
func (h *UpdateHandler) Handle(ctx context.Context, cmd UpdateCommand) (*report.Report, error) {
	entity, err := h.repo.GetByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	before := snapshot(entity)

	if cmd.Title != nil || cmd.Content != nil || cmd.Metadata != nil {
		if err := entity.Update(cmd.Title, cmd.Content, cmd.Metadata); err != nil {
			return nil, err
		}
	}
	if cmd.Status != nil {
		status, err := report.ParseStatus(*cmd.Status)
		if err != nil {
			return nil, err
		}
		if err := entity.TransitionTo(status); err != nil {
			return nil, err
		}
	}

	if err := h.repo.Update(ctx, entity); err != nil {
		return nil, err
	}

	record(ctx, h.auditor, auditlog.Params{
		Action:       auditlog.ActionUpdate,
		ResourceType: resourceType,
		ResourceID:   entity.ID().String(),
		Description:  "Updated report " + entity.Title(),
		Changes:      auditlog.ComputeChanges(before, snapshot(entity)),
	})

	return entity, nil
}

// snapshot holds the audited fields. Content is summarized by length.
func snapshot(r *report.Report) map[string]interface{} {
	return map[string]interface{}{
		"title":          r.Title(),
		"status":         string(r.Status()),
		"metadata":       r.Metadata(),
		"content_length": len(r.Content()),
	}
}
