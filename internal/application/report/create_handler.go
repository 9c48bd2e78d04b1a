// Package report provides application layer handlers for report operations.
package report

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/chiragkoyande/audit-project/internal/domain/auditlog"
	"github.com/chiragkoyande/audit-project/internal/domain/report"
	"github.com/chiragkoyande/audit-project/internal/domain/shared"
)

const resourceType = "report"

// CreateCommand represents the create report command. When UserID is nil the
// authenticated actor owns the report.
type CreateCommand struct {
	Title    string
	Content  string
	UserID   *uuid.UUID
	Metadata map[string]interface{}
}

// CreateHandler handles the CreateReport command.
type CreateHandler struct {
	repo    report.Repository
	auditor auditlog.Recorder
}

// NewCreateHandler creates a new CreateHandler.
func NewCreateHandler(repo report.Repository, auditor auditlog.Recorder) *CreateHandler {
	return &CreateHandler{repo: repo, auditor: auditor}
}

// Handle executes the create report command.
func (h *CreateHandler) Handle(ctx context.Context, cmd CreateCommand) (*report.Report, error) {
	owner := uuid.Nil
	if cmd.UserID != nil {
		owner = *cmd.UserID
	} else if actor, ok := shared.ActorFrom(ctx); ok {
		owner = actor.UserID
	}

	entity, err := report.NewReport(cmd.Title, cmd.Content, owner, cmd.Metadata)
	if err != nil {
		return nil, err
	}

	if err := h.repo.Create(ctx, entity); err != nil {
		return nil, err
	}

	record(ctx, h.auditor, auditlog.Params{
		Action:       auditlog.ActionCreate,
		ResourceType: resourceType,
		ResourceID:   entity.ID().String(),
		Description:  "Created report " + entity.Title(),
		Changes: map[string]interface{}{
			"title":  map[string]interface{}{"old": nil, "new": entity.Title()},
			"status": map[string]interface{}{"old": nil, "new": string(entity.Status())},
		},
	})

	return entity, nil
}

func record(ctx context.Context, auditor auditlog.Recorder, p auditlog.Params) {
	if auditor == nil {
		return
	}
	if _, err := auditor.Record(ctx, p); err != nil {
		log.Warn().Err(err).Str("action", p.Action).Str("resource_id", p.ResourceID).Msg("Failed to record audit event")
	}
}
