// Package auditlog provides application layer handlers for the audit trail.
package auditlog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/chiragkoyande/audit-project/internal/domain/auditlog"
	"github.com/chiragkoyande/audit-project/internal/domain/notification"
	"github.com/chiragkoyande/audit-project/internal/domain/shared"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/config"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/metrics"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/tracing"
)

const mirrorTimeout = 5 * time.Second

// AlertSender raises audit alerts.
type AlertSender interface {
	SendAuditAlert(ctx context.Context, alert notification.AlertData, recipients []string, async bool) (*notification.Notification, error)
}

// RecordCommand represents the record audit log command. When Changes is
// empty and old or new values are given, the diff between them is stored.
type RecordCommand struct {
	UserID       *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   string
	Description  string
	Changes      map[string]interface{}
	OldValues    map[string]interface{}
	NewValues    map[string]interface{}
	IPAddress    string
	UserAgent    string
	Status       string
}

// RecordHandler handles the RecordAuditLog command and implements auditlog.Recorder.
type RecordHandler struct {
	repo   auditlog.Repository
	mirror auditlog.Mirror
	alerts AlertSender
	cfg    config.AuditConfig
}

var _ auditlog.Recorder = (*RecordHandler)(nil)

// NewRecordHandler creates a new RecordHandler. mirror and alerts may be nil.
func NewRecordHandler(repo auditlog.Repository, mirror auditlog.Mirror, alerts AlertSender, cfg config.AuditConfig) *RecordHandler {
	return &RecordHandler{repo: repo, mirror: mirror, alerts: alerts, cfg: cfg}
}

// Handle executes the record audit log command.
func (h *RecordHandler) Handle(ctx context.Context, cmd RecordCommand) (*auditlog.AuditLog, error) {
	status, err := auditlog.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}

	changes := cmd.Changes
	if len(changes) == 0 && (cmd.OldValues != nil || cmd.NewValues != nil) {
		changes = auditlog.ComputeChanges(cmd.OldValues, cmd.NewValues)
	}

	return h.Record(ctx, auditlog.Params{
		UserID:       cmd.UserID,
		Action:       cmd.Action,
		ResourceType: cmd.ResourceType,
		ResourceID:   cmd.ResourceID,
		Description:  cmd.Description,
		Changes:      changes,
		IPAddress:    cmd.IPAddress,
		UserAgent:    cmd.UserAgent,
		Status:       status,
	})
}

// Record stores an audit log, mirrors it and raises an alert for failed
// sensitive actions. Mirror and alert failures are logged only.
func (h *RecordHandler) Record(ctx context.Context, p auditlog.Params) (*auditlog.AuditLog, error) {
	ctx, span := tracing.StartSpan(ctx, "auditlog.Record")
	defer span.End()

	fillFromContext(ctx, &p)

	entry, err := auditlog.NewAuditLog(p)
	if err != nil {
		return nil, err
	}

	if err := h.repo.Create(ctx, entry); err != nil {
		tracing.SetError(ctx, err)
		return nil, err
	}
	metrics.RecordAuditLog(entry.Action(), string(entry.Status()))

	h.mirrorLog(ctx, entry)
	h.alert(ctx, entry)

	return entry, nil
}

func (h *RecordHandler) mirrorLog(ctx context.Context, entry *auditlog.AuditLog) {
	if h.mirror == nil || !h.mirror.Enabled() {
		return
	}
	mctx, cancel := context.WithTimeout(ctx, mirrorTimeout)
	defer cancel()

	if err := h.mirror.Insert(mctx, entry); err != nil {
		metrics.RecordMirrorWrite(false)
		log.Warn().Err(err).Str("audit_log_id", entry.ID().String()).Msg("Failed to mirror audit log")
		return
	}
	metrics.RecordMirrorWrite(true)
}

func (h *RecordHandler) alert(ctx context.Context, entry *auditlog.AuditLog) {
	if h.alerts == nil || !h.cfg.AlertsEnabled || len(h.cfg.AlertRecipients) == 0 || !entry.IsSensitiveFailure() {
		return
	}

	alert := notification.AlertData{
		Title:       "Failed " + entry.Action() + " on " + entry.ResourceType(),
		Type:        entry.Action(),
		Severity:    "High",
		Description: alertDescription(entry),
	}
	if _, err := h.alerts.SendAuditAlert(ctx, alert, h.cfg.AlertRecipients, true); err != nil {
		log.Warn().Err(err).Str("audit_log_id", entry.ID().String()).Msg("Failed to raise audit alert")
	}
}

func alertDescription(entry *auditlog.AuditLog) string {
	d := entry.Description()
	if d == "" {
		d = "No description provided"
	}
	actor := "system"
	if id := entry.UserID(); id != nil {
		actor = id.String()
	}
	s := d + " (user " + actor
	if entry.ResourceID() != "" {
		s += ", resource " + entry.ResourceID()
	}
	if entry.IPAddress() != "" {
		s += ", ip " + entry.IPAddress()
	}
	return s + ")"
}

// fillFromContext completes actor and client fields the caller left empty.
func fillFromContext(ctx context.Context, p *auditlog.Params) {
	if p.UserID == nil {
		if actor, ok := shared.ActorFrom(ctx); ok && actor.UserID != uuid.Nil {
			id := actor.UserID
			p.UserID = &id
		}
	}
	if p.IPAddress == "" {
		p.IPAddress = shared.IPAddress(ctx)
	}
	if p.UserAgent == "" {
		p.UserAgent = shared.UserAgent(ctx)
	}
}
