package syslog

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/chiragkoyande/audit-project/internal/domain/syslog"
)

// PurgeCommand represents the purge system logs command.
type PurgeCommand struct {
	OlderThanDays int
}

// PurgeResult represents the purge system logs result.
type PurgeResult struct {
	Deleted int64     `json:"deleted"`
	Cutoff  time.Time `json:"cutoff"`
}

// PurgeHandler handles the PurgeSystemLogs command.
type PurgeHandler struct {
	repo syslog.Repository
	now  func() time.Time
}

// NewPurgeHandler creates a new PurgeHandler.
func NewPurgeHandler(repo syslog.Repository) *PurgeHandler {
	return &PurgeHandler{repo: repo, now: time.Now}
}

// Handle deletes entries older than the retention window.
func (h *PurgeHandler) Handle(ctx context.Context, cmd PurgeCommand) (*PurgeResult, error) {
	if cmd.OlderThanDays < 1 {
		return nil, syslog.ErrInvalidRetention
	}
	cutoff := h.now().UTC().AddDate(0, 0, -cmd.OlderThanDays)

	deleted, err := h.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("System logs purged")
	return &PurgeResult{Deleted: deleted, Cutoff: cutoff}, nil
}
