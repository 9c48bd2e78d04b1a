package syslog

import (
	"context"

	"github.com/chiragkoyande/audit-project/internal/domain/syslog"
)

// WriteCommand represents the write system log command.
type WriteCommand struct {
	Level          string
	Module         string
	Message        string
	StackTrace     string
	RequestID      string
	AdditionalData map[string]interface{}
}

// WriteHandler handles the WriteSystemLog command.
type WriteHandler struct {
	repo syslog.Repository
}

// NewWriteHandler creates a new WriteHandler.
func NewWriteHandler(repo syslog.Repository) *WriteHandler {
	return &WriteHandler{repo: repo}
}

// Handle executes the write system log command. An explicit request id wins
// over the one carried by the context.
func (h *WriteHandler) Handle(ctx context.Context, cmd WriteCommand) (*syslog.Entry, error) {
	entry, err := syslog.NewEntry(cmd.Level, cmd.Module, cmd.Message)
	if err != nil {
		return nil, err
	}
	if cmd.StackTrace != "" {
		entry.WithStackTrace(cmd.StackTrace)
	}
	if cmd.AdditionalData != nil {
		entry.WithData(cmd.AdditionalData)
	}
	if cmd.RequestID != "" {
		if err := entry.WithRequestID(cmd.RequestID); err != nil {
			return nil, err
		}
	}

	return NewWriter(h.repo).store(ctx, entry)
}
