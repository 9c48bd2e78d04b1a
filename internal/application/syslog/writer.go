// Package syslog provides application layer handlers for system logs.
package syslog

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/chiragkoyande/audit-project/internal/domain/shared"
	"github.com/chiragkoyande/audit-project/internal/domain/syslog"
)

// Option customizes an entry before it is stored.
type Option func(*syslog.Entry)

// WithData attaches structured context to the entry.
func WithData(data map[string]interface{}) Option {
	return func(e *syslog.Entry) { e.WithData(data) }
}

// WithStackTrace attaches a stack trace to the entry.
func WithStackTrace(trace string) Option {
	return func(e *syslog.Entry) { e.WithStackTrace(trace) }
}

// Writer persists system log entries. The request id is taken from the context.
type Writer struct {
	repo syslog.Repository
}

// NewWriter creates a new Writer.
func NewWriter(repo syslog.Repository) *Writer {
	return &Writer{repo: repo}
}

// Log validates and stores an entry.
func (w *Writer) Log(ctx context.Context, level, module, message string, opts ...Option) (*syslog.Entry, error) {
	entry, err := syslog.NewEntry(level, module, message)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(entry)
	}
	return w.store(ctx, entry)
}

func (w *Writer) store(ctx context.Context, entry *syslog.Entry) (*syslog.Entry, error) {
	if rid := shared.RequestID(ctx); rid != "" && entry.RequestID() == "" {
		if err := entry.WithRequestID(rid); err != nil {
			log.Debug().Str("request_id", rid).Msg("Request id too long for system log, dropped")
		}
	}

	if err := w.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Debug stores a DEBUG entry.
func (w *Writer) Debug(ctx context.Context, module, message string, opts ...Option) (*syslog.Entry, error) {
	return w.Log(ctx, string(syslog.LevelDebug), module, message, opts...)
}

// Info stores an INFO entry.
func (w *Writer) Info(ctx context.Context, module, message string, opts ...Option) (*syslog.Entry, error) {
	return w.Log(ctx, string(syslog.LevelInfo), module, message, opts...)
}

// Warning stores a WARNING entry.
func (w *Writer) Warning(ctx context.Context, module, message string, opts ...Option) (*syslog.Entry, error) {
	return w.Log(ctx, string(syslog.LevelWarning), module, message, opts...)
}

// Error stores an ERROR entry. The error text becomes the stack trace.
func (w *Writer) Error(ctx context.Context, module, message string, cause error, opts ...Option) (*syslog.Entry, error) {
	return w.Log(ctx, string(syslog.LevelError), module, message, withCause(cause, opts)...)
}

// Critical stores a CRITICAL entry. The error text becomes the stack trace.
func (w *Writer) Critical(ctx context.Context, module, message string, cause error, opts ...Option) (*syslog.Entry, error) {
	return w.Log(ctx, string(syslog.LevelCritical), module, message, withCause(cause, opts)...)
}

func withCause(cause error, opts []Option) []Option {
	if cause == nil {
		return opts
	}
	return append([]Option{WithStackTrace(cause.Error())}, opts...)
}
