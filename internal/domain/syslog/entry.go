// Package syslog provides domain logic for structured system log entries
// persisted alongside the audit trail.
package syslog

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Domain-specific errors for syslog package.
var (
	ErrInvalidLevel     = errors.New("level must be one of DEBUG, INFO, WARNING, ERROR, CRITICAL")
	ErrEmptyModule      = errors.New("module cannot be empty")
	ErrModuleTooLong    = errors.New("module exceeds 100 characters")
	ErrEmptyMessage     = errors.New("message cannot be empty")
	ErrRequestIDTooLong = errors.New("request id exceeds 50 characters")
	ErrInvalidRetention = errors.New("retention must be at least one day")
)

const (
	maxModuleLength    = 100
	maxRequestIDLength = 50

	// DefaultLimit bounds level and module queries when no limit is given.
	DefaultLimit = 100
	maxLimit     = 1000
)

// Level is the severity of a system log entry. Stored upper-cased.
type Level string

// Supported levels.
const (
	LevelDebug    Level = "DEBUG"
	LevelInfo     Level = "INFO"
	LevelWarning  Level = "WARNING"
	LevelError    Level = "ERROR"
	LevelCritical Level = "CRITICAL"
)

// ParseLevel accepts any casing and "warn" as an alias for WARNING.
func ParseLevel(s string) (Level, error) {
	switch up := Level(strings.ToUpper(strings.TrimSpace(s))); up {
	case LevelDebug, LevelInfo, LevelWarning, LevelError, LevelCritical:
		return up, nil
	case "WARN":
		return LevelWarning, nil
	default:
		return "", ErrInvalidLevel
	}
}

// Entry is a single system log record.
type Entry struct {
	id             uuid.UUID
	timestamp      time.Time
	level          Level
	module         string
	message        string
	stackTrace     string
	requestID      string
	additionalData map[string]interface{}
}

// NewEntry validates and creates a new Entry stamped with the current time.
func NewEntry(level, module, message string) (*Entry, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	module = strings.TrimSpace(module)
	if module == "" {
		return nil, ErrEmptyModule
	}
	if len(module) > maxModuleLength {
		return nil, ErrModuleTooLong
	}
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	return &Entry{
		id:        uuid.New(),
		timestamp: time.Now().UTC().Truncate(time.Microsecond),
		level:     lvl,
		module:    module,
		message:   message,
	}, nil
}

// ReconstructEntry reconstructs an Entry from persistence.
func ReconstructEntry(
	id uuid.UUID,
	timestamp time.Time,
	level Level,
	module, message, stackTrace, requestID string,
	additionalData map[string]interface{},
) *Entry {
	return &Entry{
		id:             id,
		timestamp:      timestamp.UTC(),
		level:          level,
		module:         module,
		message:        message,
		stackTrace:     stackTrace,
		requestID:      requestID,
		additionalData: additionalData,
	}
}

// WithStackTrace attaches a stack trace or error text.
func (e *Entry) WithStackTrace(trace string) *Entry {
	e.stackTrace = trace
	return e
}

// WithRequestID correlates the entry with an HTTP request.
func (e *Entry) WithRequestID(requestID string) error {
	if len(requestID) > maxRequestIDLength {
		return ErrRequestIDTooLong
	}
	e.requestID = requestID
	return nil
}

// WithData attaches structured context.
func (e *Entry) WithData(data map[string]interface{}) *Entry {
	e.additionalData = data
	return e
}

// ID returns the entry identifier.
func (e *Entry) ID() uuid.UUID { return e.id }

// Timestamp returns when the entry was written.
func (e *Entry) Timestamp() time.Time { return e.timestamp }

// Level returns the severity.
func (e *Entry) Level() Level { return e.level }

// Module returns the emitting module.
func (e *Entry) Module() string { return e.module }

// Message returns the log message.
func (e *Entry) Message() string { return e.message }

// StackTrace returns the attached stack trace.
func (e *Entry) StackTrace() string { return e.stackTrace }

// RequestID returns the correlated request identifier.
func (e *Entry) RequestID() string { return e.requestID }

// AdditionalData returns the structured context.
func (e *Entry) AdditionalData() map[string]interface{} { return e.additionalData }

// ToMap returns the dictionary form exposed to API clients.
func (e *Entry) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"id":              e.id.String(),
		"timestamp":       e.timestamp.Format(time.RFC3339Nano),
		"level":           string(e.level),
		"module":          e.module,
		"message":         e.message,
		"stack_trace":     e.stackTrace,
		"request_id":      e.requestID,
		"additional_data": e.additionalData,
	}
}

// NormalizeLimit applies the default and upper bound to a query limit.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
