package auditlog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for audit log persistence operations.
type Repository interface {
	// Create sequences, hashes and stores the log atomically.
	Create(ctx context.Context, log *AuditLog) error

	GetByID(ctx context.Context, id uuid.UUID) (*AuditLog, error)

	List(ctx context.Context, params ListParams) ([]*AuditLog, int64, error)

	// GetSummary aggregates logs for a time range: "24h", "7d" or "30d".
	GetSummary(ctx context.Context, timeRange string) (*Summary, error)

	// ListRange returns up to limit logs with seq > afterSeq in seq order.
	ListRange(ctx context.Context, afterSeq int64, limit int) ([]*AuditLog, error)
}

// Mirror receives a copy of every recorded audit log in a secondary store.
// Failures are reported but never undo the primary write.
type Mirror interface {
	Insert(ctx context.Context, log *AuditLog) error
	Enabled() bool
}

// ListParams contains parameters for listing audit logs.
type ListParams struct {
	Page         int
	PageSize     int
	Search       string
	UserID       *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   string
	Status       Status
	DateFrom     *time.Time
	DateTo       *time.Time
	SortBy       string
	SortOrder    string
}

// Summary contains audit statistics for a time window.
type Summary struct {
	TimeRange    string
	TotalEvents  int64
	SuccessCount int64
	FailureCount int64
	ByAction     []ActionCount
	TopUsers     []UserActivity
	EventsByHour []HourlyCount
}

// ActionCount is the number of logs for an action.
type ActionCount struct {
	Action string
	Count  int64
}

// UserActivity represents activity count for a user.
type UserActivity struct {
	UserID     uuid.UUID
	Email      string
	FullName   string
	EventCount int64
}

// HourlyCount represents event count by hour of day.
type HourlyCount struct {
	Hour  int
	Count int64
}

// Recorder appends audit events on behalf of other use cases. Actor and
// request metadata missing from params are taken from the context.
type Recorder interface {
	Record(ctx context.Context, params Params) (*AuditLog, error)
}
