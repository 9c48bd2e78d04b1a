// Package auditlog provides domain logic for the application audit trail:
// who did what to which resource, when, and with what outcome.
package auditlog

import (
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Domain-specific errors for auditlog package.
var (
	ErrEmptyAction          = errors.New("action cannot be empty")
	ErrActionTooLong        = errors.New("action exceeds 50 characters")
	ErrEmptyResourceType    = errors.New("resource type cannot be empty")
	ErrResourceTypeTooLong  = errors.New("resource type exceeds 50 characters")
	ErrResourceIDTooLong    = errors.New("resource id exceeds 50 characters")
	ErrInvalidIPAddress     = errors.New("ip address is not a valid IPv4 or IPv6 address")
	ErrInvalidStatus        = errors.New("status must be success or failure")
	ErrChangesNotSerialized = errors.New("changes must be a JSON object")
)

const (
	maxActionLength       = 50
	maxResourceTypeLength = 50
	maxResourceIDLength   = 50
	maxIPAddressLength    = 45
)

// Status is the outcome of an audited action.
type Status string

// Audit outcome values.
const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// ParseStatus validates a status name. Empty input yields success.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case "", StatusSuccess:
		return StatusSuccess, nil
	case StatusFailure:
		return StatusFailure, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Well-known actions. Callers may record any action name.
const (
	ActionCreate           = "create"
	ActionUpdate           = "update"
	ActionDelete           = "delete"
	ActionLogin            = "login"
	ActionLoginFailed      = "login_failed"
	ActionLogout           = "logout"
	ActionExport           = "export"
	ActionPermissionChange = "permission_change"
)

// sensitiveActions trigger alerts when they fail.
var sensitiveActions = map[string]bool{
	ActionDelete:           true,
	ActionLoginFailed:      true,
	ActionPermissionChange: true,
}

// Params carries the caller-supplied fields of a new audit log.
type Params struct {
	UserID       *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   string
	Description  string
	Changes      map[string]interface{}
	IPAddress    string
	UserAgent    string
	Status       Status
	Timestamp    time.Time
}

// AuditLog is a single persisted audit record.
type AuditLog struct {
	id           uuid.UUID
	seq          int64
	timestamp    time.Time
	userID       *uuid.UUID
	action       string
	resourceType string
	resourceID   string
	description  string
	changes      map[string]interface{}
	ipAddress    string
	userAgent    string
	status       Status
	prevHash     string
	hash         string
}

// NewAuditLog validates params and creates an unsequenced audit log.
// Timestamps are truncated to microseconds to match PostgreSQL precision.
func NewAuditLog(p Params) (*AuditLog, error) {
	action := strings.TrimSpace(p.Action)
	if action == "" {
		return nil, ErrEmptyAction
	}
	if len(action) > maxActionLength {
		return nil, ErrActionTooLong
	}
	resourceType := strings.TrimSpace(p.ResourceType)
	if resourceType == "" {
		return nil, ErrEmptyResourceType
	}
	if len(resourceType) > maxResourceTypeLength {
		return nil, ErrResourceTypeTooLong
	}
	if len(p.ResourceID) > maxResourceIDLength {
		return nil, ErrResourceIDTooLong
	}
	if p.IPAddress != "" && (len(p.IPAddress) > maxIPAddressLength || net.ParseIP(p.IPAddress) == nil) {
		return nil, ErrInvalidIPAddress
	}
	status, err := ParseStatus(string(p.Status))
	if err != nil {
		return nil, err
	}
	changes, err := normalizeChanges(p.Changes)
	if err != nil {
		return nil, err
	}

	ts := p.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return &AuditLog{
		id:           uuid.New(),
		timestamp:    ts.UTC().Truncate(time.Microsecond),
		userID:       p.UserID,
		action:       action,
		resourceType: resourceType,
		resourceID:   p.ResourceID,
		description:  p.Description,
		changes:      changes,
		ipAddress:    p.IPAddress,
		userAgent:    p.UserAgent,
		status:       status,
	}, nil
}

// ReconstructAuditLog reconstructs an AuditLog from persistence.
func ReconstructAuditLog(
	id uuid.UUID,
	seq int64,
	timestamp time.Time,
	userID *uuid.UUID,
	action, resourceType, resourceID, description string,
	changes map[string]interface{},
	ipAddress, userAgent string,
	status Status,
	prevHash, hash string,
) *AuditLog {
	return &AuditLog{
		id:           id,
		seq:          seq,
		timestamp:    timestamp.UTC(),
		userID:       userID,
		action:       action,
		resourceType: resourceType,
		resourceID:   resourceID,
		description:  description,
		changes:      changes,
		ipAddress:    ipAddress,
		userAgent:    userAgent,
		status:       status,
		prevHash:     prevHash,
		hash:         hash,
	}
}

// ID returns the audit log identifier.
func (l *AuditLog) ID() uuid.UUID { return l.id }

// Seq returns the position of the log in the hash chain.
func (l *AuditLog) Seq() int64 { return l.seq }

// Timestamp returns when the action happened.
func (l *AuditLog) Timestamp() time.Time { return l.timestamp }

// UserID returns the acting user, nil for system events.
func (l *AuditLog) UserID() *uuid.UUID { return l.userID }

// Action returns the action name.
func (l *AuditLog) Action() string { return l.action }

// ResourceType returns the affected resource type.
func (l *AuditLog) ResourceType() string { return l.resourceType }

// ResourceID returns the affected resource identifier.
func (l *AuditLog) ResourceID() string { return l.resourceID }

// Description returns the free-form description.
func (l *AuditLog) Description() string { return l.description }

// Changes returns the recorded change set.
func (l *AuditLog) Changes() map[string]interface{} { return l.changes }

// IPAddress returns the client IP address.
func (l *AuditLog) IPAddress() string { return l.ipAddress }

// UserAgent returns the client user agent.
func (l *AuditLog) UserAgent() string { return l.userAgent }

// Status returns the outcome.
func (l *AuditLog) Status() Status { return l.status }

// PrevHash returns the hash of the preceding log.
func (l *AuditLog) PrevHash() string { return l.prevHash }

// Hash returns this log's chain hash.
func (l *AuditLog) Hash() string { return l.hash }

// IsSensitiveFailure reports whether this log is a failed sensitive action.
func (l *AuditLog) IsSensitiveFailure() bool {
	return l.status == StatusFailure && sensitiveActions[l.action]
}

// ToMap returns the dictionary form exposed to API clients.
func (l *AuditLog) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":            l.id.String(),
		"seq":           l.seq,
		"timestamp":     l.timestamp.Format(time.RFC3339Nano),
		"user_id":       nil,
		"action":        l.action,
		"resource_type": l.resourceType,
		"resource_id":   l.resourceID,
		"description":   l.description,
		"changes":       l.changes,
		"ip_address":    l.ipAddress,
		"status":        string(l.status),
		"hash":          l.hash,
	}
	if l.userID != nil {
		m["user_id"] = l.userID.String()
	}
	return m
}

func normalizeChanges(changes map[string]interface{}) (map[string]interface{}, error) {
	if len(changes) == 0 {
		return map[string]interface{}{}, nil
	}
	raw, err := json.Marshal(changes)
	if err != nil {
		return nil, ErrChangesNotSerialized
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, ErrChangesNotSerialized
	}
	return out, nil
}
