// Package report provides domain logic for audit reports.
package report

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Domain-specific errors for report package.
var (
	ErrEmptyTitle        = errors.New("title cannot be empty")
	ErrTitleTooLong      = errors.New("title exceeds 200 characters")
	ErrEmptyOwner        = errors.New("report must belong to a user")
	ErrInvalidStatus     = errors.New("status must be one of draft, in_review, published, archived")
	ErrInvalidTransition = errors.New("report status transition is not allowed")
	ErrArchived          = errors.New("archived reports cannot be modified")
)

const maxTitleLength = 200

// Status is the lifecycle state of a report.
type Status string

// Report lifecycle states.
const (
	StatusDraft     Status = "draft"
	StatusInReview  Status = "in_review"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

var transitions = map[Status][]Status{
	StatusDraft:     {StatusInReview, StatusArchived},
	StatusInReview:  {StatusDraft, StatusPublished, StatusArchived},
	StatusPublished: {StatusArchived},
}

// ParseStatus validates a status name. Empty input yields draft.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StatusDraft, nil
	case StatusDraft, StatusInReview, StatusPublished, StatusArchived:
		return st, nil
	default:
		return "", ErrInvalidStatus
	}
}

// CanTransition reports whether from -> to is an allowed move.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Report is the aggregate root for the report domain.
type Report struct {
	id        uuid.UUID
	title     string
	content   string
	userID    uuid.UUID
	status    Status
	metadata  map[string]interface{}
	createdAt time.Time
	updatedAt time.Time
}

// NewReport creates a draft report.
func NewReport(title, content string, userID uuid.UUID, metadata map[string]interface{}) (*Report, error) {
	title, err := validateTitle(title)
	if err != nil {
		return nil, err
	}
	if userID == uuid.Nil {
		return nil, ErrEmptyOwner
	}
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	now := time.Now().UTC()
	return &Report{
		id:        uuid.New(),
		title:     title,
		content:   content,
		userID:    userID,
		status:    StatusDraft,
		metadata:  metadata,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructReport reconstructs a Report from persistence.
func ReconstructReport(
	id uuid.UUID,
	title, content string,
	userID uuid.UUID,
	status Status,
	metadata map[string]interface{},
	createdAt, updatedAt time.Time,
) *Report {
	return &Report{
		id:        id,
		title:     title,
		content:   content,
		userID:    userID,
		status:    status,
		metadata:  metadata,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// ID returns the report identifier.
func (r *Report) ID() uuid.UUID { return r.id }

// Title returns the title.
func (r *Report) Title() string { return r.title }

// Content returns the report body.
func (r *Report) Content() string { return r.content }

// UserID returns the owner.
func (r *Report) UserID() uuid.UUID { return r.userID }

// Status returns the lifecycle state.
func (r *Report) Status() Status { return r.status }

// Metadata returns free-form metadata.
func (r *Report) Metadata() map[string]interface{} { return r.metadata }

// CreatedAt returns the creation time.
func (r *Report) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last modification time.
func (r *Report) UpdatedAt() time.Time { return r.updatedAt }

// Update changes any non-nil field. Archived reports are read-only.
func (r *Report) Update(title, content *string, metadata map[string]interface{}) error {
	if r.status == StatusArchived {
		return ErrArchived
	}
	if title != nil {
		t, err := validateTitle(*title)
		if err != nil {
			return err
		}
		r.title = t
	}
	if content != nil {
		r.content = *content
	}
	if metadata != nil {
		r.metadata = metadata
	}
	r.updatedAt = time.Now().UTC()
	return nil
}

// TransitionTo moves the report through its lifecycle.
func (r *Report) TransitionTo(to Status) error {
	if r.status == to {
		return nil
	}
	if !CanTransition(r.status, to) {
		return ErrInvalidTransition
	}
	r.status = to
	r.updatedAt = time.Now().UTC()
	return nil
}

// ToMap returns the dictionary form exposed to API clients.
func (r *Report) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"id":         r.id.String(),
		"title":      r.title,
		"content":    r.content,
		"created_at": r.createdAt.Format(time.RFC3339),
		"updated_at": r.updatedAt.Format(time.RFC3339),
		"user_id":    r.userID.String(),
		"status":     string(r.status),
		"metadata":   r.metadata,
	}
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	if len(title) > maxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}
