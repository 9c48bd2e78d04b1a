// Package notification provides domain logic for multi-channel notifications.
package notification

import (
	"errors"
	"fmt"
	"strings"
)

// Domain-specific errors for notification package.
var (
	ErrNoRecipients       = errors.New("notification must have at least one recipient")
	ErrEmptySubject       = errors.New("notification subject cannot be empty")
	ErrEmptyContent       = errors.New("notification content cannot be empty")
	ErrUnsupportedChannel = errors.New("unsupported notification channel")
	ErrInvalidType        = errors.New("unsupported notification type")
	ErrInvalidPriority    = errors.New("priority must be one of critical, high, medium, low, info")
	ErrChannelDisabled    = errors.New("notification channel is disabled")
)

// Type classifies why a notification was sent.
type Type string

// Notification types.
const (
	TypeAuditAlert         Type = "audit_alert"
	TypeComplianceWarning  Type = "compliance_warning"
	TypeSystemError        Type = "system_error"
	TypeReportReady        Type = "report_ready"
	TypeDeadlineReminder   Type = "deadline_reminder"
	TypeUserActionRequired Type = "user_action_required"
)

// ParseType validates a notification type.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeAuditAlert, TypeComplianceWarning, TypeSystemError,
		TypeReportReady, TypeDeadlineReminder, TypeUserActionRequired:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

// Channel is a delivery medium.
type Channel string

// Delivery channels.
const (
	ChannelEmail   Channel = "email"
	ChannelSMS     Channel = "sms"
	ChannelSlack   Channel = "slack"
	ChannelInApp   Channel = "in_app"
	ChannelWebhook Channel = "webhook"
)

// AllChannels lists every channel.
var AllChannels = []Channel{ChannelEmail, ChannelSMS, ChannelSlack, ChannelInApp, ChannelWebhook}

// ParseChannel validates a channel name.
func ParseChannel(s string) (Channel, error) {
	c := Channel(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllChannels {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedChannel, s)
}

// Priority orders notifications by urgency.
type Priority string

// Priorities.
const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
	PriorityInfo     Priority = "info"
)

// ParsePriority validates a priority. Empty input yields medium.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PriorityMedium, nil
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow, PriorityInfo:
		return p, nil
	default:
		return "", ErrInvalidPriority
	}
}

// ChannelsForPriority returns the default channels for a priority.
func ChannelsForPriority(p Priority) []Channel {
	switch p {
	case PriorityCritical:
		return []Channel{ChannelEmail, ChannelSMS, ChannelSlack, ChannelInApp}
	case PriorityHigh:
		return []Channel{ChannelEmail, ChannelInApp}
	default:
		return []Channel{ChannelInApp}
	}
}

// Status is the lifecycle state of a notification or a channel attempt.
type Status string

// Notification and delivery states.
const (
	StatusPending  Status = "pending"
	StatusQueued   Status = "queued"
	StatusSent     Status = "sent"
	StatusFailed   Status = "failed"
	StatusSuccess  Status = "success"
	StatusDisabled Status = "disabled"
)
