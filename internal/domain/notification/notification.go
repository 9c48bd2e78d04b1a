package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChannelResult is the outcome of delivering through one channel.
type ChannelResult struct {
	Status   Status     `json:"status"`
	Error    string     `json:"error,omitempty"`
	Attempts int        `json:"attempts"`
	SentAt   *time.Time `json:"sent_at,omitempty"`
}

// Notification is a message addressed to recipients over one or more channels.
// It is serialized as-is onto the delivery queue.
type Notification struct {
	ID         string                    `json:"id"`
	Type       Type                      `json:"type"`
	Priority   Priority                  `json:"priority"`
	Recipients []string                  `json:"recipients"`
	Channels   []Channel                 `json:"channels"`
	Subject    string                    `json:"subject"`
	Content    string                    `json:"content"`
	Data       map[string]interface{}    `json:"data,omitempty"`
	Status     Status                    `json:"status"`
	Results    map[Channel]ChannelResult `json:"results,omitempty"`
	CreatedAt  time.Time                 `json:"created_at"`
	SentAt     *time.Time                `json:"sent_at,omitempty"`
}

// Params carries the caller-supplied fields of a new notification.
type Params struct {
	Type       Type
	Priority   Priority
	Recipients []string
	Channels   []Channel
	Subject    string
	Content    string
	Data       map[string]interface{}
}

// New validates params and creates a pending notification. When no channels
// are given they are chosen from the priority.
func New(p Params) (*Notification, error) {
	recipients := make([]string, 0, len(p.Recipients))
	for _, r := range p.Recipients {
		if r = strings.TrimSpace(r); r != "" {
			recipients = append(recipients, r)
		}
	}
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}
	if strings.TrimSpace(p.Subject) == "" {
		return nil, ErrEmptySubject
	}
	if strings.TrimSpace(p.Content) == "" {
		return nil, ErrEmptyContent
	}
	if p.Type == "" {
		p.Type = TypeUserActionRequired
	}
	if _, err := ParseType(string(p.Type)); err != nil {
		return nil, err
	}
	priority, err := ParsePriority(string(p.Priority))
	if err != nil {
		return nil, err
	}

	channels := dedupeChannels(p.Channels)
	for _, c := range channels {
		if _, err := ParseChannel(string(c)); err != nil {
			return nil, err
		}
	}
	if len(channels) == 0 {
		channels = ChannelsForPriority(priority)
	}

	now := time.Now().UTC()
	return &Notification{
		ID:         NewID(now),
		Type:       p.Type,
		Priority:   priority,
		Recipients: recipients,
		Channels:   channels,
		Subject:    p.Subject,
		Content:    p.Content,
		Data:       p.Data,
		Status:     StatusPending,
		Results:    map[Channel]ChannelResult{},
		CreatedAt:  now,
	}, nil
}

// NewID builds a sortable notification identifier.
func NewID(now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("notif_%s_%06d_%s", now.Format("20060102_150405"), now.Nanosecond()/1000, uuid.NewString()[:8])
}

// Finalize records channel results and derives the overall status:
// sent when at least one channel succeeded, failed otherwise.
func (n *Notification) Finalize(results map[Channel]ChannelResult, now time.Time) {
	n.Results = results
	n.Status = StatusFailed
	for _, r := range results {
		if r.Status == StatusSuccess {
			n.Status = StatusSent
			break
		}
	}
	if n.Status == StatusSent {
		t := now.UTC()
		n.SentAt = &t
	}
}

// Finished reports whether delivery already ran, whatever its outcome.
func (n *Notification) Finished() bool {
	return n.Status == StatusSent || n.Status == StatusFailed
}

// Succeeded returns the channels that delivered successfully.
func (n *Notification) Succeeded() []Channel {
	var out []Channel
	for _, c := range n.Channels {
		if n.Results[c].Status == StatusSuccess {
			out = append(out, c)
		}
	}
	return out
}

func dedupeChannels(in []Channel) []Channel {
	seen := make(map[Channel]bool, len(in))
	out := make([]Channel, 0, len(in))
	for _, c := range in {
		c = Channel(strings.ToLower(strings.TrimSpace(string(c))))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// Sender delivers a notification through one channel.
type Sender interface {
	Channel() Channel
	Send(ctx context.Context, n *Notification) error
}

// PermanentError marks a delivery failure that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so the dispatcher stops retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err was marked permanent.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}
