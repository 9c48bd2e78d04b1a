package notifier

import (
	"context"
	"fmt"

	"github.com/chiragkoyande/audit-project/internal/domain/notification"
)

// InAppSender stores notifications in the recipients' inboxes.
type InAppSender struct {
	inbox notification.InboxRepository
}

// NewInAppSender creates a new in-app sender.
func NewInAppSender(inbox notification.InboxRepository) *InAppSender {
	return &InAppSender{inbox: inbox}
}

// Channel implements notification.Sender.
func (s *InAppSender) Channel() notification.Channel { return notification.ChannelInApp }

// Send implements notification.Sender.
func (s *InAppSender) Send(ctx context.Context, n *notification.Notification) error {
	if err := s.inbox.Add(ctx, notification.InboxItemsFor(n)); err != nil {
		return fmt.Errorf("failed to store in-app notification: %w", err)
	}
	return nil
}
