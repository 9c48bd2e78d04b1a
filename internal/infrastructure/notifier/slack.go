package notifier

import (
	"context"
	"fmt"
	"net/http"

	"github.com/chiragkoyande/audit-project/internal/domain/notification"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/config"
)

// SlackSender posts notifications to a Slack incoming webhook.
type SlackSender struct {
	cfg    *config.SlackConfig
	client *http.Client
}

// NewSlackSender creates a new Slack sender.
func NewSlackSender(cfg *config.SlackConfig) *SlackSender {
	return &SlackSender{cfg: cfg, client: newHTTPClient()}
}

// Channel implements notification.Sender.
func (s *SlackSender) Channel() notification.Channel { return notification.ChannelSlack }

type slackMessage struct {
	Channel string `json:"channel,omitempty"`
	Text    string `json:"text"`
}

// Send implements notification.Sender.
func (s *SlackSender) Send(ctx context.Context, n *notification.Notification) error {
	if s.cfg.WebhookURL == "" {
		return notification.Permanent(fmt.Errorf("slack webhook url is not configured"))
	}
	msg := slackMessage{
		Channel: s.cfg.Channel,
		Text:    fmt.Sprintf("*[%s] %s*\n%s", n.Priority, n.Subject, n.Content),
	}
	return postJSON(ctx, s.client, s.cfg.WebhookURL, "slack", msg, nil)
}
