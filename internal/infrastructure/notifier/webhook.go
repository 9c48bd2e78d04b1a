package notifier

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/chiragkoyande/audit-project/internal/domain/notification"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/config"
)

// SignatureHeader carries the HMAC-SHA256 of the request body.
const SignatureHeader = "X-Audit-Signature"

// WebhookSender posts notifications as JSON to every configured endpoint.
type WebhookSender struct {
	cfg    *config.WebhookConfig
	client *http.Client
}

// NewWebhookSender creates a new webhook sender.
func NewWebhookSender(cfg *config.WebhookConfig) *WebhookSender {
	return &WebhookSender{cfg: cfg, client: newHTTPClient()}
}

// Channel implements notification.Sender.
func (s *WebhookSender) Channel() notification.Channel { return notification.ChannelWebhook }

type webhookPayload struct {
	ID         string                 `json:"id"`
	Type       notification.Type      `json:"type"`
	Priority   notification.Priority  `json:"priority"`
	Recipients []string               `json:"recipients"`
	Subject    string                 `json:"subject"`
	Content    string                 `json:"content"`
	Data       map[string]interface{} `json:"data,omitempty"`
	CreatedAt  string                 `json:"created_at"`
}

// Send implements notification.Sender. It fails if any endpoint fails.
func (s *WebhookSender) Send(ctx context.Context, n *notification.Notification) error {
	if len(s.cfg.Endpoints) == 0 {
		return notification.Permanent(fmt.Errorf("no webhook endpoints configured"))
	}

	body, err := json.Marshal(webhookPayload{
		ID:         n.ID,
		Type:       n.Type,
		Priority:   n.Priority,
		Recipients: n.Recipients,
		Subject:    n.Subject,
		Content:    n.Content,
		Data:       n.Data,
		CreatedAt:  n.CreatedAt.UTC().Format("2006-01-02T15:04:05.000000Z07:00"),
	})
	if err != nil {
		return notification.Permanent(fmt.Errorf("failed to encode webhook payload: %w", err))
	}

	headers := map[string]string{}
	if s.cfg.Secret != "" {
		headers[SignatureHeader] = Sign(s.cfg.Secret, body)
	}

	var errs []error
	for _, endpoint := range s.cfg.Endpoints {
		if err := postBody(ctx, s.client, endpoint, "webhook", body, headers); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
