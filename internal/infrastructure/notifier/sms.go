package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/chiragkoyande/audit-project/internal/domain/notification"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/config"
)

const (
	twilioBaseURL = "https://api.twilio.com"
	maxSMSLength  = 1600
)

var e164Regex = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

// ErrNoSMSRecipients is returned when no recipient is an E.164 phone number.
var ErrNoSMSRecipients = errors.New("no valid sms recipients")

// SMSSender delivers notifications through the Twilio Messages API.
type SMSSender struct {
	cfg     *config.SMSConfig
	baseURL string
	client  *http.Client
}

// NewSMSSender creates a new Twilio sender.
func NewSMSSender(cfg *config.SMSConfig) *SMSSender {
	base := cfg.BaseURL
	if base == "" {
		base = twilioBaseURL
	}
	return &SMSSender{cfg: cfg, baseURL: strings.TrimRight(base, "/"), client: newHTTPClient()}
}

// Channel implements notification.Sender.
func (s *SMSSender) Channel() notification.Channel { return notification.ChannelSMS }

// Send implements notification.Sender. Each phone recipient gets one message.
func (s *SMSSender) Send(ctx context.Context, n *notification.Notification) error {
	var phones []string
	for _, r := range n.Recipients {
		if e164Regex.MatchString(r) {
			phones = append(phones, r)
		}
	}
	if len(phones) == 0 {
		return notification.Permanent(ErrNoSMSRecipients)
	}

	body := smsBody(n)
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, url.PathEscape(s.cfg.AccountSID))

	var errs []error
	for _, to := range phones {
		form := url.Values{}
		form.Set("To", to)
		form.Set("From", s.cfg.FromNumber)
		form.Set("Body", body)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return notification.Permanent(fmt.Errorf("failed to build sms request: %w", err))
		}
		req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		if err := do(s.client, req, "twilio"); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func smsBody(n *notification.Notification) string {
	body := n.Subject + "\n" + n.Content
	if len(body) > maxSMSLength {
		body = body[:maxSMSLength-3] + "..."
	}
	return body
}
