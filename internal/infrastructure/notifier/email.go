package notifier

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/chiragkoyande/audit-project/internal/domain/notification"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/config"
)

// ErrNoEmailRecipients is returned when no recipient is a valid address.
var ErrNoEmailRecipients = errors.New("no valid email recipients")

// EmailSender delivers notifications over SMTP.
type EmailSender struct {
	cfg *config.EmailConfig
	now func() time.Time
}

// NewEmailSender creates a new SMTP sender.
func NewEmailSender(cfg *config.EmailConfig) *EmailSender {
	return &EmailSender{cfg: cfg, now: time.Now}
}

// Channel implements notification.Sender.
func (s *EmailSender) Channel() notification.Channel { return notification.ChannelEmail }

// Send implements notification.Sender.
func (s *EmailSender) Send(ctx context.Context, n *notification.Notification) error {
	to := emailRecipients(n.Recipients)
	if len(to) == 0 {
		return notification.Permanent(ErrNoEmailRecipients)
	}

	msg := s.buildMessage(to, n.Subject, n.Content)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	var auth smtp.Auth
	if s.cfg.SMTPUser != "" && s.cfg.SMTPPassword != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}

	var err error
	if s.cfg.UseTLS && s.cfg.SMTPPort == 465 {
		err = s.sendImplicitTLS(ctx, addr, auth, to, msg)
	} else {
		// SendMail upgrades with STARTTLS when the server offers it.
		err = smtp.SendMail(addr, auth, s.cfg.FromAddress, to, msg)
	}
	if err != nil {
		log.Error().Err(err).Strs("to", to).Str("subject", n.Subject).Msg("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Info().Strs("to", to).Str("subject", n.Subject).Msg("Email sent successfully")
	return nil
}

func (s *EmailSender) buildMessage(to []string, subject, body string) []byte {
	from := (&mail.Address{Name: s.cfg.FromName, Address: s.cfg.FromAddress}).String()

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", s.now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(msg.String())
}

func (s *EmailSender) sendImplicitTLS(ctx context.Context, addr string, auth smtp.Auth, to []string, msg []byte) error {
	dialer := &tls.Dialer{Config: &tls.Config{
		ServerName: s.cfg.SMTPHost,
		MinVersion: tls.VersionTLS12,
	}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}

	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Debug().Err(err).Msg("SMTP client close")
		}
	}()

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return notification.Permanent(fmt.Errorf("SMTP auth failed: %w", err))
		}
	}
	if err = client.Mail(s.cfg.FromAddress); err != nil {
		return fmt.Errorf("SMTP MAIL FROM failed: %w", err)
	}
	for _, rcpt := range to {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("SMTP RCPT TO failed: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA failed: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("SMTP write failed: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("SMTP close failed: %w", err)
	}
	return client.Quit()
}

func emailRecipients(recipients []string) []string {
	out := make([]string, 0, len(recipients))
	for _, r := range recipients {
		addr, err := mail.ParseAddress(r)
		if err != nil {
			continue
		}
		out = append(out, addr.Address)
	}
	return out
}
