// Package mailer sends campaign notification emails over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/adcampaign/backend/config"
)

// ErrNotConfigured is returned when no SMTP host is configured.
var ErrNotConfigured = errors.New("smtp not configured")

// Mailer delivers plain-text messages through an SMTP relay. It implements
// the campaigns.Notifier port.
type Mailer struct {
	dialer   *gomail.Dialer
	host     string
	from     string
	fromName string
	logger   *zap.Logger
}

// New creates a mailer from email configuration.
func New(cfg config.EmailConfig, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{
		dialer:   gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		host:     cfg.SMTPHost,
		from:     cfg.FromAddress,
		fromName: cfg.FromName,
		logger:   logger,
	}
}

// Send delivers one message. The context is checked before dialing; the SMTP
// exchange itself relies on the transport's own timeouts.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if m.host == "" {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, m.fromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	m.logger.Debug("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
