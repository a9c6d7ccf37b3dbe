package mailer

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/orgbridge/bulletin-api/pkg/config"
)

// Mailer sends a single HTML email to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// SMTPMailer delivers mail through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer builds a mailer from the SMTP configuration.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)

	from := cfg.FromAddress
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress)
	}

	return &SMTPMailer{dialer: dialer, from: from}
}

// Send composes and dispatches one message. The context is honored before
// dialing; gomail itself does not support mid-send cancellation.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, html string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}

	return nil
}
