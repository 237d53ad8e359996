// Package mailer delivers the transactional emails of the authentication
// server and renders their HTML bodies.
package mailer

import (
	"fmt"

	"github.com/MKhiriev/snippet-keeper/internal/config"
	"github.com/MKhiriev/snippet-keeper/internal/logger"
)

// New builds the [Mailer] selected by cfg.Provider.
func New(cfg config.Mailer, log *logger.Logger) (Mailer, error) {
	switch cfg.Provider {
	case config.MailerSMTP:
		return NewSMTPMailer(cfg.SMTP, cfg.From, log)
	case config.MailerMailgun:
		return NewMailgunMailer(cfg.Mailgun, cfg.From, log)
	case config.MailerLog:
		return NewLogMailer(log), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
