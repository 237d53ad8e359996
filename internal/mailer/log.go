package mailer

import (
	"context"

	"github.com/MKhiriev/snippet-keeper/internal/logger"
)

type logMailer struct {
	logger *logger.Logger
}

// NewLogMailer returns a [Mailer] that only records the recipient and subject
// of each message. It is meant for local development; the message body is
// not logged because it carries the reset secret.
func NewLogMailer(log *logger.Logger) Mailer {
	return &logMailer{logger: log}
}

func (m *logMailer) Send(ctx context.Context, to, subject, html string) error {
	logger.FromContext(ctx).Info().
		Str("func", "*logMailer.Send").
		Str("to", to).
		Str("subject", subject).
		Int("body_size", len(html)).
		Msg("email not delivered, log mailer in use")

	return nil
}
