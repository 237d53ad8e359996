package mailer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MKhiriev/snippet-keeper/internal/config"
	"github.com/MKhiriev/snippet-keeper/internal/logger"
	"github.com/MKhiriev/snippet-keeper/internal/utils"
)

// defaultMailgunBaseURL is the US-region Mailgun API endpoint.
const defaultMailgunBaseURL = "https://api.mailgun.net"

const mailgunRequestTimeout = 10 * time.Second

type mailgunMailer struct {
	client *utils.HTTPClient
	domain string
	from   string

	logger *logger.Logger
}

// NewMailgunMailer returns a [Mailer] that posts messages to the Mailgun
// HTTP API of cfg.Domain, authenticating with cfg.APIKey.
func NewMailgunMailer(cfg config.Mailgun, from string, log *logger.Logger) (Mailer, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultMailgunBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid mailgun base url: %w", err)
	}

	client := utils.NewHTTPClient(baseURL, mailgunRequestTimeout)
	client.SetBasicAuth("api", cfg.APIKey)

	return &mailgunMailer{
		client: client,
		domain: cfg.Domain,
		from:   from,
		logger: log,
	}, nil
}

func (m *mailgunMailer) Send(ctx context.Context, to, subject, html string) error {
	log := logger.FromContext(ctx)

	resp, err := m.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"from":    m.from,
			"to":      to,
			"subject": subject,
			"html":    html,
		}).
		SetPathParam("domain", m.domain).
		Post("/v3/{domain}/messages")
	if err != nil {
		log.Err(err).Str("func", "*mailgunMailer.Send").Msg("error calling mailgun api")
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	if resp.IsError() {
		log.Error().
			Str("func", "*mailgunMailer.Send").
			Int("status", resp.StatusCode()).
			Str("body", resp.String()).
			Msg("mailgun rejected message")
		return fmt.Errorf("%w: mailgun responded with status %d", ErrDeliveryFailed, resp.StatusCode())
	}

	return nil
}
