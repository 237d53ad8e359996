package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"time"

	"github.com/MKhiriev/snippet-keeper/internal/config"
	"github.com/MKhiriev/snippet-keeper/internal/logger"
)

type smtpMailer struct {
	addr string
	host string
	auth smtp.Auth
	from *mail.Address

	logger *logger.Logger
}

// NewSMTPMailer returns a [Mailer] that relays through the configured SMTP
// server. STARTTLS is used whenever the server offers it; PLAIN auth is used
// when a username is configured.
func NewSMTPMailer(cfg config.SMTP, from string, log *logger.Logger) (Mailer, error) {
	sender, err := mail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSender, err)
	}

	m := &smtpMailer{
		addr:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		host:   cfg.Host,
		from:   sender,
		logger: log,
	}
	if cfg.Username != "" {
		m.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return m, nil
}

func (m *smtpMailer) Send(ctx context.Context, to, subject, html string) error {
	log := logger.FromContext(ctx)

	recipient, err := mail.ParseAddress(to)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecipient, err)
	}

	conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", m.addr)
	if err != nil {
		log.Err(err).Str("func", "*smtpMailer.Send").Str("addr", m.addr).Msg("error dialing smtp server")
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	defer client.Close()

	if err = m.deliver(client, recipient.Address, buildMessage(m.from, recipient, subject, html, time.Now())); err != nil {
		log.Err(err).Str("func", "*smtpMailer.Send").Str("subject", subject).Msg("error delivering email")
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	return nil
}

func (m *smtpMailer) deliver(client *smtp.Client, to string, msg []byte) error {
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return err
		}
	}
	if m.auth != nil {
		if err := client.Auth(m.auth); err != nil {
			return err
		}
	}
	if err := client.Mail(m.from.Address); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(msg); err != nil {
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

// buildMessage assembles an RFC 5322 message with a single UTF-8 HTML part.
func buildMessage(from, to *mail.Address, subject, html string, now time.Time) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", from.String())
	fmt.Fprintf(&buf, "To: %s\r\n", to.String())
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", now.Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(html)

	return buf.Bytes()
}
