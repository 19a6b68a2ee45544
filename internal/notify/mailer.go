package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Saman-dev12/civic/internal/config"
)

// Mailer delivers a plain-text message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

// NewMailer returns an SMTP mailer, or a mailer that only logs when no host
// is configured.
func NewMailer(cfg config.MailConfig, log zerolog.Logger) Mailer {
	if cfg.Host == "" {
		return LogMailer{log: log}
	}
	m := &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from: cfg.From,
	}
	if cfg.Username != "" {
		m.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return m
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := buildMessage(m.from, to, subject, body)
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", strings.NewReplacer("\r", "", "\n", " ").Replace(subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	log zerolog.Logger
}

func (m LogMailer) Send(_ context.Context, to, subject, _ string) error {
	m.log.Info().Str("to", to).Str("subject", subject).Msg("mail not sent, smtp host unset")
	return nil
}
