package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// SMTP transport parameters come from the environment, never from the
// watch config.
const (
	envSMTPHost     = "SMTP_HOST"
	envSMTPPort     = "SMTP_PORT"
	envSMTPUser     = "SMTP_USER"
	envSMTPPassword = "SMTP_PASSWORD"
	envSMTPFrom     = "SMTP_FROM"
)

// emailChannel sends the report over SMTP to a single recipient.
type emailChannel struct {
	recipient string
	logger    zerolog.Logger
}

func newEmailChannel(recipient string, logger zerolog.Logger) *emailChannel {
	return &emailChannel{
		recipient: recipient,
		logger:    logger.With().Str("channel", "email").Logger(),
	}
}

func (e *emailChannel) Name() string { return "email" }

func (e *emailChannel) Attempt(ctx context.Context, msg Message) error {
	host := envOrDefault(envSMTPHost, "localhost")
	port := envOrDefault(envSMTPPort, "25")
	from := envOrDefault(envSMTPFrom, "sitewatch@localhost")
	user := os.Getenv(envSMTPUser)
	password := os.Getenv(envSMTPPassword)

	var auth smtp.Auth
	if user != "" && password != "" {
		auth = smtp.PlainAuth("", user, password, host)
	}

	subject := fmt.Sprintf("[%s] %s", msg.Severity, msg.Title)
	body := buildEmailBody(from, e.recipient, subject, msg)

	if err := ctx.Err(); err != nil {
		return err
	}

	addr := host + ":" + port
	if err := smtp.SendMail(addr, auth, from, []string{e.recipient}, []byte(body)); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}
	return nil
}

func buildEmailBody(from, to, subject string, msg Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "Health Check Report: %s\r\n\r\n", msg.Title)
	fmt.Fprintf(&b, "Level: %s\r\n\r\n", msg.Severity)
	b.WriteString(strings.ReplaceAll(msg.Summary, "\n", "\r\n"))
	b.WriteString("\r\n\r\n---\r\nThis is an automated message from sitewatch.\r\n")
	return b.String()
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var _ Channel = (*emailChannel)(nil)
