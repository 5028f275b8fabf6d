package notify

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"sitewatch/internal/classify"
	"sitewatch/internal/sites"
)

// Message is one rendered notification.
type Message struct {
	Title    string
	Severity classify.Severity
	Summary  string
}

// Channel is one delivery strategy. Attempt returns nil only when the
// message was actually delivered; any error means "not sent" and the chain
// moves on.
type Channel interface {
	Name() string
	Attempt(ctx context.Context, msg Message) error
}

// Options tune chain-wide channel behaviour.
type Options struct {
	Username       string
	WebhookTimeout time.Duration
}

// Chain dispatches a message through the configured channels in fixed
// priority order (email, then webhook), stopping at the first delivery and
// printing to the console when nothing else went out. It never returns an
// error: the result is always the severity's exit code.
type Chain struct {
	opts   Options
	logger zerolog.Logger
}

// NewChain constructs a notification chain.
func NewChain(opts Options, logger zerolog.Logger) *Chain {
	if opts.Username == "" {
		opts.Username = "Sitewatch Monitor"
	}
	if opts.WebhookTimeout <= 0 {
		opts.WebhookTimeout = 10 * time.Second
	}
	return &Chain{
		opts:   opts,
		logger: logger.With().Str("component", "notify").Logger(),
	}
}

// Notify resolves the site's channels from their environment-variable keys
// and walks the chain. Channels whose variable is unset are skipped without
// an attempt; failed attempts are logged and fall through.
func (c *Chain) Notify(ctx context.Context, channels sites.NotifyChannels, title, summary string, severity classify.Severity) int {
	msg := Message{Title: title, Severity: severity, Summary: summary}

	for _, ch := range c.resolve(channels) {
		if err := c.attempt(ctx, ch, msg); err != nil {
			c.logger.Error().Err(err).Str("channel", ch.Name()).Msg("notification attempt failed")
			continue
		}
		c.logger.Info().Str("channel", ch.Name()).Str("severity", severity.String()).Msg("notification delivered")
		return severity.ExitCode()
	}

	// Terminal fallback: the report always surfaces somewhere.
	consoleChannel{out: os.Stdout}.print(msg)
	return severity.ExitCode()
}

// PrintConsole writes the report to the console without touching any
// outbound channel. Used by dry runs.
func (c *Chain) PrintConsole(msg Message) {
	consoleChannel{out: os.Stdout}.print(msg)
}

func (c *Chain) resolve(channels sites.NotifyChannels) []Channel {
	resolved := make([]Channel, 0, 2)

	if channels.EmailEnv != "" {
		if addr := os.Getenv(channels.EmailEnv); addr != "" {
			resolved = append(resolved, newEmailChannel(addr, c.logger))
		} else {
			c.logger.Debug().Str("env", channels.EmailEnv).Msg("email env var unset, channel skipped")
		}
	}

	if channels.WebhookEnv != "" {
		if url := os.Getenv(channels.WebhookEnv); url != "" {
			resolved = append(resolved, newWebhookChannel(url, c.opts.Username, c.opts.WebhookTimeout, c.logger))
		} else {
			c.logger.Debug().Str("env", channels.WebhookEnv).Msg("webhook env var unset, channel skipped")
		}
	}

	return resolved
}

// attempt shields the chain from a misbehaving channel implementation.
func (c *Chain) attempt(ctx context.Context, ch Channel, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("channel %s panicked: %v", ch.Name(), r)
		}
	}()
	return ch.Attempt(ctx, msg)
}
