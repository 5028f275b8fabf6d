package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"sitewatch/internal/classify"
)

// severityColor maps severities to webhook attachment colors.
func severityColor(s classify.Severity) string {
	switch s {
	case classify.Warn:
		return "#ff9900"
	case classify.Fail:
		return "#ff0000"
	default:
		return "#36a64f"
	}
}

// webhookChannel posts a Slack-style incoming-webhook payload.
type webhookChannel struct {
	url      string
	username string
	client   *http.Client
	logger   zerolog.Logger
}

func newWebhookChannel(url, username string, timeout time.Duration, logger zerolog.Logger) *webhookChannel {
	return &webhookChannel{
		url:      url,
		username: username,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("channel", "webhook").Logger(),
	}
}

func (w *webhookChannel) Name() string { return "webhook" }

type webhookPayload struct {
	Username    string              `json:"username"`
	Text        string              `json:"text"`
	Attachments []webhookAttachment `json:"attachments"`
}

type webhookAttachment struct {
	Color  string         `json:"color"`
	Fields []webhookField `json:"fields"`
	Footer string         `json:"footer"`
	Ts     int64          `json:"ts"`
}

type webhookField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

func (w *webhookChannel) Attempt(ctx context.Context, msg Message) error {
	payload := webhookPayload{
		Username: w.username,
		Text:     fmt.Sprintf("*%s*", msg.Title),
		Attachments: []webhookAttachment{{
			Color: severityColor(msg.Severity),
			Fields: []webhookField{
				{Title: "Level", Value: msg.Severity.String(), Short: true},
				{Title: "Summary", Value: msg.Summary, Short: false},
			},
			Footer: "sitewatch",
			Ts:     time.Now().Unix(),
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded with status %d", resp.StatusCode)
	}
	return nil
}

var _ Channel = (*webhookChannel)(nil)
