package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"sitewatch/internal/classify"
	"sitewatch/internal/sites"
)

func testChain() *Chain {
	return NewChain(Options{Username: "Test Monitor", WebhookTimeout: time.Second}, zerolog.Nop())
}

func TestNotifyConsoleFallbackReturnsExitCode(t *testing.T) {
	chain := testChain()

	// No channels configured at all: console fallback, severity code back.
	code := chain.Notify(context.Background(), sites.NotifyChannels{}, "Health Check: test", "Status Code: 200", classify.Warn)
	if code != 2 {
		t.Fatalf("code = %d, want 2", code)
	}
}

func TestNotifyWebhookDelivery(t *testing.T) {
	var payload webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	t.Setenv("TEST_WEBHOOK_URL", srv.URL)

	chain := testChain()
	channels := sites.NotifyChannels{WebhookEnv: "TEST_WEBHOOK_URL"}
	code := chain.Notify(context.Background(), channels, "Health Check: demo", "Size: 123 bytes", classify.Fail)

	if code != 3 {
		t.Fatalf("code = %d, want 3", code)
	}
	if payload.Username != "Test Monitor" {
		t.Fatalf("username = %q", payload.Username)
	}
	if !strings.Contains(payload.Text, "Health Check: demo") {
		t.Fatalf("text = %q", payload.Text)
	}
	if len(payload.Attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(payload.Attachments))
	}
	if payload.Attachments[0].Color != "#ff0000" {
		t.Fatalf("FAIL color = %q, want #ff0000", payload.Attachments[0].Color)
	}
}

func TestNotifyWebhookFailureFallsThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	t.Setenv("TEST_WEBHOOK_URL", srv.URL)

	chain := testChain()
	channels := sites.NotifyChannels{WebhookEnv: "TEST_WEBHOOK_URL"}

	// Delivery fails; the console fallback still yields the severity code.
	code := chain.Notify(context.Background(), channels, "Health Check: demo", "summary", classify.Info)
	if code != 0 {
		t.Fatalf("code = %d, want 0", code)
	}
}

func TestNotifyUnsetEnvVarSkipsChannel(t *testing.T) {
	chain := testChain()

	channels := sites.NotifyChannels{WebhookEnv: "DEFINITELY_UNSET_WEBHOOK_VAR"}
	resolved := chain.resolve(channels)
	if len(resolved) != 0 {
		t.Fatalf("resolved %d channels, want 0", len(resolved))
	}
}

func TestResolveOrdersEmailBeforeWebhook(t *testing.T) {
	t.Setenv("TEST_EMAIL_ADDR", "ops@example.org")
	t.Setenv("TEST_WEBHOOK_URL", "https://hooks.example.org/x")

	chain := testChain()
	resolved := chain.resolve(sites.NotifyChannels{EmailEnv: "TEST_EMAIL_ADDR", WebhookEnv: "TEST_WEBHOOK_URL"})
	if len(resolved) != 2 {
		t.Fatalf("resolved %d channels, want 2", len(resolved))
	}
	if resolved[0].Name() != "email" || resolved[1].Name() != "webhook" {
		t.Fatalf("order = [%s %s], want [email webhook]", resolved[0].Name(), resolved[1].Name())
	}
}

func TestSeverityColors(t *testing.T) {
	if got := severityColor(classify.Info); got != "#36a64f" {
		t.Errorf("INFO color = %q", got)
	}
	if got := severityColor(classify.Warn); got != "#ff9900" {
		t.Errorf("WARN color = %q", got)
	}
	if got := severityColor(classify.Fail); got != "#ff0000" {
		t.Errorf("FAIL color = %q", got)
	}
}

func TestConsolePrint(t *testing.T) {
	var buf bytes.Buffer
	consoleChannel{out: &buf}.print(Message{Title: "Health Check: demo", Severity: classify.Warn, Summary: "Size: 10 bytes"})

	out := buf.String()
	if !strings.Contains(out, "Health Check: demo - WARN") {
		t.Fatalf("missing header: %q", out)
	}
	if !strings.Contains(out, "Size: 10 bytes") {
		t.Fatalf("missing summary: %q", out)
	}
}

func TestBuildEmailBody(t *testing.T) {
	msg := Message{Title: "Health Check: demo", Severity: classify.Fail, Summary: "line one\nline two"}
	body := buildEmailBody("from@example.org", "to@example.org", "[FAIL] Health Check: demo", msg)

	if !strings.Contains(body, "Subject: [FAIL] Health Check: demo\r\n") {
		t.Fatalf("missing subject header: %q", body)
	}
	if !strings.Contains(body, "line one\r\nline two") {
		t.Fatal("summary newlines should be CRLF in the mail body")
	}
}
