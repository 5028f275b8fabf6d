package sites

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "watch.yaml", `
demo:
  url: https://example.org/
  content_kind: html
`)

	configs, err := Load(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	site, ok := configs["demo"]
	if !ok {
		t.Fatal("site demo missing")
	}
	if site.ID != "demo" {
		t.Fatalf("ID = %q, want demo", site.ID)
	}
	if !site.VerifyTLS {
		t.Fatal("verify_tls should default to true")
	}
	if site.HistoryWindow != DefaultHistoryWindow {
		t.Fatalf("history_window = %d, want %d", site.HistoryWindow, DefaultHistoryWindow)
	}
}

func TestLoadFullEntry(t *testing.T) {
	path := writeConfig(t, "watch.yaml", `
series:
  url: https://example.org/series.xlsm
  content_kind: excel
  min_bytes: 1024
  expected_columns: [Fecha, Valor]
  min_rows: 100
  expected_content_type: application/vnd.ms-excel
  verify_tls: false
  history_window: 20
  notify_channels:
    email_env: ALERT_EMAIL
    webhook_env: ALERT_WEBHOOK
`)

	configs, err := Load(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	site := configs["series"]
	if site.Kind != KindExcel {
		t.Fatalf("kind = %q", site.Kind)
	}
	if site.VerifyTLS {
		t.Fatal("verify_tls override lost")
	}
	if site.HistoryWindow != 20 {
		t.Fatalf("history_window = %d, want 20", site.HistoryWindow)
	}
	if site.Notify.EmailEnv != "ALERT_EMAIL" || site.Notify.WebhookEnv != "ALERT_WEBHOOK" {
		t.Fatalf("notify channels = %+v", site.Notify)
	}
	if len(site.ExpectedColumns) != 2 || site.ExpectedColumns[0] != "Fecha" {
		t.Fatalf("expected_columns = %v", site.ExpectedColumns)
	}
}

func TestLoadSkipsInvalidEntries(t *testing.T) {
	path := writeConfig(t, "watch.yaml", `
good:
  url: https://example.org/
  content_kind: html
no-url:
  content_kind: html
bad-kind:
  url: https://example.org/
  content_kind: spreadsheet
`)

	configs, err := Load(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if len(configs) != 1 {
		t.Fatalf("got %d sites, want only the valid one: %v", len(configs), configs)
	}
	if _, ok := configs["good"]; !ok {
		t.Fatal("valid entry should survive invalid siblings")
	}
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := writeConfig(t, "watch.yaml", "demo: [unclosed")

	if _, err := Load(path, zerolog.Nop()); err == nil {
		t.Fatal("malformed YAML should fail the whole load")
	}
}

func TestLoadRejectsNonYAMLExtension(t *testing.T) {
	path := writeConfig(t, "watch.json", `{}`)

	if _, err := Load(path, zerolog.Nop()); err == nil {
		t.Fatal("non-YAML extension should be rejected")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), zerolog.Nop())
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("err = %v, want ErrConfigNotFound", err)
	}
}

func TestContentKindValid(t *testing.T) {
	for _, kind := range []ContentKind{KindHTML, KindCSV, KindExcel, KindPDF, KindBinary} {
		if !kind.Valid() {
			t.Errorf("kind %q should be valid", kind)
		}
	}
	if ContentKind("spreadsheet").Valid() {
		t.Error("unknown kind should be invalid")
	}
}
