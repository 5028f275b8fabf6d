package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.History.Dir != ".watch" {
		t.Errorf("history.dir = %q", cfg.History.Dir)
	}
	if cfg.Fetch.Timeout != 30*time.Second {
		t.Errorf("fetch.timeout = %s", cfg.Fetch.Timeout)
	}
	if cfg.Fetch.MaxRetries != 2 {
		t.Errorf("fetch.max_retries = %d", cfg.Fetch.MaxRetries)
	}
	if cfg.Database.DSN != "" {
		t.Errorf("database.dsn should default to empty, got %q", cfg.Database.DSN)
	}
	if cfg.Export.MaxDataPoints != 100000 {
		t.Errorf("export.max_data_points = %d", cfg.Export.MaxDataPoints)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logging:
  level: debug
history:
  dir: /tmp/watchstate
fetch:
  timeout: 5s
  max_retries: 0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q", cfg.Logging.Level)
	}
	if cfg.History.Dir != "/tmp/watchstate" {
		t.Errorf("history.dir = %q", cfg.History.Dir)
	}
	if cfg.Fetch.Timeout != 5*time.Second {
		t.Errorf("fetch.timeout = %s", cfg.Fetch.Timeout)
	}
	if cfg.Fetch.MaxRetries != 0 {
		t.Errorf("fetch.max_retries = %d", cfg.Fetch.MaxRetries)
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	cfg.Fetch.Timeout = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero fetch timeout should fail validation")
	}

	cfg.Fetch.Timeout = time.Second
	cfg.History.Dir = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty history dir should fail validation")
	}
}

func TestResolveMaxPoints(t *testing.T) {
	cfg := &Config{Export: ExportConfig{MaxDataPoints: 500}}
	if got := cfg.ResolveMaxPoints(0); got != 500 {
		t.Errorf("default = %d, want 500", got)
	}
	if got := cfg.ResolveMaxPoints(50); got != 50 {
		t.Errorf("override = %d, want 50", got)
	}
}
