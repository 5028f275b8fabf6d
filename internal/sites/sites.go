package sites

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultHistoryWindow bounds the checksum history kept per site when
	// the config does not say otherwise.
	DefaultHistoryWindow = 10

	productionConfigPath = "configs/watch.yaml"
	exampleConfigPath    = "configs/watch.example.yaml"
)

// ErrConfigNotFound indicates no watch config file could be resolved.
var ErrConfigNotFound = errors.New("watch config file not found")

// NotifyChannels names the environment variables holding channel secrets.
// Config carries the variable names, never the secrets themselves.
type NotifyChannels struct {
	EmailEnv   string `yaml:"email_env"`
	WebhookEnv string `yaml:"webhook_env"`
}

// Site is one validated monitored target.
type Site struct {
	ID                  string         `yaml:"-"`
	URL                 string         `yaml:"url" validate:"required,url"`
	Kind                ContentKind    `yaml:"content_kind" validate:"required,oneof=html csv excel pdf binary"`
	Selectors           []string       `yaml:"selectors"`
	MinBytes            int            `yaml:"min_bytes" validate:"min=0"`
	ExpectedColumns     []string       `yaml:"expected_columns"`
	MinRows             int            `yaml:"min_rows" validate:"min=0"`
	ExpectedContentType string         `yaml:"expected_content_type"`
	VerifyTLS           bool           `yaml:"verify_tls"`
	HistoryWindow       int            `yaml:"history_window" validate:"min=1"`
	Notify              NotifyChannels `yaml:"notify_channels"`
}

// UnmarshalYAML decodes a site entry with its documented defaults applied.
func (s *Site) UnmarshalYAML(value *yaml.Node) error {
	type plain Site
	p := plain{
		VerifyTLS:     true,
		HistoryWindow: DefaultHistoryWindow,
	}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = Site(p)
	return nil
}

// Load reads the watch config and returns the validated sites keyed by id.
//
// When path is empty, configs/watch.yaml is tried first and
// configs/watch.example.yaml second (with a warning that the example is in
// use). A malformed file fails the whole load; a malformed individual site
// entry is logged and excluded so one broken entry cannot disable
// monitoring for the rest.
func Load(path string, logger zerolog.Logger) (map[string]Site, error) {
	log := logger.With().Str("component", "sites").Logger()

	resolved, err := resolvePath(path, log)
	if err != nil {
		return nil, err
	}

	if ext := strings.ToLower(filepath.Ext(resolved)); ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported watch config format %q: only YAML (.yaml/.yml) is supported", ext)
	}

	raw, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("read watch config: %w", err)
	}

	var entries map[string]yaml.Node
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse watch config %s: %w", resolved, err)
	}

	validate := validator.New()

	result := make(map[string]Site, len(entries))
	for id, node := range entries {
		site, err := decodeSite(id, node, validate)
		if err != nil {
			log.Error().Err(err).Str("site_id", id).Msg("invalid site config entry, skipping")
			continue
		}
		result[id] = site
	}

	log.Info().Int("sites", len(result)).Str("path", resolved).Msg("watch config loaded")
	return result, nil
}

func decodeSite(id string, node yaml.Node, validate *validator.Validate) (Site, error) {
	var site Site
	if err := node.Decode(&site); err != nil {
		return Site{}, fmt.Errorf("decode entry: %w", err)
	}
	site.ID = id

	if err := validate.Struct(site); err != nil {
		return Site{}, fmt.Errorf("validate entry: %w", err)
	}
	return site, nil
}

func resolvePath(path string, log zerolog.Logger) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return path, nil
	}

	if _, err := os.Stat(productionConfigPath); err == nil {
		return productionConfigPath, nil
	}
	if _, err := os.Stat(exampleConfigPath); err == nil {
		log.Warn().Str("path", exampleConfigPath).
			Msg("using example watch config; create configs/watch.yaml for production")
		return exampleConfigPath, nil
	}

	return "", fmt.Errorf("%w: expected %s or %s", ErrConfigNotFound, productionConfigPath, exampleConfigPath)
}
