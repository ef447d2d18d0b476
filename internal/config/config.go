// Package config loads the application configuration: defaults first,
// then an optional YAML file, then environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/fernwell/caseflow/internal/events"
	"github.com/fernwell/caseflow/internal/policy"
	"github.com/fernwell/caseflow/internal/polish"
	"github.com/fernwell/caseflow/internal/store"
)

// Config is the full application configuration.
type Config struct {
	Policy  policy.PolicyConfig `yaml:"policy"`
	Polish  PolishConfig        `yaml:"polish"`
	Events  EventsConfig        `yaml:"events"`
	Storage StorageConfig       `yaml:"storage"`
	Logging LoggingConfig       `yaml:"logging"`
}

// PolishConfig selects the reply-polish provider.
type PolishConfig struct {
	// Provider is "none", "gemini", or "openai".
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
}

// Settings converts to the polish package's provider settings.
func (p PolishConfig) Settings() polish.Settings {
	return polish.Settings{Provider: p.Provider, Model: p.Model, APIKey: p.APIKey}
}

// EventsConfig points at the action event broker. An empty URL means
// events are dropped via the fallback publisher.
type EventsConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

// StorageConfig locates the SQLite database.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// Build constructs the zap logger for this verbosity. Both variants
// write to stderr, keeping stdout free for command output and the MCP
// stdio channel.
func (l LoggingConfig) Build() (*zap.Logger, error) {
	if l.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// defaultPaths is where Load looks when no path is given, in order.
var defaultPaths = []string{
	".caseflow/config.yaml",
	"config.yaml",
}

// Skeleton is the commented starter file written by "caseflow init".
const Skeleton = `# caseflow configuration
policy:
  refund_window_days: 30
  goodwill_credit_default: 10
  loyalty_credit_amount: 5
  callback_window: "today 4-6pm"
  replacement_delivery_days: 2
  refund_eta_days: 3

polish:
  provider: none # none | gemini | openai
  model: ""
  api_key: "" # or set GEMINI_API_KEY / OPENAI_API_KEY

events:
  url: "" # amqp://... enables action event publishing
  exchange: caseflow.actions

storage:
  path: .caseflow/caseflow.db

logging:
  debug: false
`

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Policy: policy.Default(),
		Polish: PolishConfig{
			Provider: "none",
		},
		Events: EventsConfig{
			Exchange: events.DefaultExchange,
		},
		Storage: StorageConfig{
			Path: store.DatabasePath(store.LocalDataPath(".")),
		},
	}
}

// Load builds the configuration. path may be empty, in which case the
// default locations are tried; a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	candidates := defaultPaths
	if path != "" {
		candidates = []string{path}
	}
	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading config %s: %w", candidate, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", candidate, err)
		}
		break
	}

	applyEnv(cfg)

	// Partial policy blocks inherit the named defaults.
	cfg.Policy = cfg.Policy.WithDefaults()
	if cfg.Events.Exchange == "" {
		cfg.Events.Exchange = events.DefaultExchange
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CASEFLOW_POLISH_PROVIDER"); v != "" {
		cfg.Polish.Provider = v
	}
	switch strings.ToLower(cfg.Polish.Provider) {
	case "gemini":
		if v := os.Getenv("GEMINI_API_KEY"); v != "" {
			cfg.Polish.APIKey = v
		}
	case "openai":
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			cfg.Polish.APIKey = v
		}
	}
	if v := os.Getenv("CASEFLOW_AMQP_URL"); v != "" {
		cfg.Events.URL = v
	}
	if v := os.Getenv("CASEFLOW_DB"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("CASEFLOW_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Logging.Debug = b
		}
	}
}
