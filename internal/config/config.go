// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultStreamIdleTimeout fails a tailoring run that sends nothing for this long
const DefaultStreamIdleTimeout = 10 * time.Minute

// Environment variables read by FromEnv
const (
	EnvDatabaseURL       = "DATABASE_URL"
	EnvRedisAddr         = "REDIS_ADDR"
	EnvBackendURL        = "TAILOR_BACKEND_URL"
	EnvTransport         = "TAILOR_TRANSPORT"
	EnvToken             = "RESUME_EDITOR_TOKEN"
	EnvStreamIdleTimeout = "STREAM_IDLE_TIMEOUT"
)

// Config represents the CLI configuration that can be loaded from a JSON or YAML file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Document source: a local JSON snapshot or a database, never both
	Document    string `json:"document,omitempty" yaml:"document,omitempty"`         // Path to a local resume snapshot file
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"` // PostgreSQL connection URL
	ResumeID    string `json:"resume_id,omitempty" yaml:"resume_id,omitempty" validate:"omitempty,uuid"`

	// Notifications
	RedisAddr string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty" validate:"omitempty,hostname_port"`

	// Tailoring backend
	BackendURL        string `json:"backend_url,omitempty" yaml:"backend_url,omitempty" validate:"omitempty,url"`
	Transport         string `json:"transport,omitempty" yaml:"transport,omitempty" validate:"omitempty,oneof=sse websocket"`
	Token             string `json:"token,omitempty" yaml:"token,omitempty"`                             // Session JWT
	StreamIdleTimeout string `json:"stream_idle_timeout,omitempty" yaml:"stream_idle_timeout,omitempty"` // e.g. "10m"; "0" disables

	// Behavior
	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"` // Print detailed debug information
	Strict  bool `json:"strict,omitempty" yaml:"strict,omitempty"`   // Panic on editor guard violations
}

// LoadConfig loads configuration from a JSON file, or a YAML file when the
// extension is .yaml or .yml. Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// FromEnv builds a configuration from environment variables. Call godotenv.Load
// first to pick up a .env file.
func FromEnv() Config {
	return Config{
		DatabaseURL:       os.Getenv(EnvDatabaseURL),
		RedisAddr:         os.Getenv(EnvRedisAddr),
		BackendURL:        os.Getenv(EnvBackendURL),
		Transport:         os.Getenv(EnvTransport),
		Token:             os.Getenv(EnvToken),
		StreamIdleTimeout: os.Getenv(EnvStreamIdleTimeout),
	}
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	// Validate mutually exclusive fields
	if c.Document != "" && c.DatabaseURL != "" {
		return fmt.Errorf("config error: 'document' and 'database_url' are mutually exclusive")
	}

	if _, err := c.IdleTimeout(); err != nil {
		return err
	}
	return nil
}

// IdleTimeout parses StreamIdleTimeout, falling back to DefaultStreamIdleTimeout
func (c *Config) IdleTimeout() (time.Duration, error) {
	switch c.StreamIdleTimeout {
	case "":
		return DefaultStreamIdleTimeout, nil
	case "0":
		return 0, nil
	}
	d, err := time.ParseDuration(c.StreamIdleTimeout)
	if err != nil {
		return 0, fmt.Errorf("config error: invalid 'stream_idle_timeout' %q: %w", c.StreamIdleTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config error: 'stream_idle_timeout' must be non-negative")
	}
	return d, nil
}

// MergeWithDefaults returns a new Config with empty string fields filled from defaults.
// This is used to apply config file and environment values beneath CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	fill := func(field *string, fallback string) {
		if *field == "" {
			*field = fallback
		}
	}
	fill(&result.Document, defaults.Document)
	fill(&result.ResumeID, defaults.ResumeID)
	fill(&result.RedisAddr, defaults.RedisAddr)
	fill(&result.BackendURL, defaults.BackendURL)
	fill(&result.Transport, defaults.Transport)
	fill(&result.Token, defaults.Token)
	fill(&result.StreamIdleTimeout, defaults.StreamIdleTimeout)
	// A local document wins over an inherited database
	if result.Document == "" {
		fill(&result.DatabaseURL, defaults.DatabaseURL)
	}

	// Bool fields: cannot distinguish unset from false, so true wins
	result.Verbose = result.Verbose || defaults.Verbose
	result.Strict = result.Strict || defaults.Strict

	return result
}
