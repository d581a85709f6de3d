// Package config provides configuration loading and management for recruitflow.
//
// Configuration is loaded using Viper, supporting YAML or JSON config files
// and environment variable overrides. A .env file in the working directory is
// loaded first, so its values count as environment variables.
//
// Key types:
//   - [Config] is the root configuration container with all settings
//   - [Loader] handles Viper-based configuration loading
//
// Configuration priority (highest to lowest):
//  1. Environment variables (RECRUITFLOW_ prefix, plus the short aliases
//     RECRUITFLOW_PORT, RECRUITFLOW_LOG_LEVEL and RECRUITFLOW_DECLINE_URL)
//  2. Config file specified by RECRUITFLOW_CONFIG_PATH
//  3. User config directory (platform-standard):
//     - Linux: ~/.config/recruitflow/config.yaml
//     - macOS: ~/Library/Application Support/recruitflow/config.yaml
//     - Windows: %APPDATA%\recruitflow\config.yaml
//  4. ./config.yaml
//  5. [DefaultConfig] defaults
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config represents the root configuration structure.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Output    OutputConfig    `mapstructure:"output"`
	Interview InterviewConfig `mapstructure:"interview"`
	Import    ImportConfig    `mapstructure:"import"`

	// Manifests maps extra workflow names to manifest files (CSV or YAML)
	// registered next to the built-in workflows.
	Manifests map[string]string `mapstructure:"manifests" validate:"dive,keys,required,endkeys,required"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host string `mapstructure:"host"`

	// Port can be overridden with RECRUITFLOW_PORT.
	// Default: 8080
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

// Addr returns host:port for listening.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LogConfig configures the slog default logger.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	// Default: "info"
	Level string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
}

// OutputConfig contains terminal output formatting configuration.
type OutputConfig struct {
	// Color enables lipgloss styling.
	// Default: true
	Color bool `mapstructure:"color"`

	// BarWidth is the progress bar width in cells.
	// Default: 30
	BarWidth int `mapstructure:"bar_width" validate:"min=1,max=200"`
}

// InterviewConfig configures the candidate-interview workflow.
type InterviewConfig struct {
	// DeclineURL is where a declining candidate is redirected. Can be
	// overridden with RECRUITFLOW_DECLINE_URL.
	DeclineURL string `mapstructure:"decline_url" validate:"omitempty,uri"`
}

// ImportConfig configures candidate import.
type ImportConfig struct {
	// ATSDelay simulates ATS latency for the built-in mock providers.
	// Default: 500ms
	ATSDelay time.Duration `mapstructure:"ats_delay"`

	// FeedDir, when set, makes ATS imports read <provider>.jsonl feeds from
	// this directory instead of the mock providers.
	FeedDir string `mapstructure:"feed_dir"`
}

// DefaultConfig returns a new [Config] with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Log: LogConfig{
			Level: "info",
		},
		Output: OutputConfig{
			Color:    true,
			BarWidth: 30,
		},
		Interview: InterviewConfig{
			DeclineURL: "/interview/declined",
		},
		Import: ImportConfig{
			ATSDelay: 500 * time.Millisecond,
		},
		Manifests: map[string]string{},
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Import.ATSDelay < 0 {
		return fmt.Errorf("invalid config: import.ats_delay must not be negative")
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
