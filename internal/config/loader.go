package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	appName        = "recruitflow"
	configFileName = "config.yaml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "RECRUITFLOW"

	// ConfigPathEnv names an explicit config file.
	ConfigPathEnv = "RECRUITFLOW_CONFIG_PATH"
)

// Short environment aliases for the most common overrides.
var envAliases = map[string]string{
	"server.port":           "RECRUITFLOW_PORT",
	"log.level":             "RECRUITFLOW_LOG_LEVEL",
	"interview.decline_url": "RECRUITFLOW_DECLINE_URL",
}

// Loader handles configuration loading with Viper.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a Loader with a fresh Viper instance.
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// Load resolves configuration from the environment, the config file and
// defaults, in that order of precedence. A missing config file is not an
// error.
func (l *Loader) Load() (*Config, error) {
	_ = godotenv.Load()
	l.configure()

	if path := os.Getenv(ConfigPathEnv); path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		return l.unmarshal()
	}

	l.v.SetConfigName(strings.TrimSuffix(configFileName, filepath.Ext(configFileName)))
	l.v.SetConfigType("yaml")
	if dir, err := ConfigDir(); err == nil {
		l.v.AddConfigPath(dir)
	}
	l.v.AddConfigPath(".")

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return l.unmarshal()
}

// LoadFromFile loads configuration from path. The format follows the file
// extension. Environment overrides still apply.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	l.configure()
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return l.unmarshal()
}

func (l *Loader) configure() {
	defaults := DefaultConfig()
	l.v.SetDefault("server.host", defaults.Server.Host)
	l.v.SetDefault("server.port", defaults.Server.Port)
	l.v.SetDefault("log.level", defaults.Log.Level)
	l.v.SetDefault("output.color", defaults.Output.Color)
	l.v.SetDefault("output.bar_width", defaults.Output.BarWidth)
	l.v.SetDefault("interview.decline_url", defaults.Interview.DeclineURL)
	l.v.SetDefault("import.ats_delay", defaults.Import.ATSDelay)
	l.v.SetDefault("import.feed_dir", defaults.Import.FeedDir)
	l.v.SetDefault("manifests", defaults.Manifests)

	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
	for key, env := range envAliases {
		_ = l.v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if cfg.Manifests == nil {
		cfg.Manifests = map[string]string{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad loads configuration and panics on error.
func MustLoad() *Config {
	cfg, err := NewLoader().Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// ConfigDir returns the platform config directory for recruitflow.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config dir: %w", err)
	}
	return filepath.Join(base, appName), nil
}

// DefaultConfigPath returns the config file path inside [ConfigDir].
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// EnsureConfigDir creates [ConfigDir] if needed.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	return nil
}
