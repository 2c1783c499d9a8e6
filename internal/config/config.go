package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreYAML   = "yaml"
)

// Config holds the impit configuration.
type Config struct {
	// DataDir holds the cookie store and the default config file.
	DataDir string `yaml:"data_dir"`

	// Store selects the cookie store backend ("sqlite" or "yaml").
	Store string `yaml:"store"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `yaml:"log_format"`

	// Timeout bounds outgoing requests.
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	return Config{
		DataDir:   filepath.Join(home, ".impit"),
		Store:     StoreSQLite,
		LogLevel:  "warn",
		LogFormat: "text",
		Timeout:   30 * time.Second,
	}
}

// Option is a function that modifies the Config.
type Option func(*Config)

// WithDataDir sets the data directory.
func WithDataDir(dir string) Option {
	return func(c *Config) {
		c.DataDir = dir
	}
}

// WithStore sets the store backend.
func WithStore(store string) Option {
	return func(c *Config) {
		c.Store = store
	}
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) Option {
	return func(c *Config) {
		c.LogLevel = level
	}
}

// Load builds the configuration from defaults, the YAML file at path,
// IMPIT_* environment variables and opts, in that order. An empty path
// reads config.yaml in the data directory, as chosen by IMPIT_DATA_DIR or
// opts, if it exists.
func Load(path string, opts ...Option) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = filepath.Join(dataDir(cfg, opts), "config.yaml")
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.DataDir = getEnv("IMPIT_DATA_DIR", cfg.DataDir)
	cfg.LogLevel = getEnv("IMPIT_LOG_LEVEL", cfg.LogLevel)

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// dataDir resolves the data directory before any config file is read.
func dataDir(cfg Config, opts []Option) string {
	cfg.DataDir = getEnv("IMPIT_DATA_DIR", cfg.DataDir)
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg.DataDir
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	switch c.Store {
	case StoreSQLite, StoreYAML:
	default:
		return fmt.Errorf("unknown store %q (want %s or %s)", c.Store, StoreSQLite, StoreYAML)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

// StorePath returns the file backing the configured store.
func (c Config) StorePath() string {
	if c.Store == StoreYAML {
		return filepath.Join(c.DataDir, "cookies.yaml")
	}
	return filepath.Join(c.DataDir, "cookies.db")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
