// Package config loads gamelink settings for the demo binary and any host
// process that prefers file-driven setup over building Config values in code.
// Lifecycle: defaults -> yaml file -> env overrides -> validate.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	Connection ConnectionConfig `yaml:"connection"`
	Client     ClientConfig     `yaml:"client"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ConnectionConfig holds the realtime database endpoint settings.
type ConnectionConfig struct {
	URL      string `yaml:"url"`
	Database string `yaml:"database"`
	Token    string `yaml:"token"`
}

// ClientConfig holds bridge and loop tuning.
type ClientConfig struct {
	// QueueCapacity is the per-event-queue buffer size.
	QueueCapacity int `yaml:"queue_capacity"`

	// TickInterval is the loop cycle period.
	TickInterval time.Duration `yaml:"tick_interval"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Default returns the configuration used when no file or env overrides exist.
func Default() *Config {
	return &Config{
		Connection: ConnectionConfig{
			URL: "ws://localhost:8080/realtime",
		},
		Client: ClientConfig{
			QueueCapacity: 256,
			TickInterval:  50 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the given yaml file, if it exists, then
// applies environment overrides and validates. path may be empty.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills in missing values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Client.QueueCapacity <= 0 {
		c.Client.QueueCapacity = 256
	}
	if c.Client.TickInterval <= 0 {
		c.Client.TickInterval = 50 * time.Millisecond
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("GAMELINK_URL"); v != "" {
		c.Connection.URL = v
	}
	if v := os.Getenv("GAMELINK_DATABASE"); v != "" {
		c.Connection.Database = v
	}
	if v := os.Getenv("GAMELINK_TOKEN"); v != "" {
		c.Connection.Token = v
	}
	if v := os.Getenv("GAMELINK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("GAMELINK_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Connection.URL == "" {
		return fmt.Errorf("connection url cannot be empty")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	return nil
}
