// Package config loads service configuration from config.toml, an optional
// environment overlay, and TRIAGE_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/triage/internal/orchestrator"
	"github.com/JaimeStill/triage/pkg/database"
	"github.com/JaimeStill/triage/pkg/events"
	"github.com/JaimeStill/triage/pkg/storage"
	"github.com/JaimeStill/triage/pkg/tracing"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvTriageEnv             = "TRIAGE_ENV"
	EnvTriageShutdownTimeout = "TRIAGE_SHUTDOWN_TIMEOUT"
	EnvTriageVersion         = "TRIAGE_VERSION"
	EnvTriageLogLevel        = "TRIAGE_LOG_LEVEL"
)

var databaseEnv = &database.Env{
	Host:            "TRIAGE_DB_HOST",
	Port:            "TRIAGE_DB_PORT",
	Name:            "TRIAGE_DB_NAME",
	User:            "TRIAGE_DB_USER",
	Password:        "TRIAGE_DB_PASSWORD",
	SSLMode:         "TRIAGE_DB_SSL_MODE",
	MaxOpenConns:    "TRIAGE_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "TRIAGE_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "TRIAGE_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "TRIAGE_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "TRIAGE_STORAGE_CONTAINER_NAME",
	ConnectionString: "TRIAGE_STORAGE_CONNECTION_STRING",
	AccountURL:       "TRIAGE_STORAGE_ACCOUNT_URL",
}

var eventsEnv = &events.Env{
	Brokers:      "TRIAGE_EVENTS_BROKERS",
	RunsTopic:    "TRIAGE_EVENTS_RUNS_TOPIC",
	JobsTopic:    "TRIAGE_EVENTS_JOBS_TOPIC",
	BatchTimeout: "TRIAGE_EVENTS_BATCH_TIMEOUT",
}

var tracingEnv = &tracing.Env{
	Enabled: "TRIAGE_TRACING_ENABLED",
	Output:  "TRIAGE_TRACING_OUTPUT",
}

// Config is the root configuration shared by every triage command.
type Config struct {
	Server          ServerConfig        `toml:"server"`
	Database        database.Config     `toml:"database"`
	Storage         storage.Config      `toml:"storage"`
	Events          events.Config       `toml:"events"`
	Tracing         tracing.Config      `toml:"tracing"`
	Orchestrator    orchestrator.Config `toml:"orchestrator"`
	Agent           AgentConfig         `toml:"agent"`
	Classifier      ClassifierConfig    `toml:"classifier"`
	API             APIConfig           `toml:"api"`
	Dashboard       DashboardConfig     `toml:"dashboard"`
	ShutdownTimeout string              `toml:"shutdown_timeout"`
	Version         string              `toml:"version"`
	LogLevel        string              `toml:"log_level"`
}

// Env returns the TRIAGE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvTriageEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Level returns LogLevel as a slog.Level.
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
//
// The orchestrator section is not validated here; commands that talk to
// the platform call FinalizeOrchestrator.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// FinalizeOrchestrator reads the platform connection variables and fails
// with orchestrator.ErrConfigMissing when any is absent.
func (c *Config) FinalizeOrchestrator() error {
	if err := c.Orchestrator.Finalize(orchestrator.DefaultEnv); err != nil {
		return fmt.Errorf("orchestrator: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Events.Merge(&overlay.Events)
	c.Tracing.Merge(&overlay.Tracing)
	c.Orchestrator.Merge(&overlay.Orchestrator)
	c.Agent.Merge(&overlay.Agent)
	c.Classifier.Merge(&overlay.Classifier)
	c.API.Merge(&overlay.API)
	c.Dashboard.Merge(&overlay.Dashboard)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"server", c.Server.Finalize},
		{"database", func() error { return c.Database.Finalize(databaseEnv) }},
		{"storage", func() error { return c.Storage.Finalize(storageEnv) }},
		{"events", func() error { return c.Events.Finalize(eventsEnv) }},
		{"tracing", func() error { return c.Tracing.Finalize(tracingEnv) }},
		{"agent", c.Agent.Finalize},
		{"classifier", c.Classifier.Finalize},
		{"api", c.API.Finalize},
		{"dashboard", c.Dashboard.Finalize},
	}

	for _, s := range steps {
		if err := s.fn(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvTriageShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvTriageVersion); v != "" {
		c.Version = v
	}
	if v := os.Getenv(EnvTriageLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvTriageEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
