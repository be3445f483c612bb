package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvDashboardDir  = "TRIAGE_DASHBOARD_DIR"
	EnvDashboardHost = "TRIAGE_DASHBOARD_HOST"
	EnvDashboardPort = "TRIAGE_DASHBOARD_PORT"
)

// DashboardConfig controls where the static dashboard is written and served.
type DashboardConfig struct {
	Dir  string `toml:"dir"`
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port listen address.
func (c *DashboardConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *DashboardConfig) Finalize() error {
	if c.Dir == "" {
		c.Dir = "."
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 8080
	}

	if v := os.Getenv(EnvDashboardDir); v != "" {
		c.Dir = v
	}
	if v := os.Getenv(EnvDashboardHost); v != "" {
		c.Host = v
	}
	if v := os.Getenv(EnvDashboardPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *DashboardConfig) Merge(overlay *DashboardConfig) {
	if overlay.Dir != "" {
		c.Dir = overlay.Dir
	}
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
}
