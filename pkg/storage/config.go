package storage

import (
	"fmt"
	"os"
)

// Config holds Azure Blob Storage connection parameters. Storage is optional:
// when neither ConnectionString nor AccountURL is set, Enabled reports false
// and callers skip archiving.
type Config struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	AccountURL       string `toml:"account_url"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ContainerName    string
	ConnectionString string
	AccountURL       string
}

// Enabled reports whether any storage endpoint is configured.
func (c *Config) Enabled() bool {
	return c.ConnectionString != "" || c.AccountURL != ""
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if c.ContainerName == "" {
		c.ContainerName = "artifacts"
	}
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.AccountURL != "" {
		c.AccountURL = overlay.AccountURL
	}
}

func (c *Config) loadEnv(env *Env) {
	for dst, name := range map[*string]string{
		&c.ContainerName:    env.ContainerName,
		&c.ConnectionString: env.ConnectionString,
		&c.AccountURL:       env.AccountURL,
	} {
		if name == "" {
			continue
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
}

func (c *Config) validate() error {
	if c.ContainerName == "" {
		return fmt.Errorf("container_name required")
	}
	if c.ConnectionString != "" && c.AccountURL != "" {
		return fmt.Errorf("connection_string and account_url are mutually exclusive")
	}
	return nil
}
