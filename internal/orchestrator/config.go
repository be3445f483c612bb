package orchestrator

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Environment variables read by DefaultEnv.
const (
	EnvURL            = "UIPATH_URL"
	EnvAccessToken    = "UIPATH_ACCESS_TOKEN"
	EnvTenantID       = "UIPATH_TENANT_ID"
	EnvOrganizationID = "UIPATH_ORGANIZATION_ID"
)

// DefaultEnv maps the connection fields to the platform's conventional
// variable names.
var DefaultEnv = &Env{
	URL:            EnvURL,
	AccessToken:    EnvAccessToken,
	TenantID:       EnvTenantID,
	OrganizationID: EnvOrganizationID,
}

// Config holds orchestration platform connection settings. TenantID is sent
// as the organization-unit header.
type Config struct {
	URL            string `toml:"url"`
	AccessToken    string `toml:"access_token"`
	TenantID       string `toml:"tenant_id"`
	OrganizationID string `toml:"organization_id"`
	TenantName     string `toml:"tenant_name"`
	Timeout        string `toml:"timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	URL            string
	AccessToken    string
	TenantID       string
	OrganizationID string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// BaseURL returns the orchestrator API root: the configured URL with any
// trailing tenant segment removed, then re-qualified with TenantName.
func (c *Config) BaseURL() string {
	base := strings.TrimRight(c.URL, "/")
	base = strings.TrimSuffix(base, "/"+c.TenantName)
	return fmt.Sprintf("%s/%s/orchestrator_", base, c.TenantName)
}

// MonitorURL returns the jobs page an operator can open to follow a run.
func (c *Config) MonitorURL() string {
	return strings.TrimRight(c.URL, "/") + "/orchestrator_/jobs"
}

// Finalize applies defaults, environment variable overrides, and validation.
// A missing connection value yields ErrConfigMissing naming the variable.
func (c *Config) Finalize(env *Env) error {
	if c.TenantName == "" {
		c.TenantName = "DefaultTenant"
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if env == nil {
		env = &Env{}
	}

	required := []struct {
		dst  *string
		name string
	}{
		{&c.URL, env.URL},
		{&c.AccessToken, env.AccessToken},
		{&c.TenantID, env.TenantID},
		{&c.OrganizationID, env.OrganizationID},
	}

	for _, r := range required {
		if r.name != "" {
			if v := os.Getenv(r.name); v != "" {
				*r.dst = v
			}
		}
	}

	for _, r := range required {
		if *r.dst == "" {
			return fmt.Errorf("%w: %s", ErrConfigMissing, r.name)
		}
	}

	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	for dst, v := range map[*string]string{
		&c.URL:            overlay.URL,
		&c.AccessToken:    overlay.AccessToken,
		&c.TenantID:       overlay.TenantID,
		&c.OrganizationID: overlay.OrganizationID,
		&c.TenantName:     overlay.TenantName,
		&c.Timeout:        overlay.Timeout,
	} {
		if v != "" {
			*dst = v
		}
	}
}
