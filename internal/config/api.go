package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/triage/pkg/formatting"
	"github.com/JaimeStill/triage/pkg/middleware"
	"github.com/JaimeStill/triage/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "TRIAGE_CORS_ENABLED",
	Origins:          "TRIAGE_CORS_ORIGINS",
	AllowedMethods:   "TRIAGE_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "TRIAGE_CORS_ALLOWED_HEADERS",
	AllowCredentials: "TRIAGE_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "TRIAGE_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "TRIAGE_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "TRIAGE_PAGINATION_MAX_PAGE_SIZE",
}

var authEnv = &middleware.AuthEnv{
	Enabled:  "TRIAGE_AUTH_ENABLED",
	Issuer:   "TRIAGE_AUTH_ISSUER",
	ClientID: "TRIAGE_AUTH_CLIENT_ID",
}

// APIConfig holds API routing, request limits, CORS, pagination, and
// reviewer auth settings.
type APIConfig struct {
	BasePath    string                `toml:"base_path"`
	MaxBodySize string                `toml:"max_body_size"`
	CORS        middleware.CORSConfig `toml:"cors"`
	Pagination  pagination.Config     `toml:"pagination"`
	Auth        middleware.AuthConfig `toml:"auth"`
}

// MaxBodySizeBytes returns MaxBodySize in bytes. Valid after Finalize.
func (c *APIConfig) MaxBodySizeBytes() int64 {
	n, _ := formatting.ParseBytes(c.MaxBodySize)
	return n
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "1MB"
	}
	if v := os.Getenv("TRIAGE_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("TRIAGE_API_MAX_BODY_SIZE"); v != "" {
		c.MaxBodySize = v
	}
	if n, err := formatting.ParseBytes(c.MaxBodySize); err != nil || n <= 0 {
		return fmt.Errorf("invalid max_body_size: %q", c.MaxBodySize)
	}

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxBodySize != "" {
		c.MaxBodySize = overlay.MaxBodySize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.Auth.Merge(&overlay.Auth)
}
