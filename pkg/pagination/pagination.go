// Package pagination provides page request normalization and paged result
// envelopes for list endpoints.
package pagination

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
)

// Config holds page size limits.
type Config struct {
	DefaultPageSize int `toml:"default_page_size"`
	MaxPageSize     int `toml:"max_page_size"`
}

// ConfigEnv maps environment variable names for pagination configuration.
type ConfigEnv struct {
	DefaultPageSize string
	MaxPageSize     string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *ConfigEnv) error {
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 20
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = 100
	}

	if env != nil {
		if n, ok := envInt(env.DefaultPageSize); ok {
			c.DefaultPageSize = n
		}
		if n, ok := envInt(env.MaxPageSize); ok {
			c.MaxPageSize = n
		}
	}

	if c.DefaultPageSize < 1 || c.MaxPageSize < 1 {
		return fmt.Errorf("page sizes must be positive")
	}
	if c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("default_page_size cannot exceed max_page_size")
	}
	return nil
}

// Merge applies non-zero values from the overlay configuration.
func (c *Config) Merge(overlay *Config) {
	if overlay.DefaultPageSize != 0 {
		c.DefaultPageSize = overlay.DefaultPageSize
	}
	if overlay.MaxPageSize != 0 {
		c.MaxPageSize = overlay.MaxPageSize
	}
}

// PageRequest identifies a one-based page of results with optional free
// text search and a sort expression such as "status,-created_at".
type PageRequest struct {
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	Search   *string `json:"search,omitempty"`
	Sort     string  `json:"sort,omitempty"`
}

// Normalize clamps the request to valid values for cfg.
func (r *PageRequest) Normalize(cfg Config) {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = cfg.DefaultPageSize
	}
	if r.PageSize > cfg.MaxPageSize {
		r.PageSize = cfg.MaxPageSize
	}
}

// Offset is the number of records to skip.
func (r *PageRequest) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// PageRequestFromQuery parses page, page_size, search and sort from URL
// query values.
func PageRequestFromQuery(values url.Values, cfg Config) PageRequest {
	page, _ := strconv.Atoi(values.Get("page"))
	pageSize, _ := strconv.Atoi(values.Get("page_size"))

	req := PageRequest{
		Page:     page,
		PageSize: pageSize,
		Sort:     values.Get("sort"),
	}
	if s := values.Get("search"); s != "" {
		req.Search = &s
	}

	req.Normalize(cfg)
	return req
}

// PageResult holds a page of data along with pagination metadata.
type PageResult[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// NewPageResult creates a PageResult with calculated total pages.
func NewPageResult[T any](data []T, total, page, pageSize int) PageResult[T] {
	totalPages := 1
	if pageSize > 0 {
		totalPages = max((total+pageSize-1)/pageSize, 1)
	}

	if data == nil {
		data = []T{}
	}

	return PageResult[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

func envInt(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	n, err := strconv.Atoi(os.Getenv(name))
	return n, err == nil
}
