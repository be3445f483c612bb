// Package module mounts independently middleware-wrapped handlers under
// single-segment path prefixes ("/api") of one HTTP server.
package module

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/JaimeStill/triage/pkg/middleware"
)

// Module serves requests under its prefix. The prefix is stripped before the
// request reaches the inner handler.
type Module struct {
	prefix     string
	inner      http.Handler
	middleware middleware.System

	once    sync.Once
	handler http.Handler
}

// New creates a Module. prefix must be a single segment with a leading slash.
func New(prefix string, inner http.Handler) (*Module, error) {
	if err := validatePrefix(prefix); err != nil {
		return nil, err
	}
	return &Module{
		prefix:     prefix,
		inner:      inner,
		middleware: middleware.New(),
	}, nil
}

// Prefix returns the module's mount prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware. Middleware added after the first request is
// ignored.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.middleware.Use(mw)
}

// Handler returns the inner handler wrapped in the module middleware.
func (m *Module) Handler() http.Handler {
	m.once.Do(func() {
		m.handler = m.middleware.Apply(m.inner)
	})
	return m.handler
}

// ServeHTTP strips the prefix and dispatches to Handler.
func (m *Module) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	m.Handler().ServeHTTP(w, strip(req, m.prefix))
}

func strip(req *http.Request, prefix string) *http.Request {
	path := strings.TrimPrefix(req.URL.Path, prefix)
	if path == "" {
		path = "/"
	}

	u := *req.URL
	u.Path = path
	u.RawPath = ""

	out := req.Clone(req.Context())
	out.URL = &u
	return out
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case strings.Count(prefix, "/") != 1 || prefix == "/":
		return fmt.Errorf("module prefix must be a single path segment: %s", prefix)
	}
	return nil
}

var _ http.Handler = (*Module)(nil)
