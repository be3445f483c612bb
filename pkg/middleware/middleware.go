// Package middleware provides composable HTTP middleware: an ordered stack,
// request logging, CORS, and bearer-token authentication.
package middleware

import "net/http"

// System manages an ordered stack of HTTP middleware.
type System interface {
	Use(mw func(http.Handler) http.Handler)
	Apply(handler http.Handler) http.Handler
}

type stack struct {
	fns []func(http.Handler) http.Handler
}

// New creates an empty middleware System.
func New() System {
	return &stack{}
}

func (s *stack) Use(fn func(http.Handler) http.Handler) {
	s.fns = append(s.fns, fn)
}

// Apply wraps handler so the first middleware registered is the outermost.
func (s *stack) Apply(handler http.Handler) http.Handler {
	for i := len(s.fns) - 1; i >= 0; i-- {
		handler = s.fns[i](handler)
	}
	return handler
}
