package web

import (
	"net/http"

	"github.com/JaimeStill/triage/pkg/routes"
)

// Router wraps http.ServeMux with an optional fallback for unmatched paths.
type Router struct {
	mux      *http.ServeMux
	fallback http.HandlerFunc
}

// NewRouter creates a Router with default ServeMux behavior.
func NewRouter() *Router {
	return &Router{mux: http.NewServeMux()}
}

// SetFallback configures the handler for unmatched routes.
func (r *Router) SetFallback(handler http.HandlerFunc) {
	r.fallback = handler
}

// Handle registers a handler for the given pattern.
func (r *Router) Handle(pattern string, handler http.Handler) {
	r.mux.Handle(pattern, handler)
}

// HandleFunc registers a handler function for the given pattern.
func (r *Router) HandleFunc(pattern string, handler http.HandlerFunc) {
	r.mux.HandleFunc(pattern, handler)
}

// Register adds route groups to the underlying mux.
func (r *Router) Register(groups ...routes.Group) {
	routes.Register(r.mux, groups...)
}

// ServeHTTP dispatches to the mux, or to the fallback when no pattern matches.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if _, pattern := r.mux.Handler(req); pattern == "" && r.fallback != nil {
		r.fallback.ServeHTTP(w, req)
		return
	}
	r.mux.ServeHTTP(w, req)
}
