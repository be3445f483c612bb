package module

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/JaimeStill/triage/pkg/lifecycle"
)

// Router dispatches to mounted modules by first path segment. Requests with
// no matching module go to a fallback ServeMux.
type Router struct {
	modules  map[string]*Module
	fallback *http.ServeMux
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{
		modules:  make(map[string]*Module),
		fallback: http.NewServeMux(),
	}
}

// Mount registers m under its prefix. Mounting two modules at one prefix is
// an error.
func (r *Router) Mount(m *Module) error {
	if _, ok := r.modules[m.prefix]; ok {
		return fmt.Errorf("module already mounted at %s", m.prefix)
	}
	r.modules[m.prefix] = m
	return nil
}

// Prefixes lists mounted module prefixes in sorted order.
func (r *Router) Prefixes() []string {
	out := make([]string, 0, len(r.modules))
	for p := range r.modules {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Handle registers handler on the fallback mux.
func (r *Router) Handle(pattern string, handler http.Handler) {
	r.fallback.Handle(pattern, handler)
}

// Health registers GET /healthz, always ok, and GET /readyz, which reports
// 503 until checker is ready.
func (r *Router) Health(checker lifecycle.ReadinessChecker) {
	r.fallback.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.fallback.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !checker.Ready() {
			writeStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimSuffix(req.URL.Path, "/")
	if path == "" {
		path = "/"
	}
	req.URL.Path = path

	if m, ok := r.modules[firstSegment(path)]; ok {
		m.ServeHTTP(w, req)
		return
	}
	r.fallback.ServeHTTP(w, req)
}

func firstSegment(path string) string {
	rest, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	return "/" + rest
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
