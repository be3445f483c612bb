package module_test

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/JaimeStill/triage/pkg/module"
)

type readiness bool

func (r readiness) Ready() bool { return bool(r) }

func echoPath() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.URL.Path))
	})
	return mux
}

func mustModule(t *testing.T, prefix string, h http.Handler) *module.Module {
	t.Helper()
	m, err := module.New(prefix, h)
	if err != nil {
		t.Fatalf("New(%q) error = %v", prefix, err)
	}
	return m
}

func TestNewPrefixValidation(t *testing.T) {
	tests := []struct {
		prefix  string
		wantErr bool
	}{
		{"/api", false},
		{"/dashboard", false},
		{"", true},
		{"/", true},
		{"api", true},
		{"/api/v1", true},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			_, err := module.New(tt.prefix, http.NewServeMux())
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%q) error = %v, wantErr %v", tt.prefix, err, tt.wantErr)
			}
		})
	}
}

func TestModuleStripsPrefix(t *testing.T) {
	m := mustModule(t, "/api", echoPath())

	tests := []struct {
		path string
		want string
	}{
		{"/api/runs", "/runs"},
		{"/api/runs/abc/resume", "/runs/abc/resume"},
		{"/api", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("GET", tt.path, nil)
			m.ServeHTTP(rec, req)

			if got := rec.Body.String(); got != tt.want {
				t.Errorf("inner path = %q, want %q", got, tt.want)
			}
			if req.URL.Path != tt.path {
				t.Errorf("original request mutated to %q", req.URL.Path)
			}
		})
	}
}

func TestModuleMiddlewareOrder(t *testing.T) {
	m := mustModule(t, "/api", echoPath())

	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	m.Use(tag("first"))
	m.Use(tag("second"))

	m.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/runs", nil))

	if !slices.Equal(order, []string{"first", "second"}) {
		t.Errorf("middleware order = %v", order)
	}
}

func TestRouterDispatch(t *testing.T) {
	router := module.NewRouter()
	if err := router.Mount(mustModule(t, "/api", echoPath())); err != nil {
		t.Fatal(err)
	}
	router.Handle("GET /dashboard.html", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("dashboard"))
	}))

	tests := []struct {
		name string
		path string
		want string
	}{
		{"module", "/api/runs", "/runs"},
		{"trailing slash", "/api/runs/", "/runs"},
		{"fallback", "/dashboard.html", "dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			if got := rec.Body.String(); got != tt.want {
				t.Errorf("body = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRouterMountDuplicate(t *testing.T) {
	router := module.NewRouter()
	if err := router.Mount(mustModule(t, "/api", echoPath())); err != nil {
		t.Fatal(err)
	}
	if err := router.Mount(mustModule(t, "/api", echoPath())); err == nil {
		t.Error("expected error mounting a second module at /api")
	}
	if err := router.Mount(mustModule(t, "/admin", echoPath())); err != nil {
		t.Fatal(err)
	}

	if got := router.Prefixes(); !slices.Equal(got, []string{"/admin", "/api"}) {
		t.Errorf("Prefixes() = %v", got)
	}
}

func TestRouterHealth(t *testing.T) {
	tests := []struct {
		name  string
		ready bool
		path  string
		want  int
	}{
		{"healthz before ready", false, "/healthz", http.StatusOK},
		{"readyz before ready", false, "/readyz", http.StatusServiceUnavailable},
		{"readyz after ready", true, "/readyz", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := module.NewRouter()
			router.Health(readiness(tt.ready))

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}
