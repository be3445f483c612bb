package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/JaimeStill/triage/pkg/middleware"
)

func ok() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestApplyOrder(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	sys := middleware.New()
	sys.Use(tag("cors"))
	sys.Use(tag("logger"))
	sys.Use(tag("auth"))

	h := sys.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	want := []string{"cors", "logger", "auth", "handler"}
	if !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestCORS(t *testing.T) {
	enabled := &middleware.CORSConfig{
		Enabled:          true,
		Origins:          []string{"http://reviewer.local"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           600,
	}

	tests := []struct {
		name        string
		cfg         *middleware.CORSConfig
		method      string
		origin      string
		wantStatus  int
		wantOrigin  string
		wantMethods string
	}{
		{"disabled", &middleware.CORSConfig{}, "GET", "http://reviewer.local", http.StatusOK, "", ""},
		{"allowed origin", enabled, "GET", "http://reviewer.local", http.StatusOK, "http://reviewer.local", "GET, POST"},
		{"denied origin", enabled, "GET", "http://other.local", http.StatusOK, "", ""},
		{"preflight", enabled, "OPTIONS", "http://reviewer.local", http.StatusNoContent, "http://reviewer.local", "GET, POST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/runs", nil)
			req.Header.Set("Origin", tt.origin)
			middleware.CORS(tt.cfg)(ok()).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allow-origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := rec.Header().Get("Access-Control-Allow-Methods"); got != tt.wantMethods {
				t.Errorf("allow-methods = %q, want %q", got, tt.wantMethods)
			}
			if tt.wantOrigin != "" {
				if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
					t.Errorf("allow-credentials = %q", got)
				}
				if got := rec.Header().Get("Access-Control-Max-Age"); got != "600" {
					t.Errorf("max-age = %q", got)
				}
			}
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := middleware.Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/runs/abc/resume?x=1", nil))

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	out := buf.String()
	for _, want := range []string{"method=POST", "uri=\"/runs/abc/resume?x=1\"", "status=409", "duration="} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}

type stubVerifier map[string]string

func (s stubVerifier) Verify(_ context.Context, raw string) (string, error) {
	if subject, ok := s[raw]; ok {
		return subject, nil
	}
	return "", errors.New("invalid token")
}

func TestAuth(t *testing.T) {
	verifier := stubVerifier{"good-token": "jane"}

	var subject string
	h := middleware.Auth(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, _ = middleware.Subject(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name        string
		method      string
		header      string
		wantStatus  int
		wantSubject string
	}{
		{"valid token", "POST", "Bearer good-token", http.StatusOK, "jane"},
		{"missing header", "POST", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "POST", "Basic good-token", http.StatusUnauthorized, ""},
		{"empty token", "POST", "Bearer  ", http.StatusUnauthorized, ""},
		{"invalid token", "POST", "Bearer forged", http.StatusUnauthorized, ""},
		{"preflight passes", "OPTIONS", "", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject = ""
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/runs", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if subject != tt.wantSubject {
				t.Errorf("subject = %q, want %q", subject, tt.wantSubject)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if rec.Header().Get("WWW-Authenticate") == "" {
					t.Error("missing WWW-Authenticate header")
				}
				var body map[string]string
				json.NewDecoder(rec.Body).Decode(&body)
				if body["error"] != middleware.ErrUnauthorized.Error() {
					t.Errorf("error body = %v", body)
				}
			}
		})
	}
}

func TestSubject(t *testing.T) {
	if _, ok := middleware.Subject(context.Background()); ok {
		t.Error("Subject() ok on empty context")
	}
	if _, ok := middleware.Subject(middleware.WithSubject(context.Background(), "")); ok {
		t.Error("Subject() ok for empty subject")
	}
	got, ok := middleware.Subject(middleware.WithSubject(context.Background(), "jane"))
	if !ok || got != "jane" {
		t.Errorf("Subject() = %q, %v", got, ok)
	}
}

func TestNewOIDCVerifierDiscoveryFails(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cfg := &middleware.AuthConfig{Enabled: ptr(true), Issuer: srv.URL, ClientID: "triage"}
	if _, err := middleware.NewOIDCVerifier(t.Context(), cfg); err == nil {
		t.Error("expected discovery error")
	}
}

func TestCORSConfigFinalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var cfg middleware.CORSConfig
		if err := cfg.Finalize(nil); err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(cfg.AllowedMethods, []string{"GET", "POST", "DELETE", "OPTIONS"}) {
			t.Errorf("allowed_methods = %v", cfg.AllowedMethods)
		}
		if !slices.Equal(cfg.AllowedHeaders, []string{"Content-Type", "Authorization"}) {
			t.Errorf("allowed_headers = %v", cfg.AllowedHeaders)
		}
		if cfg.MaxAge != 3600 {
			t.Errorf("max_age = %d, want 3600", cfg.MaxAge)
		}
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv("TEST_CORS_ENABLED", "true")
		t.Setenv("TEST_CORS_ORIGINS", "http://a.local, http://b.local")
		t.Setenv("TEST_CORS_MAX_AGE", "60")

		var cfg middleware.CORSConfig
		err := cfg.Finalize(&middleware.CORSEnv{
			Enabled: "TEST_CORS_ENABLED",
			Origins: "TEST_CORS_ORIGINS",
			MaxAge:  "TEST_CORS_MAX_AGE",
		})
		if err != nil {
			t.Fatal(err)
		}
		if !cfg.Enabled {
			t.Error("enabled = false")
		}
		if !slices.Equal(cfg.Origins, []string{"http://a.local", "http://b.local"}) {
			t.Errorf("origins = %v", cfg.Origins)
		}
		if cfg.MaxAge != 60 {
			t.Errorf("max_age = %d, want 60", cfg.MaxAge)
		}
	})
}

func TestCORSConfigMerge(t *testing.T) {
	base := middleware.CORSConfig{
		Origins:        []string{"http://base.local"},
		AllowedMethods: []string{"GET"},
		MaxAge:         3600,
	}
	base.Merge(&middleware.CORSConfig{
		Enabled: true,
		Origins: []string{"http://overlay.local"},
		MaxAge:  7200,
	})

	if !base.Enabled {
		t.Error("enabled = false after merge")
	}
	if !slices.Equal(base.Origins, []string{"http://overlay.local"}) {
		t.Errorf("origins = %v", base.Origins)
	}
	if !slices.Equal(base.AllowedMethods, []string{"GET"}) {
		t.Errorf("allowed_methods = %v", base.AllowedMethods)
	}
	if base.MaxAge != 7200 {
		t.Errorf("max_age = %d", base.MaxAge)
	}
}

func TestAuthConfigFinalize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     middleware.AuthConfig
		wantErr bool
	}{
		{"disabled", middleware.AuthConfig{}, false},
		{"explicitly disabled", middleware.AuthConfig{Enabled: ptr(false)}, false},
		{"enabled complete", middleware.AuthConfig{Enabled: ptr(true), Issuer: "https://idp.local", ClientID: "triage"}, false},
		{"missing issuer", middleware.AuthConfig{Enabled: ptr(true), ClientID: "triage"}, true},
		{"missing client", middleware.AuthConfig{Enabled: ptr(true), Issuer: "https://idp.local"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("Finalize() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}


func ptr(v bool) *bool {
	return &v
}

func TestAuthConfigMerge(t *testing.T) {
	tests := []struct {
		name    string
		base    *bool
		overlay *bool
		want    bool
	}{
		{"overlay disables", ptr(true), ptr(false), false},
		{"overlay enables", ptr(false), ptr(true), true},
		{"overlay unset keeps base on", ptr(true), nil, true},
		{"both unset", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := middleware.AuthConfig{Enabled: tt.base, Issuer: "https://idp.local", ClientID: "triage"}
			base.Merge(&middleware.AuthConfig{Enabled: tt.overlay})

			if got := base.IsEnabled(); got != tt.want {
				t.Errorf("IsEnabled() = %v, want %v", got, tt.want)
			}
			if base.Issuer != "https://idp.local" {
				t.Errorf("issuer = %s, want base value", base.Issuer)
			}
		})
	}
}

func TestAuthConfigEnvDisables(t *testing.T) {
	t.Setenv("TEST_AUTH_ENABLED", "false")

	cfg := middleware.AuthConfig{Enabled: ptr(true)}
	if err := cfg.Finalize(&middleware.AuthEnv{Enabled: "TEST_AUTH_ENABLED"}); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if cfg.IsEnabled() {
		t.Error("IsEnabled() = true after TEST_AUTH_ENABLED=false")
	}
}
