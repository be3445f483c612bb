package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// ErrUnauthorized indicates a missing or invalid bearer token.
var ErrUnauthorized = errors.New("unauthorized")

// AuthConfig holds OpenID Connect settings for verifying reviewer tokens.
// Enabled is unset until a config file or the environment assigns it, so
// an overlay can turn auth off as well as on.
type AuthConfig struct {
	Enabled  *bool  `toml:"enabled"`
	Issuer   string `toml:"issuer"`
	ClientID string `toml:"client_id"`
}

// AuthEnv maps auth config fields to environment variable names.
type AuthEnv struct {
	Enabled  string
	Issuer   string
	ClientID string
}

// Finalize applies environment overrides and validates that an enabled
// config names an issuer and client.
func (c *AuthConfig) Finalize(env *AuthEnv) error {
	if env != nil {
		if v, ok := lookup(env.Enabled); ok {
			if enabled, err := strconv.ParseBool(v); err == nil {
				c.Enabled = &enabled
			}
		}
		if v, ok := lookup(env.Issuer); ok {
			c.Issuer = v
		}
		if v, ok := lookup(env.ClientID); ok {
			c.ClientID = v
		}
	}

	if !c.IsEnabled() {
		return nil
	}
	if c.Issuer == "" {
		return fmt.Errorf("issuer required when auth is enabled")
	}
	if c.ClientID == "" {
		return fmt.Errorf("client_id required when auth is enabled")
	}
	return nil
}

// IsEnabled reports whether bearer tokens are required.
func (c *AuthConfig) IsEnabled() bool {
	return c.Enabled != nil && *c.Enabled
}

// Merge overwrites fields set in overlay. An explicit enabled = false in
// the overlay disables auth.
func (c *AuthConfig) Merge(overlay *AuthConfig) {
	if overlay.Enabled != nil {
		enabled := *overlay.Enabled
		c.Enabled = &enabled
	}
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.ClientID != "" {
		c.ClientID = overlay.ClientID
	}
}

// TokenVerifier validates a raw bearer token and returns the caller's subject.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (string, error)
}

// OIDCVerifier verifies ID tokens issued by an OpenID Connect provider.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the provider at cfg.Issuer and builds a verifier
// bound to cfg.ClientID.
func NewOIDCVerifier(ctx context.Context, cfg *AuthConfig) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider: %w", err)
	}

	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

// Verify checks the token signature, issuer, audience and expiry. The
// preferred_username claim is returned when present, otherwise the subject.
func (v *OIDCVerifier) Verify(ctx context.Context, raw string) (string, error) {
	token, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return "", err
	}

	var claims struct {
		PreferredUsername string `json:"preferred_username"`
		Email             string `json:"email"`
	}
	if err := token.Claims(&claims); err == nil {
		if claims.PreferredUsername != "" {
			return claims.PreferredUsername, nil
		}
		if claims.Email != "" {
			return claims.Email, nil
		}
	}

	return token.Subject, nil
}

type subjectKey struct{}

// Subject returns the verified caller identity stored by Auth.
func Subject(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(subjectKey{}).(string)
	return s, ok && s != ""
}

// WithSubject returns a copy of ctx carrying subject.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

// Auth returns middleware that rejects requests without a valid bearer token.
// OPTIONS requests pass through for CORS preflight.
func Auth(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				unauthorized(w)
				return
			}

			subject, err := v.Verify(r.Context(), strings.TrimSpace(raw))
			if err != nil {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), subject)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="triage"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": ErrUnauthorized.Error()})
}
