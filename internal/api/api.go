// Package api assembles the API module from the runs domain, the artifact
// download route, and the module middleware stack.
package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/internal/infrastructure"
	"github.com/JaimeStill/triage/pkg/middleware"
	"github.com/JaimeStill/triage/pkg/module"
)

// NewModule creates the API module. When reviewer auth is enabled the OIDC
// provider is discovered here, so an unreachable issuer fails startup.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime, err := NewRuntime(cfg, infra)
	if err != nil {
		return nil, err
	}

	domain, err := NewDomain(runtime)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime)

	m, err := module.New(cfg.API.BasePath, mux)
	if err != nil {
		return nil, err
	}
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	if cfg.API.Auth.IsEnabled() {
		verifier, err := middleware.NewOIDCVerifier(infra.Lifecycle.Context(), &cfg.API.Auth)
		if err != nil {
			return nil, fmt.Errorf("auth init failed: %w", err)
		}
		m.Use(middleware.Auth(verifier))
	}

	return m, nil
}
