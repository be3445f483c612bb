package main

import (
	"time"

	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/internal/infrastructure"
	"github.com/JaimeStill/triage/pkg/web"
)

// Server is the triage runs service: infrastructure, mounted modules and
// the HTTP listener.
type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *web.Server
}

// NewServer builds every system without starting any of them.
func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router, err := modules.Router(infra)
	if err != nil {
		return nil, err
	}

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"env", cfg.Env(),
		"classifier", cfg.Classifier.Mode,
		"modules", router.Prefixes(),
	)

	return &Server{
		infra:   infra,
		modules: modules,
		http: web.NewServer(web.ServerOptions{
			Addr:            cfg.Server.Addr(),
			ReadTimeout:     cfg.Server.ReadTimeoutDuration(),
			WriteTimeout:    cfg.Server.WriteTimeoutDuration(),
			ShutdownTimeout: cfg.Server.ShutdownTimeoutDuration(),
		}, router, infra.Logger),
	}, nil
}

// Start starts infrastructure and the listener. Readiness flips once every
// startup hook succeeds; a failed hook leaves /readyz at 503.
func (s *Server) Start() error {
	if err := s.infra.Start(); err != nil {
		return err
	}
	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		if err := s.infra.Lifecycle.WaitForStartup(); err != nil {
			s.infra.Logger.Error("startup failed, service not ready", "error", err)
			return
		}
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

// Shutdown stops every system within timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}
