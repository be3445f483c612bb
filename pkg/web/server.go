package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/JaimeStill/triage/pkg/lifecycle"
)

// ServerOptions configure a Server.
type ServerOptions struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server is an HTTP server bound to a lifecycle coordinator.
type Server struct {
	http            *http.Server
	listener        net.Listener
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// NewServer creates a Server for handler. Nothing listens until Start.
func NewServer(opts ServerOptions, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:         opts.Addr,
			Handler:      handler,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
		},
		logger:          logger.With("system", "http"),
		shutdownTimeout: opts.ShutdownTimeout,
	}
}

// Start binds the listen address, serves in the background, and registers
// graceful shutdown with lc. Bind failures are returned directly.
func (s *Server) Start(lc *lifecycle.Coordinator) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.http.Addr, err)
	}
	s.listener = ln

	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()

	lc.OnShutdown("http", func() {
		s.logger.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error("server shutdown error", "error", err)
			return
		}
		s.logger.Info("server shutdown complete")
	})

	return nil
}

// Addr returns the bound address after Start, or the configured one before.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.http.Addr
}
