// Package infrastructure assembles the shared systems every triage command
// builds on: lifecycle coordination, logging, tracing, the event publisher,
// optional artifact storage, and (for the service) the database.
package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/pkg/database"
	"github.com/JaimeStill/triage/pkg/events"
	"github.com/JaimeStill/triage/pkg/lifecycle"
	"github.com/JaimeStill/triage/pkg/storage"
	"github.com/JaimeStill/triage/pkg/tracing"
)

// Infrastructure holds the core systems required by domain modules.
// Database is nil for commands built with NewClient. Storage is nil when no
// storage account is configured.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Events    events.Publisher

	tracing tracing.Shutdown
}

// NewLogger returns a text logger on stderr at level.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// New creates the full service Infrastructure, including the database pool.
// Systems are built but not started; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	infra, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	db, err := database.New(&cfg.Database, infra.Logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	infra.Database = db

	return infra, nil
}

// NewClient creates Infrastructure for command-line tools that do not use
// the database.
func NewClient(cfg *config.Config) (*Infrastructure, error) {
	logger := NewLogger(cfg.Level())

	shutdown, err := tracing.Init(&cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil && !errors.Is(err, storage.ErrDisabled) {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Storage:   store,
		Events:    events.New(&cfg.Events, logger),
		tracing:   shutdown,
	}, nil
}

// Start registers every configured system with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}

	events.Start(i.Events, i.Lifecycle, i.Logger)

	i.Lifecycle.OnShutdown("tracing", func() {
		if err := i.tracing(context.Background()); err != nil {
			i.Logger.Error("tracing shutdown failed", "error", err)
		}
	})

	return nil
}
