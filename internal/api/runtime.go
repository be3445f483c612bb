package api

import (
	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/internal/infrastructure"
	"github.com/JaimeStill/triage/internal/workflow"
	"github.com/JaimeStill/triage/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Workflow    *workflow.Runtime
	Pagination  pagination.Config
	MaxBodySize int64
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) (*Runtime, error) {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	wf, err := scoped.Workflow(cfg)
	if err != nil {
		return nil, err
	}

	return &Runtime{
		Infrastructure: &scoped,
		Workflow:       wf,
		Pagination:     cfg.API.Pagination,
		MaxBodySize:    cfg.API.MaxBodySizeBytes(),
	}, nil
}
