package main

import (
	"github.com/JaimeStill/triage/internal/api"
	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/internal/infrastructure"
	"github.com/JaimeStill/triage/pkg/module"
)

// Modules are the prefix-mounted handlers served by the runs service.
type Modules struct {
	API *module.Module
}

// NewModules builds every module from infra.
func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}
	return &Modules{API: apiModule}, nil
}

// Router mounts the modules next to the health endpoints.
func (m *Modules) Router(infra *infrastructure.Infrastructure) (*module.Router, error) {
	router := module.NewRouter()
	router.Health(infra.Lifecycle)

	if err := router.Mount(m.API); err != nil {
		return nil, err
	}
	return router, nil
}
