package infrastructure

import (
	"fmt"
	"log/slog"

	"github.com/JaimeStill/triage/internal/classifier"
	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/internal/workflow"
)

// NewClassifier builds the intent classifier selected by cfg.Classifier.Mode.
func NewClassifier(cfg *config.Config, logger *slog.Logger) (*classifier.Classifier, error) {
	catalog, err := classifier.LoadCatalog(cfg.Classifier.Catalog)
	if err != nil {
		return nil, err
	}

	var model classifier.Model
	switch cfg.Classifier.Mode {
	case config.ClassifierAgent:
		agentCfg, err := cfg.Agent.GoAgents()
		if err != nil {
			return nil, fmt.Errorf("agent config: %w", err)
		}
		a, err := classifier.NewAgent(agentCfg)
		if err != nil {
			return nil, err
		}
		model = a
	default:
		model = classifier.NewKeyword(catalog)
	}

	logger.Info("classifier configured", "mode", cfg.Classifier.Mode, "categories", catalog.Names())
	return classifier.New(model, catalog, logger), nil
}

// Workflow builds the workflow runtime over the shared logger and events.
func (i *Infrastructure) Workflow(cfg *config.Config) (*workflow.Runtime, error) {
	c, err := NewClassifier(cfg, i.Logger)
	if err != nil {
		return nil, fmt.Errorf("classifier init failed: %w", err)
	}

	return &workflow.Runtime{
		Classifier: c,
		Events:     i.Events,
		Logger:     i.Logger,
	}, nil
}
