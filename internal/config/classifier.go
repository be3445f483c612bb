package config

import (
	"fmt"
	"os"
)

const (
	EnvClassifierMode    = "TRIAGE_CLASSIFIER_MODE"
	EnvClassifierCatalog = "TRIAGE_CLASSIFIER_CATALOG"

	ClassifierKeyword = "keyword"
	ClassifierAgent   = "agent"
)

// ClassifierConfig selects the model behind intent classification and the
// optional category catalog file.
type ClassifierConfig struct {
	Mode    string `toml:"mode"`
	Catalog string `toml:"catalog"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ClassifierConfig) Finalize() error {
	if c.Mode == "" {
		c.Mode = ClassifierKeyword
	}
	if v := os.Getenv(EnvClassifierMode); v != "" {
		c.Mode = v
	}
	if v := os.Getenv(EnvClassifierCatalog); v != "" {
		c.Catalog = v
	}

	switch c.Mode {
	case ClassifierKeyword, ClassifierAgent:
		return nil
	default:
		return fmt.Errorf("invalid mode %q: expected %s or %s", c.Mode, ClassifierKeyword, ClassifierAgent)
	}
}

// Merge overwrites non-zero fields from overlay.
func (c *ClassifierConfig) Merge(overlay *ClassifierConfig) {
	if overlay.Mode != "" {
		c.Mode = overlay.Mode
	}
	if overlay.Catalog != "" {
		c.Catalog = overlay.Catalog
	}
}
