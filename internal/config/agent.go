package config

import (
	"fmt"
	"os"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

const (
	EnvAgentName         = "TRIAGE_AGENT_NAME"
	EnvAgentProviderName = "TRIAGE_AGENT_PROVIDER_NAME"
	EnvAgentBaseURL      = "TRIAGE_AGENT_BASE_URL"
	EnvAgentToken        = "TRIAGE_AGENT_TOKEN"
	EnvAgentDeployment   = "TRIAGE_AGENT_DEPLOYMENT"
	EnvAgentAPIVersion   = "TRIAGE_AGENT_API_VERSION"
	EnvAgentAuthType     = "TRIAGE_AGENT_AUTH_TYPE"
	EnvAgentModelName    = "TRIAGE_AGENT_MODEL_NAME"
)

// AgentConfig describes the language model used by the agent classifier.
// It is converted to a go-agents AgentConfig with AgentConfig.GoAgents.
type AgentConfig struct {
	Name     string         `toml:"name"`
	Provider string         `toml:"provider"`
	BaseURL  string         `toml:"base_url"`
	Model    string         `toml:"model"`
	Options  map[string]any `toml:"options"`
}

// Finalize applies environment overrides. Validation happens in GoAgents,
// since the agent is only required when the classifier mode selects it.
func (c *AgentConfig) Finalize() error {
	if c.Options == nil {
		c.Options = make(map[string]any)
	}
	if v := os.Getenv(EnvAgentName); v != "" {
		c.Name = v
	}
	if v := os.Getenv(EnvAgentProviderName); v != "" {
		c.Provider = v
	}
	if v := os.Getenv(EnvAgentBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvAgentModelName); v != "" {
		c.Model = v
	}

	setOption := func(envVar, key string) {
		if v := os.Getenv(envVar); v != "" {
			c.Options[key] = v
		}
	}

	setOption(EnvAgentToken, "token")
	setOption(EnvAgentDeployment, "deployment")
	setOption(EnvAgentAPIVersion, "api_version")
	setOption(EnvAgentAuthType, "auth_type")
	return nil
}

// Merge overwrites non-zero fields from overlay. Options merge key by key.
func (c *AgentConfig) Merge(overlay *AgentConfig) {
	if overlay.Name != "" {
		c.Name = overlay.Name
	}
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if len(overlay.Options) > 0 && c.Options == nil {
		c.Options = make(map[string]any, len(overlay.Options))
	}
	for k, v := range overlay.Options {
		c.Options[k] = v
	}
}

// GoAgents returns the go-agents configuration with DefaultAgentConfig
// filling any field left unset. Provider options are applied last.
func (c *AgentConfig) GoAgents() (gaconfig.AgentConfig, error) {
	ga := gaconfig.AgentConfig{
		Name: c.Name,
		Provider: &gaconfig.ProviderConfig{
			Name:    c.Provider,
			BaseURL: c.BaseURL,
		},
		Model: &gaconfig.ModelConfig{
			Name: c.Model,
		},
	}

	defaults := gaconfig.DefaultAgentConfig()
	defaults.Merge(&ga)

	if defaults.Name == "" {
		return defaults, fmt.Errorf("name required")
	}
	if defaults.Provider == nil || defaults.Provider.Name == "" {
		return defaults, fmt.Errorf("provider name required")
	}
	if defaults.Model == nil {
		return defaults, fmt.Errorf("model required")
	}

	if defaults.Provider.Options == nil {
		defaults.Provider.Options = make(map[string]any, len(c.Options))
	}
	for k, v := range c.Options {
		defaults.Provider.Options[k] = v
	}
	return defaults, nil
}
