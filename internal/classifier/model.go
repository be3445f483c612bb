package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// Model completes a prompt with raw text. Implementations need not return
// valid JSON; Classifier tolerates surrounding prose and malformed output.
type Model interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Keyword is a deterministic offline Model. It inspects only the message
// embedded in the prompt, since the prompt's own category list would match
// every keyword group.
type Keyword struct {
	catalog *Catalog
}

// NewKeyword creates a keyword model over catalog.
func NewKeyword(catalog *Catalog) *Keyword {
	return &Keyword{catalog: catalog}
}

func (k *Keyword) Complete(_ context.Context, prompt string) (string, error) {
	result := k.Detect(messageOf(prompt))

	data, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Detect returns every category with a keyword present in text, in catalog
// order, each at most once.
func (k *Keyword) Detect(text string) Result {
	lower := strings.ToLower(text)
	intents := []string{}

	for _, cat := range k.catalog.Categories {
		for _, kw := range cat.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				intents = append(intents, cat.Name)
				break
			}
		}
	}

	confidence := 0.0
	if len(intents) > 0 {
		confidence = 0.9
	}
	return Result{Categories: intents, Confidence: confidence}
}

// Agent is a Model backed by a go-agents chat agent.
type Agent struct {
	cfg gaconfig.AgentConfig
}

// NewAgent validates that an agent can be built from cfg.
func NewAgent(cfg gaconfig.AgentConfig) (*Agent, error) {
	if _, err := agent.New(&cfg); err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	return &Agent{cfg: cfg}, nil
}

func (a *Agent) Complete(ctx context.Context, prompt string) (string, error) {
	ag, err := agent.New(&a.cfg)
	if err != nil {
		return "", fmt.Errorf("create agent: %w", err)
	}

	resp, err := ag.Chat(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	return resp.Content(), nil
}
