// Package classifier maps free-text HR requests to intent categories by
// prompting a Model and parsing its JSON answer.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/JaimeStill/triage/pkg/formatting"
	"github.com/JaimeStill/triage/pkg/tracing"
)

// ErrClassificationParse indicates the model answered with a brace-delimited
// span that is not valid JSON. Callers treat it as "no categories".
var ErrClassificationParse = errors.New("classification response could not be parsed")

// Result is the parsed model answer. Categories is never nil.
type Result struct {
	Categories []string `json:"intents"`
	Confidence float64  `json:"confidence"`
}

// answer is the model's JSON object. Only a non-list intents value is
// malformed; confidence is advisory and decoded leniently.
type answer struct {
	Intents    []string        `json:"intents"`
	Confidence json.RawMessage `json:"confidence"`
}

// confidence reads a number or numeric string, defaulting to 0.
func (a answer) confidence() float64 {
	if len(a.Confidence) == 0 {
		return 0
	}

	var n float64
	if err := json.Unmarshal(a.Confidence, &n); err == nil {
		return n
	}

	var s string
	if err := json.Unmarshal(a.Confidence, &s); err == nil {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n
		}
	}
	return 0
}

// Classifier builds prompts, calls a Model, and parses the answer.
type Classifier struct {
	model   Model
	catalog *Catalog
	logger  *slog.Logger
}

// New creates a Classifier.
func New(model Model, catalog *Catalog, logger *slog.Logger) *Classifier {
	return &Classifier{
		model:   model,
		catalog: catalog,
		logger:  logger.With("system", "classifier"),
	}
}

// Catalog returns the category catalog used for prompts.
func (c *Classifier) Catalog() *Catalog {
	return c.catalog
}

// Classify returns the categories detected in text. A model failure is
// returned as-is. A response without any JSON object yields an empty result
// and no error; malformed JSON yields an empty result and
// ErrClassificationParse.
func (c *Classifier) Classify(ctx context.Context, text string) (Result, error) {
	ctx, span := tracing.Start(ctx, "classifier.Classify", trace.SpanKindInternal)

	result, err := c.classify(ctx, text)
	span.SetAttributes(
		attribute.StringSlice("intents", result.Categories),
		attribute.Float64("confidence", result.Confidence),
	)
	tracing.End(span, err)
	return result, err
}

func (c *Classifier) classify(ctx context.Context, text string) (Result, error) {
	empty := Result{Categories: []string{}}

	raw, err := c.model.Complete(ctx, BuildPrompt(c.catalog, text))
	if err != nil {
		return empty, fmt.Errorf("model completion: %w", err)
	}

	ans, err := formatting.ParseObject[answer](raw)
	switch {
	case errors.Is(err, formatting.ErrNoObject):
		c.logger.DebugContext(ctx, "no JSON object in model response", "response", raw)
		return empty, nil
	case err != nil:
		return empty, fmt.Errorf("%w: %w", ErrClassificationParse, err)
	}

	parsed := Result{
		Categories: ans.Intents,
		Confidence: min(max(ans.confidence(), 0), 1),
	}
	if parsed.Categories == nil {
		parsed.Categories = []string{}
	}

	c.logger.DebugContext(ctx, "classified",
		"intents", parsed.Categories,
		"confidence", parsed.Confidence,
	)
	return parsed, nil
}
