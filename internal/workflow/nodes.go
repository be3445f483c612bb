package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/JaimeStill/triage/internal/classifier"
	"github.com/JaimeStill/triage/pkg/graph"
)

// ExtractNode classifies the request text. A malformed model answer is
// logged and treated as no categories; any other classifier failure fails
// the run.
func ExtractNode(rt *Runtime) graph.Node[State] {
	return func(ctx context.Context, s State) (State, error) {
		result, err := rt.Classifier.Classify(ctx, s.Text)
		if err != nil {
			if !errors.Is(err, classifier.ErrClassificationParse) {
				return s, fmt.Errorf("extract: %w", err)
			}
			rt.Logger.WarnContext(ctx, "classification response unparseable", "error", err)
			result.Categories = []string{}
		}

		rt.Logger.InfoContext(ctx, "extract node complete",
			"intents", result.Categories,
			"confidence", result.Confidence,
		)

		return State{Text: s.Text, Categories: result.Categories}, nil
	}
}

// ValidateNode passes non-empty categories through unchanged. Empty
// categories suspend the run with an EscalationRequest; on resume the
// reviewer's answer replaces the categories, or the prior (empty)
// categories are kept when the answer holds none.
func ValidateNode(rt *Runtime) graph.Node[State] {
	return func(ctx context.Context, s State) (State, error) {
		if len(s.Categories) > 0 {
			return s, nil
		}

		req := NewEscalationRequest(s)
		rt.Logger.InfoContext(ctx, "escalating to human review", "title", req.Title)

		payload, err := graph.Interrupt(ctx, req)
		if err != nil {
			return s, err
		}

		answer := ParseReview(payload)
		reviewed := SplitCategories(answer)
		rt.Logger.InfoContext(ctx, "review received", "intents", answer)

		if len(reviewed) == 0 {
			return s, nil
		}
		return State{Text: s.Text, Categories: reviewed}, nil
	}
}

// RouteNode logs the final categories. It does not modify state.
func RouteNode(rt *Runtime) graph.Node[State] {
	return func(ctx context.Context, s State) (State, error) {
		rt.Logger.InfoContext(ctx, "intents identified", "intents", joinCategories(s.Categories))
		return s, nil
	}
}

func buildGraph(rt *Runtime) (*graph.Graph[State], error) {
	g := graph.New[State]("triage")

	if err := g.AddNode(NodeExtract, ExtractNode(rt)); err != nil {
		return nil, err
	}
	if err := g.AddNode(NodeValidate, ValidateNode(rt)); err != nil {
		return nil, err
	}
	if err := g.AddNode(NodeRoute, RouteNode(rt)); err != nil {
		return nil, err
	}

	if err := g.AddEdge(NodeExtract, NodeValidate, nil); err != nil {
		return nil, err
	}
	if err := g.AddEdge(NodeValidate, NodeRoute, nil); err != nil {
		return nil, err
	}

	if err := g.SetEntryPoint(NodeExtract); err != nil {
		return nil, err
	}
	if err := g.SetExitPoint(NodeRoute); err != nil {
		return nil, err
	}

	return g, nil
}
