// Package graph executes typed state machines made of named nodes joined by
// optionally conditional edges. A node may suspend the run with Interrupt;
// the caller persists the returned Suspension and later re-enters the graph
// at the suspended node with ExecuteFrom and a resume value.
package graph

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/JaimeStill/triage/pkg/tracing"
)

const defaultMaxSteps = 64

var (
	ErrEmptyName     = errors.New("node name must not be empty")
	ErrDuplicateNode = errors.New("node already registered")
	ErrUnknownNode   = errors.New("unknown node")
	ErrNoEntryPoint  = errors.New("entry point not set")
	ErrNoExitPoint   = errors.New("exit point not set")
	ErrNoRoute       = errors.New("no outgoing edge matched")
	ErrStepLimit     = errors.New("step limit exceeded")
)

// Node transforms state. Nodes return the state to carry forward; returning
// the input unchanged is an explicit no-op.
type Node[S any] func(ctx context.Context, s S) (S, error)

// Predicate gates an edge. A nil predicate always matches.
type Predicate[S any] func(s S) bool

type edge[S any] struct {
	to   string
	when Predicate[S]
}

// Graph is a named set of nodes and edges over state type S.
type Graph[S any] struct {
	name     string
	nodes    map[string]Node[S]
	edges    map[string][]edge[S]
	entry    string
	exit     string
	maxSteps int
}

// Option configures a Graph.
type Option func(*options)

type options struct {
	maxSteps int
}

// WithMaxSteps bounds the number of node executions in one call.
func WithMaxSteps(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSteps = n
		}
	}
}

// New creates an empty graph.
func New[S any](name string, opts ...Option) *Graph[S] {
	o := options{maxSteps: defaultMaxSteps}
	for _, opt := range opts {
		opt(&o)
	}
	return &Graph[S]{
		name:     name,
		nodes:    make(map[string]Node[S]),
		edges:    make(map[string][]edge[S]),
		maxSteps: o.maxSteps,
	}
}

// Name returns the graph name.
func (g *Graph[S]) Name() string {
	return g.name
}

// AddNode registers a node under a unique name.
func (g *Graph[S]) AddNode(name string, n Node[S]) error {
	if name == "" {
		return ErrEmptyName
	}
	if _, ok := g.nodes[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, name)
	}
	g.nodes[name] = n
	return nil
}

// AddEdge connects two registered nodes. Edges leaving a node are evaluated
// in the order they were added; the first matching edge wins.
func (g *Graph[S]) AddEdge(from, to string, when Predicate[S]) error {
	if err := g.known(from); err != nil {
		return err
	}
	if err := g.known(to); err != nil {
		return err
	}
	g.edges[from] = append(g.edges[from], edge[S]{to: to, when: when})
	return nil
}

// SetEntryPoint marks the node Execute starts from.
func (g *Graph[S]) SetEntryPoint(name string) error {
	if err := g.known(name); err != nil {
		return err
	}
	g.entry = name
	return nil
}

// SetExitPoint marks the terminal node. Execution ends after it runs.
func (g *Graph[S]) SetExitPoint(name string) error {
	if err := g.known(name); err != nil {
		return err
	}
	g.exit = name
	return nil
}

// Execute runs the graph from its entry point.
func (g *Graph[S]) Execute(ctx context.Context, s S) (S, error) {
	if g.entry == "" {
		return s, ErrNoEntryPoint
	}
	return g.ExecuteFrom(ctx, g.entry, s)
}

// ExecuteFrom runs the graph starting at node. A resume value attached to
// ctx with WithResume is visible only to that first node.
//
// When a node calls Interrupt without a resume value, execution stops and
// the returned error is a *Suspension[S] holding the node name and the state
// as it was before the node ran.
func (g *Graph[S]) ExecuteFrom(ctx context.Context, node string, s S) (S, error) {
	if g.exit == "" {
		return s, ErrNoExitPoint
	}
	if err := g.known(node); err != nil {
		return s, err
	}

	ctx, span := tracing.Start(ctx, "graph."+g.name, trace.SpanKindInternal,
		attribute.String("graph.start", node),
	)
	out, err := g.run(ctx, node, s)
	tracing.End(span, ignoreSuspension[S](err))
	return out, err
}

func (g *Graph[S]) run(ctx context.Context, current string, s S) (S, error) {
	nodeCtx := ctx
	for step := 0; ; step++ {
		if step >= g.maxSteps {
			return s, fmt.Errorf("%w: %d steps in graph %s", ErrStepLimit, g.maxSteps, g.name)
		}
		if err := ctx.Err(); err != nil {
			return s, err
		}

		next, err := g.step(nodeCtx, current, s)
		if err != nil {
			var intr *interrupt
			if errors.As(err, &intr) {
				return s, &Suspension[S]{Node: current, State: s, Payload: intr.payload}
			}
			return s, fmt.Errorf("node %s: %w", current, err)
		}
		s = next

		if current == g.exit {
			return s, nil
		}

		target, ok := g.route(current, s)
		if !ok {
			return s, fmt.Errorf("%w: from %s", ErrNoRoute, current)
		}
		current = target
		nodeCtx = withoutResume(ctx)
	}
}

func (g *Graph[S]) step(ctx context.Context, name string, s S) (S, error) {
	ctx, span := tracing.Start(ctx, g.name+"."+name, trace.SpanKindInternal)
	out, err := g.nodes[name](ctx, s)
	tracing.End(span, ignoreInterrupt(err))
	return out, err
}

func (g *Graph[S]) route(from string, s S) (string, bool) {
	for _, e := range g.edges[from] {
		if e.when == nil || e.when(s) {
			return e.to, true
		}
	}
	return "", false
}

func (g *Graph[S]) known(name string) error {
	if _, ok := g.nodes[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, name)
	}
	return nil
}

// Not negates a predicate.
func Not[S any](p Predicate[S]) Predicate[S] {
	return func(s S) bool { return !p(s) }
}

func ignoreInterrupt(err error) error {
	var intr *interrupt
	if errors.As(err, &intr) {
		return nil
	}
	return err
}

func ignoreSuspension[S any](err error) error {
	if _, ok := AsSuspension[S](err); ok {
		return nil
	}
	return err
}
