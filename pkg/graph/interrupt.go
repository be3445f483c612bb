package graph

import (
	"context"
	"errors"
	"fmt"
)

type resumeKey struct{}

type resumeValue struct {
	value any
}

type interrupt struct {
	payload any
}

func (i *interrupt) Error() string {
	return "graph interrupted"
}

// Suspension is returned by Execute and ExecuteFrom when a node interrupts.
// State is the input the suspended node received, so re-entering at Node
// with the same State repeats that node with a resume value.
type Suspension[S any] struct {
	Node    string
	State   S
	Payload any
}

func (s *Suspension[S]) Error() string {
	return fmt.Sprintf("suspended at node %s", s.Node)
}

// AsSuspension reports whether err is, or wraps, a suspension of state type S.
func AsSuspension[S any](err error) (*Suspension[S], bool) {
	var susp *Suspension[S]
	if errors.As(err, &susp) {
		return susp, true
	}
	return nil, false
}

// WithResume attaches the value Interrupt returns on re-entry.
func WithResume(ctx context.Context, value any) context.Context {
	return context.WithValue(ctx, resumeKey{}, &resumeValue{value: value})
}

func withoutResume(ctx context.Context) context.Context {
	if ctx.Value(resumeKey{}) == nil {
		return ctx
	}
	return context.WithValue(ctx, resumeKey{}, (*resumeValue)(nil))
}

// Interrupt suspends the calling node with payload, or returns the resume
// value when the node is being re-entered. Nodes must return the error
// unchanged.
func Interrupt(ctx context.Context, payload any) (any, error) {
	if rv, ok := ctx.Value(resumeKey{}).(*resumeValue); ok && rv != nil {
		return rv.value, nil
	}
	return nil, &interrupt{payload: payload}
}
