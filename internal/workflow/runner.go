// Package workflow classifies HR requests through a three-node graph
// (ExtractIntents → ValidateWithHuman → RouteIntents) and escalates to a
// human reviewer when no intent is detected. Escalated runs are
// checkpointed and resumed with the reviewer's answer.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/triage/pkg/events"
	"github.com/JaimeStill/triage/pkg/graph"
)

// Runner starts and resumes workflow runs.
type Runner struct {
	graph  *graph.Graph[State]
	store  CheckpointStore
	events events.Publisher
	logger *slog.Logger
}

// NewRunner builds the workflow graph. A nil rt.Events disables publishing.
func NewRunner(rt *Runtime, store CheckpointStore) (*Runner, error) {
	g, err := buildGraph(rt)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	pub := rt.Events
	if pub == nil {
		pub = events.Nop{}
	}

	return &Runner{
		graph:  g,
		store:  store,
		events: pub,
		logger: rt.Logger.With("system", "workflow"),
	}, nil
}

// Start runs the workflow for text. The outcome is either completed or
// suspended awaiting review; in the latter case Outcome.RunID is the token
// to pass to Resume.
func (r *Runner) Start(ctx context.Context, text string) (*Outcome, error) {
	now := time.Now().UTC()
	cp := Checkpoint{
		RunID:     uuid.NewString(),
		State:     NewState(text),
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.publish(ctx, events.RunStarted, cp.RunID, map[string]string{"text": text})
	r.logger.InfoContext(ctx, "run started", "run_id", cp.RunID)

	final, err := r.graph.Execute(ctx, cp.State)
	return r.settle(ctx, cp, final, err, r.store.Save)
}

// ResumeOption configures Resume.
type ResumeOption func(*Checkpoint)

// WithReviewer records who answered the review.
func WithReviewer(name string) ResumeOption {
	return func(cp *Checkpoint) {
		cp.Reviewer = name
	}
}

// Resume re-enters a suspended run with the reviewer's payload and runs it
// to completion. Returns ErrRunNotFound for unknown tokens and
// ErrNotSuspended for runs that are not awaiting review, including a run
// settled by a concurrent Resume. A cancelled resume leaves the run
// suspended.
func (r *Runner) Resume(ctx context.Context, token string, payload any, opts ...ResumeOption) (*Outcome, error) {
	cp, err := r.store.Load(ctx, token)
	if err != nil {
		return nil, err
	}
	if cp.Status != StatusSuspended {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotSuspended, token, cp.Status)
	}

	for _, opt := range opts {
		opt(&cp)
	}

	r.publish(ctx, events.RunResumed, cp.RunID, map[string]string{"reviewer": cp.Reviewer})
	r.logger.InfoContext(ctx, "run resumed", "run_id", cp.RunID, "node", cp.Node)

	final, err := r.graph.ExecuteFrom(graph.WithResume(ctx, payload), cp.Node, cp.State)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		r.logger.WarnContext(ctx, "resume interrupted", "run_id", cp.RunID, "error", err)
		return nil, err
	}
	return r.settle(ctx, cp, final, err, r.store.Resolve)
}

// Discard removes a run's checkpoint.
func (r *Runner) Discard(ctx context.Context, token string) error {
	return r.store.Delete(ctx, token)
}

func (r *Runner) settle(
	ctx context.Context,
	cp Checkpoint,
	final State,
	runErr error,
	save func(context.Context, Checkpoint) error,
) (*Outcome, error) {
	cp.UpdatedAt = time.Now().UTC()

	if susp, ok := graph.AsSuspension[State](runErr); ok {
		req, ok := susp.Payload.(EscalationRequest)
		if !ok {
			return nil, fmt.Errorf("unexpected suspension payload %T", susp.Payload)
		}
		cp.Status = StatusSuspended
		cp.Node = susp.Node
		cp.State = susp.State
		cp.Escalation = &req

		if err := save(ctx, cp); err != nil {
			return nil, fmt.Errorf("save checkpoint: %w", err)
		}

		r.publish(ctx, events.RunSuspended, cp.RunID, req)
		r.logger.InfoContext(ctx, "run suspended", "run_id", cp.RunID, "node", cp.Node)
		return cp.outcome(), nil
	}

	if runErr != nil {
		cp.Status = StatusFailed
		cp.Node = ""
		cp.Error = runErr.Error()
		if err := save(ctx, cp); err != nil {
			r.logger.ErrorContext(ctx, "save failed run", "run_id", cp.RunID, "error", err)
			if errors.Is(err, ErrNotSuspended) {
				return nil, err
			}
		}

		r.publish(ctx, events.RunFailed, cp.RunID, map[string]string{"error": cp.Error})
		return nil, runErr
	}

	cp.Status = StatusCompleted
	cp.Node = ""
	cp.State = final
	if err := save(ctx, cp); err != nil {
		return nil, fmt.Errorf("save checkpoint: %w", err)
	}

	r.publish(ctx, events.RunCompleted, cp.RunID, final)
	r.logger.InfoContext(ctx, "run completed", "run_id", cp.RunID, "intents", final.Categories)
	return cp.outcome(), nil
}

func (r *Runner) publish(ctx context.Context, typ, runID string, data any) {
	err := r.events.Publish(ctx, events.TopicRuns, events.NewEvent(typ, runID, data))
	if err != nil && !errors.Is(err, context.Canceled) {
		r.logger.WarnContext(ctx, "publish event failed", "type", typ, "run_id", runID, "error", err)
	}
}
