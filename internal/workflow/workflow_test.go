package workflow_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/triage/internal/classifier"
	"github.com/JaimeStill/triage/internal/workflow"
	"github.com/JaimeStill/triage/pkg/events"
	"github.com/JaimeStill/triage/pkg/graph"
)

type recorder struct {
	mu    sync.Mutex
	types []string
}

func (r *recorder) Publish(_ context.Context, topic events.Topic, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if topic == events.TopicRuns {
		r.types = append(r.types, ev.Type)
	}
	return nil
}

func (r *recorder) Close() error { return nil }

type fixedModel struct {
	response string
	err      error
}

func (m fixedModel) Complete(context.Context, string) (string, error) {
	return m.response, m.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runtimeWith(model classifier.Model, pub events.Publisher) *workflow.Runtime {
	logger := discard()
	return &workflow.Runtime{
		Classifier: classifier.New(model, classifier.DefaultCatalog(), logger),
		Events:     pub,
		Logger:     logger,
	}
}

func keywordRuntime(pub events.Publisher) *workflow.Runtime {
	return runtimeWith(classifier.NewKeyword(classifier.DefaultCatalog()), pub)
}

func newRunner(t *testing.T, rt *workflow.Runtime) (*workflow.Runner, *workflow.MemoryStore) {
	t.Helper()
	store := workflow.NewMemoryStore()
	r, err := workflow.NewRunner(rt, store)
	require.NoError(t, err)
	return r, store
}

func TestLeaveRequestCompletesWithoutEscalation(t *testing.T) {
	rec := &recorder{}
	r, store := newRunner(t, keywordRuntime(rec))

	out, err := r.Start(context.Background(), "I want to apply for leave from next Monday to Wednesday")
	require.NoError(t, err)

	assert.Equal(t, workflow.StatusCompleted, out.Status)
	assert.Equal(t, []string{"LeaveRequest"}, out.State.Categories)
	assert.Nil(t, out.Escalation)
	assert.Equal(t, []string{events.RunStarted, events.RunCompleted}, rec.types)

	cp, err := store.Load(context.Background(), out.RunID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, cp.Status)
}

func TestNoIntentEscalatesThenResumes(t *testing.T) {
	rec := &recorder{}
	r, _ := newRunner(t, keywordRuntime(rec))
	ctx := context.Background()

	out, err := r.Start(ctx, "hello")
	require.NoError(t, err)
	require.Equal(t, workflow.StatusSuspended, out.Status)
	require.NotNil(t, out.Escalation)
	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, []string{}, out.State.Categories)

	esc := out.Escalation
	assert.Equal(t, "hello", esc.OriginalText)
	assert.Equal(t, "MultiIntentIdentification_App", esc.AppName)
	assert.Equal(t, "Please identify all intents (comma separated)", esc.Title)
	assert.Equal(t, map[string]string{"User_Prompt": "hello", "Intents": ""}, esc.Data)
	assert.Equal(t, 1, esc.AppVersion)
	assert.Equal(t, "Shared", esc.AppFolderPath)

	done, err := r.Resume(ctx, out.RunID, map[string]any{"Intents": "AssetRequest"}, workflow.WithReviewer("reviewer@example.com"))
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, done.Status)
	assert.Equal(t, out.RunID, done.RunID)
	assert.Equal(t, []string{"AssetRequest"}, done.State.Categories)
	assert.Equal(t, "hello", done.State.Text)

	assert.Equal(t, []string{
		events.RunStarted,
		events.RunSuspended,
		events.RunResumed,
		events.RunCompleted,
	}, rec.types)
}

func TestResumeShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    []string
	}{
		{"nested output", map[string]any{"output": map[string]any{"Intents": "LeaveRequest, AssetRequest"}}, []string{"LeaveRequest", "AssetRequest"}},
		{"flat intents", map[string]any{"Intents": "AddressUpdate"}, []string{"AddressUpdate"}},
		{"string map", map[string]string{"Intents": "ExpenseReimbursement , "}, []string{"ExpenseReimbursement"}},
		{"action result", workflow.ActionResult{Output: map[string]any{"Intents": "LeaveRequest"}}, []string{"LeaveRequest"}},
		{"action result pointer", &workflow.ActionResult{Output: map[string]any{"Intents": "AssetRequest"}}, []string{"AssetRequest"}},
		{"empty intents falls back", map[string]any{"output": map[string]any{"Intents": ""}}, []string{}},
		{"only commas falls back", map[string]any{"Intents": " , ,"}, []string{}},
		{"unknown shape falls back", 42, []string{}},
		{"nil payload falls back", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newRunner(t, keywordRuntime(nil))
			ctx := context.Background()

			out, err := r.Start(ctx, "hello")
			require.NoError(t, err)
			require.Equal(t, workflow.StatusSuspended, out.Status)

			done, err := r.Resume(ctx, out.RunID, tt.payload)
			require.NoError(t, err)
			assert.Equal(t, workflow.StatusCompleted, done.Status)
			assert.Equal(t, tt.want, done.State.Categories)
		})
	}
}

type formOutput map[string]any

func (f formOutput) Output() map[string]any { return f }

func TestParseReview(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    string
	}{
		{"action output interface", formOutput{"Intents": "LeaveRequest"}, "LeaveRequest"},
		{"output wins over flat", map[string]any{"output": map[string]any{}, "Intents": "X"}, ""},
		{"output not a map", map[string]any{"output": "LeaveRequest"}, ""},
		{"intents not a string", map[string]any{"Intents": []string{"A"}}, ""},
		{"plain string", "LeaveRequest", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, workflow.ParseReview(tt.payload))
		})
	}
}

func TestSplitCategories(t *testing.T) {
	assert.Equal(t, []string{"A", "B", "A"}, workflow.SplitCategories(" A,B ,, A "))
	assert.Equal(t, []string{}, workflow.SplitCategories(""))
}

func TestResumeErrors(t *testing.T) {
	r, _ := newRunner(t, keywordRuntime(nil))
	ctx := context.Background()

	_, err := r.Resume(ctx, "missing", nil)
	assert.ErrorIs(t, err, workflow.ErrRunNotFound)

	out, err := r.Start(ctx, "need a new laptop")
	require.NoError(t, err)
	require.Equal(t, workflow.StatusCompleted, out.Status)

	_, err = r.Resume(ctx, out.RunID, map[string]any{"Intents": "AssetRequest"})
	assert.ErrorIs(t, err, workflow.ErrNotSuspended)

	held, err := r.Start(ctx, "hello")
	require.NoError(t, err)
	_, err = r.Resume(ctx, held.RunID, map[string]any{"Intents": "LeaveRequest"})
	require.NoError(t, err)

	_, err = r.Resume(ctx, held.RunID, map[string]any{"Intents": "AssetRequest"})
	assert.ErrorIs(t, err, workflow.ErrNotSuspended, "a completed run cannot be re-escalated")
}

// heldStore pauses every Load until release is closed so concurrent
// resumes observe the same suspended checkpoint.
type heldStore struct {
	*workflow.MemoryStore
	loaded  sync.WaitGroup
	release chan struct{}
}

func (h *heldStore) Load(ctx context.Context, runID string) (workflow.Checkpoint, error) {
	cp, err := h.MemoryStore.Load(ctx, runID)
	h.loaded.Done()
	<-h.release
	return cp, err
}

func TestConcurrentResumeSettlesOnce(t *testing.T) {
	store := &heldStore{MemoryStore: workflow.NewMemoryStore(), release: make(chan struct{})}
	r, err := workflow.NewRunner(keywordRuntime(nil), store)
	require.NoError(t, err)
	ctx := t.Context()

	held, err := r.Start(ctx, "hello")
	require.NoError(t, err)
	require.Equal(t, workflow.StatusSuspended, held.Status)

	answers := []string{"AssetRequest", "LeaveRequest"}
	outs := make([]*workflow.Outcome, len(answers))
	errs := make([]error, len(answers))

	store.loaded.Add(len(answers))
	var wg sync.WaitGroup
	for i, answer := range answers {
		wg.Go(func() {
			outs[i], errs[i] = r.Resume(ctx, held.RunID, map[string]any{"Intents": answer})
		})
	}
	store.loaded.Wait()
	close(store.release)
	wg.Wait()

	var winner int
	switch {
	case errs[0] == nil:
		winner = 0
		assert.ErrorIs(t, errs[1], workflow.ErrNotSuspended)
	case errs[1] == nil:
		winner = 1
		assert.ErrorIs(t, errs[0], workflow.ErrNotSuspended)
	default:
		t.Fatalf("no resume succeeded: %v, %v", errs[0], errs[1])
	}

	cp, err := store.MemoryStore.Load(ctx, held.RunID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, cp.Status)
	assert.Equal(t, []string{answers[winner]}, cp.State.Categories)
	assert.Equal(t, outs[winner].State.Categories, cp.State.Categories)
}

func TestCancelledResumeStaysSuspended(t *testing.T) {
	r, store := newRunner(t, keywordRuntime(nil))

	held, err := r.Start(t.Context(), "hello")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = r.Resume(ctx, held.RunID, map[string]any{"Intents": "AssetRequest"})
	require.ErrorIs(t, err, context.Canceled)

	cp, err := store.Load(t.Context(), held.RunID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusSuspended, cp.Status)
	assert.Empty(t, cp.Error)

	out, err := r.Resume(t.Context(), held.RunID, map[string]any{"Intents": "AssetRequest"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AssetRequest"}, out.State.Categories)
}

func TestMemoryStoreResolve(t *testing.T) {
	store := workflow.NewMemoryStore()
	ctx := t.Context()

	assert.ErrorIs(t, store.Resolve(ctx, workflow.Checkpoint{RunID: "missing"}), workflow.ErrRunNotFound)

	require.NoError(t, store.Save(ctx, workflow.Checkpoint{RunID: "a", Status: workflow.StatusSuspended}))
	require.NoError(t, store.Resolve(ctx, workflow.Checkpoint{RunID: "a", Status: workflow.StatusCompleted}))
	assert.ErrorIs(t,
		store.Resolve(ctx, workflow.Checkpoint{RunID: "a", Status: workflow.StatusFailed}),
		workflow.ErrNotSuspended,
	)

	cp, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, cp.Status)
}

func TestDiscard(t *testing.T) {
	r, store := newRunner(t, keywordRuntime(nil))
	ctx := context.Background()

	out, err := r.Start(ctx, "hello")
	require.NoError(t, err)

	require.NoError(t, r.Discard(ctx, out.RunID))
	_, err = store.Load(ctx, out.RunID)
	assert.ErrorIs(t, err, workflow.ErrRunNotFound)
	assert.ErrorIs(t, r.Discard(ctx, out.RunID), workflow.ErrRunNotFound)
}

func TestParseFailureEscalates(t *testing.T) {
	r, _ := newRunner(t, runtimeWith(fixedModel{response: `{"intents": [oops]}`}, nil))

	out, err := r.Start(context.Background(), "I need leave")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusSuspended, out.Status)
	assert.Equal(t, []string{}, out.State.Categories)
}

func TestModelFailureFailsRun(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("model offline")
	r, _ := newRunner(t, runtimeWith(fixedModel{err: boom}, rec))

	out, err := r.Start(context.Background(), "I need leave")
	assert.Nil(t, out)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{events.RunStarted, events.RunFailed}, rec.types)
}

func TestValidateIsIdempotentOnNonEmptyState(t *testing.T) {
	node := workflow.ValidateNode(keywordRuntime(nil))
	in := workflow.State{Text: "leave", Categories: []string{"LeaveRequest", "LeaveRequest"}}

	once, err := node(context.Background(), in)
	require.NoError(t, err)
	twice, err := node(context.Background(), once)
	require.NoError(t, err)

	assert.Equal(t, in, once)
	assert.Equal(t, once, twice)
}

func TestValidateInterruptsOnEmptyState(t *testing.T) {
	node := workflow.ValidateNode(keywordRuntime(nil))

	_, err := node(context.Background(), workflow.NewState("hello"))
	require.Error(t, err)

	resumed, err := node(graph.WithResume(context.Background(), map[string]any{"Intents": "AddressUpdate"}), workflow.NewState("hello"))
	require.NoError(t, err)
	assert.Equal(t, []string{"AddressUpdate"}, resumed.Categories)
}

func TestRouteDoesNotModifyState(t *testing.T) {
	node := workflow.RouteNode(keywordRuntime(nil))
	in := workflow.State{Text: "x", Categories: []string{"AssetRequest"}}

	out, err := node(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := workflow.NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Go(func() {
			id := string(rune('a' + i))
			assert.NoError(t, store.Save(ctx, workflow.Checkpoint{RunID: id, Status: workflow.StatusSuspended}))
			_, err := store.Load(ctx, id)
			assert.NoError(t, err)
		})
	}
	wg.Wait()
}
