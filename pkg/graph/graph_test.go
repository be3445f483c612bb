package graph_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/triage/pkg/graph"
)

type counter struct {
	Trail []string
	Value int
}

func visit(name string, delta int) graph.Node[counter] {
	return func(_ context.Context, s counter) (counter, error) {
		s.Trail = append(append([]string(nil), s.Trail...), name)
		s.Value += delta
		return s, nil
	}
}

func linear(t *testing.T) *graph.Graph[counter] {
	t.Helper()
	g := graph.New[counter]("linear")
	require.NoError(t, g.AddNode("a", visit("a", 1)))
	require.NoError(t, g.AddNode("b", visit("b", 10)))
	require.NoError(t, g.AddNode("c", visit("c", 100)))
	require.NoError(t, g.AddEdge("a", "b", nil))
	require.NoError(t, g.AddEdge("b", "c", nil))
	require.NoError(t, g.SetEntryPoint("a"))
	require.NoError(t, g.SetExitPoint("c"))
	return g
}

func TestExecuteLinear(t *testing.T) {
	out, err := linear(t).Execute(context.Background(), counter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, out.Trail)
	assert.Equal(t, 111, out.Value)
}

func TestExecuteFrom(t *testing.T) {
	out, err := linear(t).ExecuteFrom(context.Background(), "b", counter{Value: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, out.Trail)
	assert.Equal(t, 115, out.Value)
}

func TestConditionalEdges(t *testing.T) {
	big := func(s counter) bool { return s.Value > 5 }

	g := graph.New[counter]("branch")
	require.NoError(t, g.AddNode("start", visit("start", 0)))
	require.NoError(t, g.AddNode("high", visit("high", 0)))
	require.NoError(t, g.AddNode("low", visit("low", 0)))
	require.NoError(t, g.AddNode("end", visit("end", 0)))
	require.NoError(t, g.AddEdge("start", "high", big))
	require.NoError(t, g.AddEdge("start", "low", graph.Not(big)))
	require.NoError(t, g.AddEdge("high", "end", nil))
	require.NoError(t, g.AddEdge("low", "end", nil))
	require.NoError(t, g.SetEntryPoint("start"))
	require.NoError(t, g.SetExitPoint("end"))

	tests := []struct {
		name  string
		value int
		want  []string
	}{
		{"high branch", 10, []string{"start", "high", "end"}},
		{"low branch", 1, []string{"start", "low", "end"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := g.Execute(context.Background(), counter{Value: tt.value})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Trail)
		})
	}
}

func TestBuildErrors(t *testing.T) {
	g := graph.New[counter]("errors")
	require.NoError(t, g.AddNode("a", visit("a", 0)))

	assert.ErrorIs(t, g.AddNode("", visit("", 0)), graph.ErrEmptyName)
	assert.ErrorIs(t, g.AddNode("a", visit("a", 0)), graph.ErrDuplicateNode)
	assert.ErrorIs(t, g.AddEdge("a", "missing", nil), graph.ErrUnknownNode)
	assert.ErrorIs(t, g.SetEntryPoint("missing"), graph.ErrUnknownNode)

	_, err := g.Execute(context.Background(), counter{})
	assert.ErrorIs(t, err, graph.ErrNoEntryPoint)

	require.NoError(t, g.SetEntryPoint("a"))
	_, err = g.Execute(context.Background(), counter{})
	assert.ErrorIs(t, err, graph.ErrNoExitPoint)
}

func TestNoRoute(t *testing.T) {
	g := graph.New[counter]("dead-end")
	require.NoError(t, g.AddNode("a", visit("a", 0)))
	require.NoError(t, g.AddNode("b", visit("b", 0)))
	require.NoError(t, g.AddEdge("a", "b", func(counter) bool { return false }))
	require.NoError(t, g.SetEntryPoint("a"))
	require.NoError(t, g.SetExitPoint("b"))

	_, err := g.Execute(context.Background(), counter{})
	assert.ErrorIs(t, err, graph.ErrNoRoute)
}

func TestStepLimit(t *testing.T) {
	g := graph.New[counter]("loop", graph.WithMaxSteps(5))
	require.NoError(t, g.AddNode("a", visit("a", 1)))
	require.NoError(t, g.AddNode("b", visit("b", 1)))
	require.NoError(t, g.AddEdge("a", "a", nil))
	require.NoError(t, g.SetEntryPoint("a"))
	require.NoError(t, g.SetExitPoint("b"))

	_, err := g.Execute(context.Background(), counter{})
	assert.ErrorIs(t, err, graph.ErrStepLimit)
}

func TestNodeErrorWrapped(t *testing.T) {
	boom := errors.New("boom")

	g := graph.New[counter]("failing")
	require.NoError(t, g.AddNode("a", func(context.Context, counter) (counter, error) {
		return counter{}, boom
	}))
	require.NoError(t, g.SetEntryPoint("a"))
	require.NoError(t, g.SetExitPoint("a"))

	_, err := g.Execute(context.Background(), counter{})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "node a")
}

func TestInterruptAndResume(t *testing.T) {
	var reentries int

	review := func(ctx context.Context, s counter) (counter, error) {
		answer, err := graph.Interrupt(ctx, "need a number")
		if err != nil {
			return s, err
		}
		reentries++
		s.Value += answer.(int)
		s.Trail = append(append([]string(nil), s.Trail...), "review")
		return s, nil
	}

	g := graph.New[counter]("review")
	require.NoError(t, g.AddNode("a", visit("a", 1)))
	require.NoError(t, g.AddNode("review", review))
	require.NoError(t, g.AddNode("c", visit("c", 0)))
	require.NoError(t, g.AddEdge("a", "review", nil))
	require.NoError(t, g.AddEdge("review", "c", nil))
	require.NoError(t, g.SetEntryPoint("a"))
	require.NoError(t, g.SetExitPoint("c"))

	_, err := g.Execute(context.Background(), counter{})
	susp, ok := graph.AsSuspension[counter](err)
	require.True(t, ok, "expected suspension, got %v", err)
	assert.Equal(t, "review", susp.Node)
	assert.Equal(t, "need a number", susp.Payload)
	assert.Equal(t, counter{Trail: []string{"a"}, Value: 1}, susp.State)
	assert.Zero(t, reentries)

	ctx := graph.WithResume(context.Background(), 41)
	out, err := g.ExecuteFrom(ctx, susp.Node, susp.State)
	require.NoError(t, err)
	assert.Equal(t, 42, out.Value)
	assert.Equal(t, []string{"a", "review", "c"}, out.Trail)
	assert.Equal(t, 1, reentries)
}

func TestResumeValueOnlyReachesFirstNode(t *testing.T) {
	ask := func(ctx context.Context, s counter) (counter, error) {
		if _, err := graph.Interrupt(ctx, nil); err != nil {
			return s, err
		}
		s.Value++
		return s, nil
	}

	g := graph.New[counter]("two-reviews")
	require.NoError(t, g.AddNode("first", ask))
	require.NoError(t, g.AddNode("second", ask))
	require.NoError(t, g.AddEdge("first", "second", nil))
	require.NoError(t, g.SetEntryPoint("first"))
	require.NoError(t, g.SetExitPoint("second"))

	_, err := g.ExecuteFrom(graph.WithResume(context.Background(), "ok"), "first", counter{})
	susp, ok := graph.AsSuspension[counter](err)
	require.True(t, ok)
	assert.Equal(t, "second", susp.Node)
	assert.Equal(t, 1, susp.State.Value)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := linear(t).Execute(ctx, counter{})
	assert.ErrorIs(t, err, context.Canceled)
}
