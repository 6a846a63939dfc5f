package nodeflow

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteFlow_Linear(t *testing.T) {
	plan := BuildExecutionPlan(
		[]Node{textInput("in", "Hello"), combiner("join", " World"), textOutput("out")},
		[]Edge{edge("in", "join"), edge("join", "out")},
	)

	outputs, err := ExecuteFlow(context.Background(), plan, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"in":   "Hello",
		"join": "Hello World",
		"out":  "Hello World",
	}, outputs)
}

func TestExecuteFlow_EmptyPlan(t *testing.T) {
	res, err := NewEngine().ExecuteFlow(context.Background(), BuildExecutionPlan(nil, nil))
	require.NoError(t, err)
	assert.Empty(t, res.Outputs)
	assert.Equal(t, 0, res.Waves)
}

func TestExecuteFlow_NilArguments(t *testing.T) {
	plan := BuildExecutionPlan(nil, nil)

	//nolint:staticcheck // nil context is the case under test
	_, err := NewEngine().ExecuteFlow(nil, plan)
	assert.ErrorIs(t, err, ErrNilContext)

	_, err = NewEngine().ExecuteFlow(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilPlan)

	outputs, err := ExecuteFlow(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrNilPlan)
	assert.Nil(t, outputs)
}

func TestExecuteFlow_DuplicateNodeIDs(t *testing.T) {
	plan := BuildExecutionPlan(
		[]Node{textInput("a", "first"), textInput("b", "x"), textInput("a", "second")},
		nil,
	)
	obs := &recordingObserver{}

	var (
		res *RunResult
		err error
	)
	require.NotPanics(t, func() {
		res, err = NewEngine().ExecuteFlow(context.Background(), plan, WithObserver(obs))
	})
	require.ErrorIs(t, err, ErrDuplicateNode)
	assert.Contains(t, err.Error(), "duplicate node id: a")
	assert.Nil(t, res)
	assert.Empty(t, obs.nodeIDs(), "no node runs when ids collide")
}

func TestExecuteFlow_ObserverSeesEveryNodeInDependencyOrder(t *testing.T) {
	plan := BuildExecutionPlan(
		[]Node{textInput("a", "1"), textInput("b", "2"), {ID: "c", Type: typeConcat}, textOutput("d")},
		[]Edge{edge("a", "c"), edge("b", "c"), edge("c", "d")},
	)
	obs := &recordingObserver{}

	res, err := testEngine().ExecuteFlow(context.Background(), plan, WithObserver(obs), WithRunID("run-42"))
	require.NoError(t, err)

	ids := obs.nodeIDs()
	require.Len(t, ids, 4)
	assert.ElementsMatch(t, []string{"a", "b"}, ids[:2])
	assert.Equal(t, []string{"c", "d"}, ids[2:])
	for _, o := range obs.outputs {
		assert.Equal(t, "run-42", o.runID)
		assert.Equal(t, res.Outputs[o.nodeID], o.output)
	}
	assert.Equal(t, "12", res.Outputs["c"])
	assert.Equal(t, 3, res.Waves)
	assert.Equal(t, "run-42", res.RunID)
}

func TestExecuteFlow_GeneratesRunID(t *testing.T) {
	plan := BuildExecutionPlan([]Node{textInput("a", "x")}, nil)

	r1, err := NewEngine().ExecuteFlow(context.Background(), plan)
	require.NoError(t, err)
	r2, err := NewEngine().ExecuteFlow(context.Background(), plan)
	require.NoError(t, err)

	assert.Len(t, r1.RunID, 36)
	assert.NotEqual(t, r1.RunID, r2.RunID)
}

func TestExecuteFlow_InputsFollowEdgeOrder(t *testing.T) {
	plan := BuildExecutionPlan(
		[]Node{textInput("z", "Z"), textInput("a", "A"), {ID: "c", Type: typeConcat}},
		[]Edge{edge("z", "c"), edge("a", "c")},
	)
	res, err := testEngine().ExecuteFlow(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, "ZA", res.Outputs["c"])
}

func TestExecuteFlow_NodeFailureDoesNotStopRun(t *testing.T) {
	plan := BuildExecutionPlan(
		[]Node{
			textInput("a", "ok"),
			{ID: "bad", Type: typeFail},
			{ID: "boom", Type: typePanic},
			textOutput("after-bad"),
			textOutput("after-a"),
		},
		[]Edge{edge("a", "bad"), edge("a", "boom"), edge("bad", "after-bad"), edge("a", "after-a")},
	)

	res, err := testEngine().ExecuteFlow(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, "Error: deliberate failure", res.Outputs["bad"])
	assert.Equal(t, "Error: kaboom", res.Outputs["boom"])
	assert.Equal(t, "Error: deliberate failure", res.Outputs["after-bad"])
	assert.Equal(t, "ok", res.Outputs["after-a"])
}

func TestExecuteFlow_UnsupportedTypeIsAnOutput(t *testing.T) {
	plan := BuildExecutionPlan([]Node{{ID: "v", Type: "video"}}, nil)
	outputs, err := ExecuteFlow(context.Background(), plan, nil)
	require.NoError(t, err)
	assert.Equal(t, "Unsupported node type: video", outputs["v"])
}

func TestExecuteFlow_Deadlock(t *testing.T) {
	tests := []struct {
		name         string
		nodes        []Node
		edges        []Edge
		wantStuck    []string
		wantDangling int
		wantOutputs  []string
	}{
		{
			name:        "two node cycle",
			nodes:       []Node{textInput("root", "r"), textOutput("x"), textOutput("y")},
			edges:       []Edge{edge("root", "x"), edge("x", "y"), edge("y", "x")},
			wantStuck:   []string{"x", "y"},
			wantOutputs: []string{"root"},
		},
		{
			name:        "self loop",
			nodes:       []Node{textOutput("self")},
			edges:       []Edge{edge("self", "self")},
			wantStuck:   []string{"self"},
			wantOutputs: []string{},
		},
		{
			name:         "edge from missing node",
			nodes:        []Node{textInput("a", "x"), textOutput("b")},
			edges:        []Edge{edge("a", "b"), edge("ghost", "b")},
			wantStuck:    []string{"b"},
			wantDangling: 1,
			wantOutputs:  []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := BuildExecutionPlan(tt.nodes, tt.edges)

			done := make(chan struct{})
			var (
				res *RunResult
				err error
			)
			go func() {
				defer close(done)
				res, err = NewEngine().ExecuteFlow(context.Background(), plan)
			}()
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("ExecuteFlow did not terminate")
			}

			require.ErrorIs(t, err, ErrDeadlock)
			var dl *DeadlockError
			require.ErrorAs(t, err, &dl)
			assert.Equal(t, tt.wantStuck, dl.Stuck)
			assert.Len(t, dl.Dangling, tt.wantDangling)

			require.NotNil(t, res)
			keys := make([]string, 0, len(res.Outputs))
			for k := range res.Outputs {
				keys = append(keys, k)
			}
			assert.ElementsMatch(t, tt.wantOutputs, keys)
		})
	}
}

func TestDeadlockError_Message(t *testing.T) {
	err := &DeadlockError{Stuck: []string{"x", "y"}, Dangling: []Edge{{Source: "ghost", Target: "x"}}}
	assert.Equal(t, "flow deadlocked: 2 node(s) can never run: x, y (dangling edges: ghost->x)", err.Error())
	assert.True(t, errors.Is(err, ErrDeadlock))
}

func TestExecuteFlow_WaveRunsConcurrently(t *testing.T) {
	var nodes []Node
	for i := range 4 {
		nodes = append(nodes, Node{ID: fmt.Sprintf("s%d", i), Type: typeSleep, Config: map[string]any{"ms": 150}})
	}
	plan := BuildExecutionPlan(nodes, nil)

	start := time.Now()
	res, err := testEngine().ExecuteFlow(context.Background(), plan)
	require.NoError(t, err)

	assert.Len(t, res.Outputs, 4)
	assert.Equal(t, 1, res.Waves)
	assert.Less(t, time.Since(start), 450*time.Millisecond, "wave should not run sequentially")
}

func TestExecuteFlow_MaxConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	probe := HandlerFunc(func(ctx context.Context, req Request) (any, error) {
		n := running.Add(1)
		defer running.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return req.Node.ID, nil
	})

	var nodes []Node
	for i := range 10 {
		nodes = append(nodes, Node{ID: fmt.Sprintf("p%d", i), Type: "probe"})
	}
	engine := NewEngine(
		WithExecutor(NewExecutor(WithHandler("probe", probe))),
		WithMaxConcurrency(2),
	)

	res, err := engine.ExecuteFlow(context.Background(), BuildExecutionPlan(nodes, nil))
	require.NoError(t, err)
	assert.Len(t, res.Outputs, 10)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestExecuteFlow_Cancellation(t *testing.T) {
	plan := BuildExecutionPlan(
		[]Node{
			textInput("fast", "done"),
			{ID: "slow", Type: typeBlock},
			textOutput("after-slow"),
		},
		[]Edge{edge("slow", "after-slow")},
	)
	obs := &recordingObserver{}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	res, err := testEngine().ExecuteFlow(ctx, plan, WithObserver(obs))

	require.ErrorIs(t, err, context.Canceled)
	var ce *CancellationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"slow", "after-slow"}, ce.Pending)

	require.NotNil(t, res)
	assert.Equal(t, map[string]any{"fast": "done"}, res.Outputs)
	assert.Equal(t, []string{"fast"}, obs.nodeIDs())
}

func TestExecuteFlow_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	plan := BuildExecutionPlan([]Node{textInput("a", "x")}, nil)
	res, err := NewEngine().ExecuteFlow(ctx, plan)

	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Outputs)
}

func TestExecuteFlow_Deadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	plan := BuildExecutionPlan([]Node{{ID: "b", Type: typeBlock}}, nil)
	_, err := testEngine().ExecuteFlow(ctx, plan)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecuteFlow_RunsAreIndependent(t *testing.T) {
	plan := BuildExecutionPlan(
		[]Node{textInput("a", "x"), combiner("b", "!")},
		[]Edge{edge("a", "b")},
	)
	engine := NewEngine()

	r1, err := engine.ExecuteFlow(context.Background(), plan)
	require.NoError(t, err)
	r1.Outputs["a"] = "mutated"
	r1.Outputs["extra"] = true

	r2, err := engine.ExecuteFlow(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "x", "b": "x!"}, r2.Outputs)
}

func TestExecuteFlow_ConcurrentRunsOnOneEngine(t *testing.T) {
	plan := BuildExecutionPlan(
		[]Node{textInput("a", "x"), combiner("b", "y"), textOutput("c")},
		[]Edge{edge("a", "b"), edge("b", "c")},
	)
	engine := NewEngine()

	errs := make(chan error, 10)
	for range 10 {
		go func() {
			res, err := engine.ExecuteFlow(context.Background(), plan)
			if err == nil && res.Outputs["c"] != "xy" {
				err = fmt.Errorf("unexpected output %v", res.Outputs["c"])
			}
			errs <- err
		}()
	}
	for range 10 {
		assert.NoError(t, <-errs)
	}
}
