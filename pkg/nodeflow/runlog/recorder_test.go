package runlog_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/nodeflow/pkg/nodeflow"
	"github.com/randalmurphal/nodeflow/pkg/nodeflow/runlog"
)

func TestEntry_RoundTrip(t *testing.T) {
	e, err := runlog.NewOutputEntry("run-1", "n1", map[string]any{"k": 1})
	require.NoError(t, err)
	assert.Equal(t, runlog.Version, e.Version)
	assert.Equal(t, runlog.KindOutput, e.Kind)
	assert.JSONEq(t, `{"k":1}`, string(e.Output))

	data, err := e.Marshal()
	require.NoError(t, err)

	got, err := runlog.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, e.RunID, got.RunID)
	assert.Equal(t, e.NodeID, got.NodeID)
	assert.True(t, e.Timestamp.Equal(got.Timestamp))
}

func TestNewOutputEntry_Unmarshalable(t *testing.T) {
	_, err := runlog.NewOutputEntry("run-1", "n1", make(chan int))
	assert.Error(t, err)
}

func TestRecorder_RecordsFlowRun(t *testing.T) {
	store := runlog.NewMemoryStore()
	rec := runlog.NewRecorder(store, nil)

	plan := nodeflow.BuildExecutionPlan(
		[]nodeflow.Node{
			{ID: "in", Type: nodeflow.TypeTextInput, Config: map[string]any{"text": "a cat"}},
			{ID: "cond", Type: nodeflow.TypeConditional, Config: map[string]any{"condition": "contains('cat')"}},
			{ID: "yes", Type: nodeflow.TypeTextOutput},
			{ID: "no", Type: nodeflow.TypeTextOutput},
		},
		[]nodeflow.Edge{
			{ID: "e1", Source: "in", Target: "cond"},
			{ID: "e2", Source: "cond", SourceHandle: nodeflow.TrueHandle, Target: "yes"},
			{ID: "e3", Source: "cond", SourceHandle: nodeflow.FalseHandle, Target: "no"},
		},
	)

	res, err := nodeflow.NewEngine().ExecuteFlow(context.Background(), plan,
		nodeflow.WithRunID("run-42"), nodeflow.WithObserver(rec))
	require.NoError(t, err)
	require.NoError(t, rec.Err())

	run, err := runlog.LoadRun(store, "run-42")
	require.NoError(t, err)

	assert.Equal(t, res.RunID, run.RunID)
	assert.Len(t, run.Outputs, len(res.Outputs))
	assert.Equal(t, []string{"no"}, run.Pruned)
	assert.Equal(t, []string{"in", "cond", "yes"}, run.Order)

	var yes string
	require.NoError(t, json.Unmarshal(run.Outputs["yes"], &yes))
	assert.Equal(t, "a cat", yes)

	var cond nodeflow.ConditionalResult
	require.NoError(t, json.Unmarshal(run.Outputs["cond"], &cond))
	assert.True(t, cond.Result)
	assert.Equal(t, "a cat", cond.Output)
}

func TestRecorder_KeepsFirstError(t *testing.T) {
	store := runlog.NewMemoryStore()
	rec := runlog.NewRecorder(store, nil)

	rec.OnNodeOutput("run-1", "a", "x")
	assert.NoError(t, rec.Err())

	rec.OnNodeOutput("run-1", "a", "again")
	assert.ErrorIs(t, rec.Err(), runlog.ErrAlreadyRecorded)

	rec.OnNodeOutput("run-1", "b", make(chan int))
	assert.ErrorIs(t, rec.Err(), runlog.ErrAlreadyRecorded)
}

func TestLoadRun_NotFound(t *testing.T) {
	_, err := runlog.LoadRun(runlog.NewMemoryStore(), "missing")
	assert.ErrorIs(t, err, runlog.ErrNotFound)
}
