package nodeflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/nodeflow/pkg/nodeflow/observability"
)

// RunResult is the outcome of one ExecuteFlow call.
type RunResult struct {
	RunID string
	// Outputs maps node id to output for every node that ran.
	Outputs map[string]any
	// Pruned lists nodes skipped on an untaken conditional branch, in the
	// order they were found.
	Pruned []string
	// Waves is the number of ready waves dispatched.
	Waves    int
	Duration time.Duration
}

// ExecuteFlow runs plan with a default Engine and returns the node outputs.
// onNodeOutput, if non-nil, is called as each node finishes. On deadlock or
// cancellation the outputs recorded so far are returned with the error.
func ExecuteFlow(ctx context.Context, plan *ExecutionPlan, onNodeOutput func(nodeID string, output any)) (map[string]any, error) {
	res, err := NewEngine().ExecuteFlow(ctx, plan, WithOutputFunc(onNodeOutput))
	if res == nil {
		return nil, err
	}
	return res.Outputs, err
}

// ExecuteFlow runs plan to completion.
//
// Nodes run in waves: every node whose inputs are all available is
// dispatched concurrently, and the wave is joined before the next one is
// resolved. Node failures never stop the run; they become "Error: ..."
// outputs. The run ends with an error only when it deadlocks (a cycle or an
// edge to a missing node) or ctx is cancelled. In both cases the returned
// RunResult holds the outputs recorded so far.
func (e *Engine) ExecuteFlow(ctx context.Context, plan *ExecutionPlan, opts ...RunOption) (result *RunResult, runErr error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if plan == nil {
		return nil, ErrNilPlan
	}
	if id, dup := duplicateNodeID(plan.Nodes); dup {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}

	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	runID := cfg.runID
	if runID == "" {
		runID = uuid.NewString()
	}

	start := time.Now()
	observability.LogRunStart(e.logger, runID, len(plan.Nodes), len(plan.Edges))

	ctx, runSpan := e.spans.StartRunSpan(ctx, runID, len(plan.Nodes))
	defer func() {
		e.spans.EndSpanWithError(runSpan, runErr)
	}()

	r := newRun(e, plan, runID, cfg.observers)
	runErr = r.execute(ctx)

	duration := time.Since(start)
	result = &RunResult{
		RunID:    runID,
		Outputs:  r.store.Snapshot(),
		Pruned:   r.pruned,
		Waves:    r.waves,
		Duration: duration,
	}

	durationMs := float64(duration.Microseconds()) / 1000
	var (
		deadlock *DeadlockError
		cancel   *CancellationError
	)
	switch {
	case runErr == nil:
		e.metrics.RecordRun(ctx, observability.OutcomeCompleted, duration)
		observability.LogRunComplete(e.logger, runID, durationMs, r.store.Len(), len(r.pruned))
	case errors.As(runErr, &deadlock):
		e.metrics.RecordRun(ctx, observability.OutcomeDeadlock, duration)
		observability.LogDeadlock(e.logger, runID, deadlock.Stuck)
		observability.LogRunError(e.logger, runID, runErr, durationMs, r.store.Len())
	case errors.As(runErr, &cancel):
		e.metrics.RecordRun(ctx, observability.OutcomeCancelled, duration)
		observability.LogRunError(e.logger, runID, runErr, durationMs, r.store.Len())
	}
	return result, runErr
}

// run is the state of one ExecuteFlow call.
type run struct {
	engine *Engine
	plan   *ExecutionPlan
	id     string

	resolver    *resolver
	store       *OutputStore
	unprocessed []Node
	processed   map[string]bool
	dead        map[string]bool
	blocked     blockedSet
	pruned      []string
	waves       int

	observers []Observer
	notifyMu  sync.Mutex
}

func newRun(e *Engine, plan *ExecutionPlan, id string, observers []Observer) *run {
	return &run{
		engine:      e,
		plan:        plan,
		id:          id,
		resolver:    newResolver(plan.Nodes, plan.Edges),
		store:       NewOutputStore(),
		unprocessed: append([]Node(nil), plan.Nodes...),
		processed:   make(map[string]bool, len(plan.Nodes)),
		dead:        make(map[string]bool),
		blocked:     make(blockedSet),
		observers:   observers,
	}
}

func (r *run) execute(ctx context.Context) error {
	for len(r.unprocessed) > 0 {
		if err := ctx.Err(); err != nil {
			return &CancellationError{Pending: nodeIDs(r.unprocessed), Cause: err}
		}

		ready, newlyDead := r.resolver.frontier(r.unprocessed, r.processed, r.blocked, r.dead)
		for _, n := range newlyDead {
			r.prune(ctx, n.ID)
		}

		if len(ready) == 0 {
			if len(newlyDead) > 0 {
				r.compact()
				continue
			}
			return &DeadlockError{
				Stuck:    nodeIDs(r.unprocessed),
				Dangling: r.resolver.dangling(r.plan.Edges),
			}
		}

		r.waves++
		results := r.runWave(ctx, r.waves, ready)
		for _, res := range results {
			if res == nil {
				continue
			}
			if err := r.commit(ready, *res); err != nil {
				return err
			}
		}
		r.compact()
	}
	return nil
}

// runWave executes ready concurrently and returns one result per node, nil
// for nodes abandoned because ctx was cancelled.
func (r *run) runWave(ctx context.Context, wave int, ready []Node) []*NodeResult {
	e := r.engine
	ids := nodeIDs(ready)
	observability.LogWaveStart(e.logger, wave, ids)
	e.metrics.RecordWave(ctx, len(ready))

	waveCtx, span := e.spans.StartWaveSpan(ctx, wave, len(ready))
	defer e.spans.EndSpanWithError(span, nil)

	results := make([]*NodeResult, len(ready))
	var g errgroup.Group
	g.SetLimit(e.maxConcurrency)
	for i, node := range ready {
		g.Go(func() error {
			if waveCtx.Err() != nil {
				return nil
			}
			res := r.runNode(waveCtx, node)
			if res.Failed() && waveCtx.Err() != nil {
				return nil
			}
			results[i] = &res
			r.notify(node.ID, res.Output)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *run) runNode(ctx context.Context, node Node) NodeResult {
	e := r.engine
	observability.LogNodeStart(e.logger, node.ID, string(node.Type))

	nodeCtx, span := e.spans.StartNodeSpan(ctx, node.ID, string(node.Type))
	res := e.executor.Execute(nodeCtx, node, r.inputsFor(node.ID), r.plan)
	e.metrics.RecordNodeExecution(nodeCtx, string(node.Type), res.Duration, res.Failed())

	if res.Failed() {
		e.spans.EndSpanWithError(span, res.Err)
		observability.LogNodeError(e.logger, node.ID, res.Err)
	} else {
		e.spans.EndSpanWithError(span, nil)
		observability.LogNodeComplete(e.logger, node.ID, float64(res.Duration.Microseconds())/1000)
	}
	return res
}

// inputsFor gathers the stored outputs feeding nodeID, in edge order. A
// conditional delivers its passthrough value on the taken branch handle and
// the full ConditionalResult on any other handle.
func (r *run) inputsFor(nodeID string) Inputs {
	edges := r.resolver.incoming[nodeID]
	in := make(Inputs, 0, len(edges))
	for _, edge := range edges {
		v, ok := r.store.Get(edge.Source)
		if !ok {
			continue
		}
		if cr, isCond := v.(ConditionalResult); isCond && edge.SourceHandle == cr.TakenHandle() {
			v = cr.Output
		}
		in = append(in, Input{
			SourceID:     edge.Source,
			SourceHandle: edge.SourceHandle,
			TargetHandle: edge.TargetHandle,
			Value:        v,
		})
	}
	return in
}

// commit stores a finished node's output after its wave has joined.
func (r *run) commit(wave []Node, res NodeResult) error {
	if err := r.store.Set(res.NodeID, res.Output); err != nil {
		return err
	}
	r.processed[res.NodeID] = true

	switch out := res.Output.(type) {
	case ConditionalResult:
		r.blocked.block(res.NodeID, out.UntakenHandle())
		if r.engine.logger != nil {
			r.engine.logger.Debug("conditional branch selected",
				"node_id", res.NodeID,
				"handle", out.TakenHandle(),
				"targets", r.resolver.targets(res.NodeID, out.TakenHandle()),
			)
		}
	default:
		if nodeTypeOf(wave, res.NodeID) == TypeConditional {
			// A failed conditional selects neither branch.
			r.blocked.block(res.NodeID, TrueHandle)
			r.blocked.block(res.NodeID, FalseHandle)
		}
	}
	return nil
}

func (r *run) prune(ctx context.Context, nodeID string) {
	r.pruned = append(r.pruned, nodeID)
	observability.LogNodePruned(r.engine.logger, nodeID)
	r.engine.spans.AddSpanEvent(ctx, "node.pruned", attribute.String("node.id", nodeID))

	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()
	for _, o := range r.observers {
		if po, ok := o.(PruneObserver); ok {
			po.OnNodePruned(r.id, nodeID)
		}
	}
}

func (r *run) notify(nodeID string, output any) {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()
	for _, o := range r.observers {
		o.OnNodeOutput(r.id, nodeID, output)
	}
}

// compact drops processed and dead nodes from the unprocessed list.
func (r *run) compact() {
	kept := r.unprocessed[:0]
	for _, n := range r.unprocessed {
		if !r.processed[n.ID] && !r.dead[n.ID] {
			kept = append(kept, n)
		}
	}
	r.unprocessed = kept
}

func nodeIDs(nodes []Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

// duplicateNodeID returns the first id used by more than one node.
func duplicateNodeID(nodes []Node) (string, bool) {
	seen := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if _, ok := seen[n.ID]; ok {
			return n.ID, true
		}
		seen[n.ID] = struct{}{}
	}
	return "", false
}

func nodeTypeOf(nodes []Node, id string) NodeType {
	for _, n := range nodes {
		if n.ID == id {
			return n.Type
		}
	}
	return ""
}
