package nodeflow

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Node constructors used across tests.

func textInput(id, text string) Node {
	return Node{ID: id, Type: TypeTextInput, Config: map[string]any{"text": text}}
}

func textOutput(id string) Node {
	return Node{ID: id, Type: TypeTextOutput}
}

func combiner(id, suffix string) Node {
	return Node{ID: id, Type: TypeTextCombiner, Config: map[string]any{"additionalText": suffix}}
}

func conditional(id, cond string) Node {
	return Node{ID: id, Type: TypeConditional, Config: map[string]any{"condition": cond}}
}

func edge(source, target string) Edge {
	return Edge{ID: source + "-" + target, Source: source, Target: target}
}

func handleEdge(source, handle, target string) Edge {
	return Edge{ID: source + "-" + handle + "-" + target, Source: source, SourceHandle: handle, Target: target}
}

// recordingObserver captures every notification in order.
type recordingObserver struct {
	mu      sync.Mutex
	outputs []observed
	pruned  []string
}

type observed struct {
	runID  string
	nodeID string
	output any
}

func (o *recordingObserver) OnNodeOutput(runID, nodeID string, output any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outputs = append(o.outputs, observed{runID, nodeID, output})
}

func (o *recordingObserver) OnNodePruned(_, nodeID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pruned = append(o.pruned, nodeID)
}

func (o *recordingObserver) nodeIDs() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]string, len(o.outputs))
	for i, obs := range o.outputs {
		ids[i] = obs.nodeID
	}
	return ids
}

// Custom node types registered by tests.
const (
	typeSleep  NodeType = "test-sleep"
	typeFail   NodeType = "test-fail"
	typePanic  NodeType = "test-panic"
	typeBlock  NodeType = "test-block"
	typeConcat NodeType = "test-concat"
)

// sleepHandler returns its node id after the configured number of milliseconds.
func sleepHandler(ctx context.Context, req Request) (any, error) {
	d := time.Duration(req.Config.Int("ms", 0)) * time.Millisecond
	select {
	case <-time.After(d):
		return req.Node.ID, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var errTestFailure = errors.New("deliberate failure")

func failHandler(context.Context, Request) (any, error) {
	return nil, errTestFailure
}

func panicHandler(context.Context, Request) (any, error) {
	panic("kaboom")
}

// blockHandler waits for cancellation.
func blockHandler(ctx context.Context, _ Request) (any, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// concatHandler joins every input as text, in edge order.
func concatHandler(_ context.Context, req Request) (any, error) {
	var s string
	for _, v := range req.Inputs.Values() {
		s += Stringify(v)
	}
	return s, nil
}

// testEngine returns an engine with the test node types registered.
func testEngine(opts ...ExecutorOption) *Engine {
	base := []ExecutorOption{
		WithHandler(typeSleep, HandlerFunc(sleepHandler)),
		WithHandler(typeFail, HandlerFunc(failHandler)),
		WithHandler(typePanic, HandlerFunc(panicHandler)),
		WithHandler(typeBlock, HandlerFunc(blockHandler)),
		WithHandler(typeConcat, HandlerFunc(concatHandler)),
	}
	return NewEngine(WithExecutor(NewExecutor(append(base, opts...)...)))
}
