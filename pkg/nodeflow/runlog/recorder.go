package runlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Recorder writes engine notifications to a Store. It satisfies the engine's
// Observer and PruneObserver interfaces.
//
// Observer callbacks cannot fail, so the first write error is kept and
// reported by Err.
type Recorder struct {
	store  Store
	logger *slog.Logger

	mu  sync.Mutex
	err error
}

// NewRecorder creates a Recorder writing to store. A nil logger uses
// slog.Default().
func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger}
}

// OnNodeOutput records a node's output.
func (r *Recorder) OnNodeOutput(runID, nodeID string, output any) {
	entry, err := NewOutputEntry(runID, nodeID, output)
	if err != nil {
		r.fail(runID, nodeID, fmt.Errorf("marshal output: %w", err))
		return
	}
	r.write(entry)
}

// OnNodePruned records that a node was skipped.
func (r *Recorder) OnNodePruned(runID, nodeID string) {
	r.write(NewPrunedEntry(runID, nodeID))
}

// Err returns the first error hit while recording, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Recorder) write(e *Entry) {
	data, err := e.Marshal()
	if err != nil {
		r.fail(e.RunID, e.NodeID, fmt.Errorf("marshal entry: %w", err))
		return
	}
	if err := r.store.Record(e.RunID, e.NodeID, data); err != nil {
		r.fail(e.RunID, e.NodeID, err)
	}
}

func (r *Recorder) fail(runID, nodeID string, err error) {
	r.logger.Warn("run log write failed",
		slog.String("run_id", runID),
		slog.String("node_id", nodeID),
		slog.String("error", err.Error()),
	)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = err
	}
}

// Run is the reconstructed view of a recorded run.
type Run struct {
	RunID   string                     `json:"run_id"`
	Outputs map[string]json.RawMessage `json:"outputs"`
	Pruned  []string                   `json:"pruned"`
	Order   []string                   `json:"order"`
}

// LoadRun rebuilds a run from its entries in recording order.
// Returns ErrNotFound if the run has no entries.
func LoadRun(store Store, runID string) (*Run, error) {
	infos, err := store.List(runID)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, ErrNotFound
	}

	run := &Run{
		RunID:   runID,
		Outputs: make(map[string]json.RawMessage, len(infos)),
		Pruned:  []string{},
		Order:   make([]string, 0, len(infos)),
	}
	for _, info := range infos {
		data, err := store.Load(runID, info.NodeID)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", info.NodeID, err)
		}
		e, err := Unmarshal(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", info.NodeID, err)
		}
		switch e.Kind {
		case KindOutput:
			run.Outputs[e.NodeID] = e.Output
			run.Order = append(run.Order, e.NodeID)
		case KindPruned:
			run.Pruned = append(run.Pruned, e.NodeID)
		default:
			return nil, errors.New("unknown entry kind " + string(e.Kind))
		}
	}
	return run, nil
}
