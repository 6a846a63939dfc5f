package nodeflow

import (
	"maps"
	"sync"
)

// OutputStore holds the outputs of one run keyed by node id. Each id can be
// written once.
type OutputStore struct {
	mu      sync.RWMutex
	outputs map[string]any
}

// NewOutputStore returns an empty store.
func NewOutputStore() *OutputStore {
	return &OutputStore{outputs: make(map[string]any)}
}

// Set records the output of nodeID. A second write for the same id returns
// ErrOutputExists and leaves the first value in place.
func (s *OutputStore) Set(nodeID string, output any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.outputs[nodeID]; ok {
		return &NodeError{NodeID: nodeID, Err: ErrOutputExists}
	}
	s.outputs[nodeID] = output
	return nil
}

// Get returns the output of nodeID.
func (s *OutputStore) Get(nodeID string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.outputs[nodeID]
	return v, ok
}

// Has reports whether nodeID has an output.
func (s *OutputStore) Has(nodeID string) bool {
	_, ok := s.Get(nodeID)
	return ok
}

// Len returns the number of recorded outputs.
func (s *OutputStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.outputs)
}

// Snapshot returns a copy of all outputs.
func (s *OutputStore) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.outputs)
}
