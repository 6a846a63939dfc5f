package runlog

import (
	"encoding/json"
	"time"
)

// Version is the current entry format version.
const Version = 1

// Kind distinguishes what happened to a node.
type Kind string

const (
	KindOutput Kind = "output"
	KindPruned Kind = "pruned"
)

// Entry is the persisted record of one node event.
type Entry struct {
	Version   int             `json:"version"`
	RunID     string          `json:"run_id"`
	NodeID    string          `json:"node_id"`
	Kind      Kind            `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
	Output    json.RawMessage `json:"output,omitempty"`
}

// NewOutputEntry builds an entry for a node output. The output must be JSON
// serializable.
func NewOutputEntry(runID, nodeID string, output any) (*Entry, error) {
	data, err := json.Marshal(output)
	if err != nil {
		return nil, err
	}
	return &Entry{
		Version:   Version,
		RunID:     runID,
		NodeID:    nodeID,
		Kind:      KindOutput,
		Timestamp: time.Now().UTC(),
		Output:    data,
	}, nil
}

// NewPrunedEntry builds an entry for a node skipped by a conditional branch.
func NewPrunedEntry(runID, nodeID string) *Entry {
	return &Entry{
		Version:   Version,
		RunID:     runID,
		NodeID:    nodeID,
		Kind:      KindPruned,
		Timestamp: time.Now().UTC(),
	}
}

// Marshal serializes an entry to JSON.
func (e *Entry) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal deserializes an entry from JSON.
func Unmarshal(data []byte) (*Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
