// Package runlog records the outputs of flow runs so they can be inspected
// after the run has finished.
//
// A Recorder plugs into the engine as an observer and writes one Entry per
// node event to a Store. Stores are write-once per (run, node): a node's
// output never changes after it has been recorded.
package runlog

import (
	"errors"
	"time"
)

// Store persists run entries.
// Implementations must be safe for concurrent use.
type Store interface {
	// Record stores the entry data for a node of a run.
	// Returns ErrAlreadyRecorded if (runID, nodeID) already has an entry.
	Record(runID, nodeID string, data []byte) error

	// Load retrieves the entry data for a node.
	// Returns ErrNotFound if nothing was recorded.
	Load(runID, nodeID string) ([]byte, error)

	// List returns metadata for every entry of a run, ordered by sequence.
	// Returns an empty slice (not an error) if the run is unknown.
	List(runID string) ([]Info, error)

	// Runs returns the ids of every run with at least one entry.
	Runs() ([]string, error)

	// DeleteRun removes all entries for a run.
	// Returns nil if the run has no entries.
	DeleteRun(runID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info describes a stored entry without loading it.
type Info struct {
	RunID     string
	NodeID    string
	Sequence  int
	Timestamp time.Time
	Size      int64
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates an entry doesn't exist.
	ErrNotFound = errors.New("run entry not found")

	// ErrAlreadyRecorded indicates the node already has an entry for the run.
	ErrAlreadyRecorded = errors.New("run entry already recorded")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("run log store closed")
)
