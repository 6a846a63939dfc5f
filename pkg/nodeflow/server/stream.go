package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/randalmurphal/nodeflow/pkg/nodeflow"
)

// Event types written to the NDJSON stream.
const (
	EventNode   = "node"
	EventPruned = "pruned"
	EventDone   = "done"
	EventError  = "error"
)

// Event is one line of the POST /v1/runs response.
type Event struct {
	Type       string   `json:"type"`
	RunID      string   `json:"run_id"`
	NodeID     string   `json:"node_id,omitempty"`
	Output     any      `json:"output"`
	Pruned     []string `json:"pruned,omitempty"`
	Waves      int      `json:"waves,omitempty"`
	DurationMs float64  `json:"duration_ms,omitempty"`
	Error      string   `json:"error,omitempty"`
	Stuck      []string `json:"stuck,omitempty"`
	Pending    []string `json:"pending,omitempty"`
}

// eventStream writes engine notifications as NDJSON. The engine serialises
// observer calls, so writes never interleave.
type eventStream struct {
	w      io.Writer
	enc    *json.Encoder
	logger *slog.Logger
}

func newEventStream(w io.Writer, logger *slog.Logger) *eventStream {
	return &eventStream{w: w, enc: json.NewEncoder(w), logger: logger}
}

func (s *eventStream) OnNodeOutput(runID, nodeID string, output any) {
	s.write(Event{Type: EventNode, RunID: runID, NodeID: nodeID, Output: output})
}

func (s *eventStream) OnNodePruned(runID, nodeID string) {
	s.write(Event{Type: EventPruned, RunID: runID, NodeID: nodeID})
}

// finish writes the closing event for a run.
func (s *eventStream) finish(runID string, res *nodeflow.RunResult, err error) {
	ev := Event{Type: EventDone, RunID: runID}
	if res != nil {
		ev.Waves = res.Waves
		ev.Pruned = res.Pruned
		ev.DurationMs = float64(res.Duration.Microseconds()) / 1000.0
	}
	if err != nil {
		ev.Type = EventError
		ev.Error = err.Error()

		var deadlock *nodeflow.DeadlockError
		if errors.As(err, &deadlock) {
			ev.Stuck = deadlock.Stuck
		}
		var cancelled *nodeflow.CancellationError
		if errors.As(err, &cancelled) {
			ev.Pending = cancelled.Pending
		}
	}
	s.write(ev)
}

func (s *eventStream) write(ev Event) {
	err := s.enc.Encode(ev)
	if err != nil {
		// Outputs that cannot be marshalled are sent as text.
		ev.Output = nodeflow.Stringify(ev.Output)
		err = s.enc.Encode(ev)
	}
	if err != nil {
		s.logger.Warn("event stream write failed",
			slog.String("run_id", ev.RunID),
			slog.String("error", err.Error()),
		)
		return
	}
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
}
