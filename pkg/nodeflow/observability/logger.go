// Package observability provides the logging, metrics and tracing hooks used
// by the nodeflow engine.
//
// Logging goes through log/slog. Metrics and tracing use OpenTelemetry and
// the globally registered providers. Both have no-op implementations for
// when they are disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger returns a logger carrying run_id and node_id.
//
//	enriched := EnrichLogger(logger, "run-123", "summarize")
//	enriched.Info("calling model")
func EnrichLogger(logger *slog.Logger, runID, nodeID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("node_id", nodeID),
	)
}

// LogRunStart logs the start of a flow run.
func LogRunStart(logger *slog.Logger, runID string, nodeCount, edgeCount int) {
	if logger == nil {
		return
	}
	logger.Info("flow run starting",
		slog.String("run_id", runID),
		slog.Int("nodes", nodeCount),
		slog.Int("edges", edgeCount),
	)
}

// LogRunComplete logs a run that processed every reachable node.
func LogRunComplete(logger *slog.Logger, runID string, durationMs float64, executed, pruned int) {
	if logger == nil {
		return
	}
	logger.Info("flow run completed",
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("nodes_executed", executed),
		slog.Int("nodes_pruned", pruned),
	)
}

// LogRunError logs a run that terminated abnormally.
func LogRunError(logger *slog.Logger, runID string, err error, durationMs float64, executed int) {
	if logger == nil {
		return
	}
	logger.Error("flow run failed",
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.Int("nodes_executed", executed),
	)
}

// LogWaveStart logs the dispatch of one ready wave.
func LogWaveStart(logger *slog.Logger, wave int, nodeIDs []string) {
	if logger == nil {
		return
	}
	logger.Debug("wave starting",
		slog.Int("wave", wave),
		slog.Int("size", len(nodeIDs)),
		slog.Any("nodes", nodeIDs),
	)
}

// LogNodeStart logs node execution start.
func LogNodeStart(logger *slog.Logger, nodeID, nodeType string) {
	if logger == nil {
		return
	}
	logger.Debug("node starting",
		slog.String("node_id", nodeID),
		slog.String("node_type", nodeType),
	)
}

// LogNodeComplete logs node completion.
func LogNodeComplete(logger *slog.Logger, nodeID string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("node completed",
		slog.String("node_id", nodeID),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogNodeError logs a node failure. The run continues; the failure is
// stored as the node's output.
func LogNodeError(logger *slog.Logger, nodeID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("node failed",
		slog.String("node_id", nodeID),
		slog.String("error", err.Error()),
	)
}

// LogNodePruned logs a node on an untaken conditional branch.
func LogNodePruned(logger *slog.Logger, nodeID string) {
	if logger == nil {
		return
	}
	logger.Debug("node pruned",
		slog.String("node_id", nodeID),
	)
}

// LogDeadlock logs the nodes that could never become ready.
func LogDeadlock(logger *slog.Logger, runID string, stuck []string) {
	if logger == nil {
		return
	}
	logger.Error("flow deadlocked",
		slog.String("run_id", runID),
		slog.Any("stuck_nodes", stuck),
	)
}

// TimedOperation returns a function reporting elapsed milliseconds.
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
