// Package observability provides structured logging, OTel metrics, and
// tracing for stepflow. Everything is opt-in; no-op implementations keep
// the hot path free when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger returns a logger tagged with run and node context.
func EnrichLogger(logger *slog.Logger, runID, nodeID string, attempt int) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("node_id", nodeID),
		slog.Int("attempt", attempt),
	)
}

// LogStepStart logs the start of an advance call.
func LogStepStart(logger *slog.Logger, runID, nodeID string) {
	if logger == nil {
		return
	}
	logger.Debug("step starting",
		slog.String("run_id", runID),
		slog.String("node_id", nodeID),
	)
}

// LogStepComplete logs the end of an advance call.
func LogStepComplete(logger *slog.Logger, runID, status string, durationMs float64, nodeCount int) {
	if logger == nil {
		return
	}
	logger.Info("step completed",
		slog.String("run_id", runID),
		slog.String("status", status),
		slog.Float64("duration_ms", durationMs),
		slog.Int("nodes_executed", nodeCount),
	)
}

// LogStepError logs a failed advance call.
func LogStepError(logger *slog.Logger, runID, nodeID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("step failed",
		slog.String("run_id", runID),
		slog.String("node_id", nodeID),
		slog.String("error", err.Error()),
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

// LogNodeComplete logs successful node completion.
func LogNodeComplete(logger *slog.Logger, nodeID, outcome string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("node completed",
		slog.String("node_id", nodeID),
		slog.String("outcome", outcome),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogNodeError logs node execution failure.
func LogNodeError(logger *slog.Logger, nodeID string, err error, retryable bool) {
	if logger == nil {
		return
	}
	logger.Error("node failed",
		slog.String("node_id", nodeID),
		slog.String("error", err.Error()),
		slog.Bool("retryable", retryable),
	)
}

// LogRunSuspended logs a run entering waiting_for_input.
func LogRunSuspended(logger *slog.Logger, runID, nodeID string) {
	if logger == nil {
		return
	}
	logger.Info("run suspended for input",
		slog.String("run_id", runID),
		slog.String("node_id", nodeID),
	)
}

// TimedOperation returns a function that reports elapsed milliseconds.
//
//	done := observability.TimedOperation()
//	// ... work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000.0
	}
}

// LogPersistError logs a persistence failure.
func LogPersistError(logger *slog.Logger, runID, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("persist failed",
		slog.String("run_id", runID),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}
