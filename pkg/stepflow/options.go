package stepflow

import (
	"log/slog"

	"github.com/randalmurphal/stepflow/pkg/stepflow/llm"
	"github.com/randalmurphal/stepflow/pkg/stepflow/node"
	"github.com/randalmurphal/stepflow/pkg/stepflow/observability"
	"github.com/randalmurphal/stepflow/pkg/stepflow/store"
)

// Option configures an Engine.
type Option func(*Engine)

// WithStore sets the persistence backend.
// Default: store.NewMemory()
func WithStore(s store.Store) Option {
	return func(e *Engine) {
		if s != nil {
			e.store = s
		}
	}
}

// WithNodeRegistry sets the node type catalog used at compile time.
// Default: node.Builtin()
func WithNodeRegistry(r *node.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.nodes = r
		}
	}
}

// WithLLM sets the provider client handed to LLM nodes.
// Runs whose graphs contain no LLM nodes never need one.
func WithLLM(c llm.Client) Option {
	return func(e *Engine) {
		e.client = c
	}
}

// WithLogger sets the structured logger.
// Default: slog.Default()
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
// Default: observability.NoopMetrics{}
//
// Example:
//
//	engine := stepflow.New(stepflow.WithMetrics(observability.NewMetricsRecorder()))
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithTracing enables span creation around steps and node executions
// using the given span manager. Pass observability.NewSpanManager() for
// OTel-backed spans.
func WithTracing(sm observability.SpanManager) Option {
	return func(e *Engine) {
		if sm != nil {
			e.spans = sm
			e.tracing = true
		}
	}
}

// WithStepBudget caps node executions per Advance call.
// Default: 1000
//
// This prevents non-interactive cycles from spinning forever. If a
// step exceeds this limit the run is marked failed with a
// StepBudgetError.
func WithStepBudget(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.stepBudget = n
		}
	}
}

// WithRetryBudget sets the total attempts allowed for a node that
// fails transiently before the run is marked failed.
// Default: 3
func WithRetryBudget(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.retryBudget = n
		}
	}
}
