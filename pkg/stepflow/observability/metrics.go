package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records engine metrics.
// Use NewMetricsRecorder() for OTel-backed metrics or NoopMetrics{} when
// metrics are disabled.
type MetricsRecorder interface {
	// RecordNodeExecution records one node execution.
	RecordNodeExecution(ctx context.Context, nodeID, nodeType string, duration time.Duration, err error)

	// RecordStep records one advance call and its resulting status.
	RecordStep(ctx context.Context, status string, duration time.Duration)

	// RecordLLMCall records one provider invocation.
	RecordLLMCall(ctx context.Context, duration time.Duration, err error)

	// RecordPersistedSize records the serialized run-state size.
	RecordPersistedSize(ctx context.Context, sizeBytes int64)
}

type otelMetrics struct {
	nodeExecutions metric.Int64Counter
	nodeLatency    metric.Float64Histogram
	nodeErrors     metric.Int64Counter
	steps          metric.Int64Counter
	stepLatency    metric.Float64Histogram
	llmCalls       metric.Int64Counter
	llmLatency     metric.Float64Histogram
	persistedSize  metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("stepflow")

	nodeExecutions, err := meter.Int64Counter("stepflow.node.executions",
		metric.WithDescription("Number of node executions"),
	)
	if err != nil {
		return nil, err
	}

	nodeLatency, err := meter.Float64Histogram("stepflow.node.latency_ms",
		metric.WithDescription("Node execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	nodeErrors, err := meter.Int64Counter("stepflow.node.errors",
		metric.WithDescription("Number of node execution errors"),
	)
	if err != nil {
		return nil, err
	}

	steps, err := meter.Int64Counter("stepflow.steps",
		metric.WithDescription("Number of advance calls"),
	)
	if err != nil {
		return nil, err
	}

	stepLatency, err := meter.Float64Histogram("stepflow.step.latency_ms",
		metric.WithDescription("Advance call latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	llmCalls, err := meter.Int64Counter("stepflow.llm.calls",
		metric.WithDescription("Number of LLM provider calls"),
	)
	if err != nil {
		return nil, err
	}

	llmLatency, err := meter.Float64Histogram("stepflow.llm.latency_ms",
		metric.WithDescription("LLM provider call latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	persistedSize, err := meter.Int64Histogram("stepflow.run.persisted_bytes",
		metric.WithDescription("Serialized run state size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		nodeExecutions: nodeExecutions,
		nodeLatency:    nodeLatency,
		nodeErrors:     nodeErrors,
		steps:          steps,
		stepLatency:    stepLatency,
		llmCalls:       llmCalls,
		llmLatency:     llmLatency,
		persistedSize:  persistedSize,
	}, nil
}

// NewMetricsRecorder returns an OTel-backed MetricsRecorder using the
// global meter provider. Falls back to a no-op recorder if initialization
// fails.
//
// Configure the provider first:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordNodeExecution records one node execution.
func (m *otelMetrics) RecordNodeExecution(ctx context.Context, nodeID, nodeType string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("node_id", nodeID),
		attribute.String("node_type", nodeType),
	}

	m.nodeExecutions.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.nodeLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.nodeErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordStep records one advance call.
func (m *otelMetrics) RecordStep(ctx context.Context, status string, duration time.Duration) {
	attrs := []attribute.KeyValue{attribute.String("status", status)}
	m.steps.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.stepLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordLLMCall records one provider invocation.
func (m *otelMetrics) RecordLLMCall(ctx context.Context, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{attribute.Bool("success", err == nil)}
	m.llmCalls.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.llmLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordPersistedSize records the serialized run-state size.
func (m *otelMetrics) RecordPersistedSize(ctx context.Context, sizeBytes int64) {
	m.persistedSize.Record(ctx, sizeBytes)
}
