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

// MeterName is the instrumentation scope for nodeflow metrics.
const MeterName = "nodeflow"

// MetricsRecorder records nodeflow metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordNodeExecution records one node execution. failed is true when
	// the node produced an inline error value.
	RecordNodeExecution(ctx context.Context, nodeType string, duration time.Duration, failed bool)

	// RecordRun records a finished run.
	RecordRun(ctx context.Context, outcome string, duration time.Duration)

	// RecordWave records the size of a dispatched wave.
	RecordWave(ctx context.Context, size int)
}

// Run outcomes reported by RecordRun.
const (
	OutcomeCompleted = "completed"
	OutcomeDeadlock  = "deadlock"
	OutcomeCancelled = "cancelled"
)

type otelMetrics struct {
	nodeExecutions metric.Int64Counter
	nodeLatency    metric.Float64Histogram
	nodeErrors     metric.Int64Counter
	runs           metric.Int64Counter
	runLatency     metric.Float64Histogram
	waveSize       metric.Int64Histogram
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
	return newOtelMetricsFrom(otel.GetMeterProvider())
}

func newOtelMetricsFrom(mp metric.MeterProvider) (*otelMetrics, error) {
	meter := mp.Meter(MeterName)

	nodeExecutions, err := meter.Int64Counter("nodeflow.node.executions",
		metric.WithDescription("Number of node executions"),
	)
	if err != nil {
		return nil, err
	}

	nodeLatency, err := meter.Float64Histogram("nodeflow.node.latency_ms",
		metric.WithDescription("Node execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	nodeErrors, err := meter.Int64Counter("nodeflow.node.errors",
		metric.WithDescription("Number of node executions that produced an error value"),
	)
	if err != nil {
		return nil, err
	}

	runs, err := meter.Int64Counter("nodeflow.run.runs",
		metric.WithDescription("Number of flow runs"),
	)
	if err != nil {
		return nil, err
	}

	runLatency, err := meter.Float64Histogram("nodeflow.run.latency_ms",
		metric.WithDescription("Flow run latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	waveSize, err := meter.Int64Histogram("nodeflow.wave.size",
		metric.WithDescription("Number of nodes dispatched per wave"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		nodeExecutions: nodeExecutions,
		nodeLatency:    nodeLatency,
		nodeErrors:     nodeErrors,
		runs:           runs,
		runLatency:     runLatency,
		waveSize:       waveSize,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder backed by the global OTel
// meter provider, or a no-op recorder if the instruments cannot be created.
// Set the provider before the first call:
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

// NewMetricsRecorderFromProvider returns a MetricsRecorder bound to mp
// instead of the global provider.
func NewMetricsRecorderFromProvider(mp metric.MeterProvider) (MetricsRecorder, error) {
	m, err := newOtelMetricsFrom(mp)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *otelMetrics) RecordNodeExecution(ctx context.Context, nodeType string, duration time.Duration, failed bool) {
	attrs := metric.WithAttributes(attribute.String("node_type", nodeType))

	m.nodeExecutions.Add(ctx, 1, attrs)
	m.nodeLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if failed {
		m.nodeErrors.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordRun(ctx context.Context, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.runs.Add(ctx, 1, attrs)
	m.runLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

func (m *otelMetrics) RecordWave(ctx context.Context, size int) {
	m.waveSize.Record(ctx, int64(size))
}
