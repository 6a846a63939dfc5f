package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope for nodeflow spans.
const TracerName = "nodeflow"

var tracer = otel.Tracer(TracerName)

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartRunSpan starts the root span of a flow run.
	StartRunSpan(ctx context.Context, runID string, nodeCount int) (context.Context, trace.Span)

	// StartWaveSpan starts a child span for one ready wave.
	StartWaveSpan(ctx context.Context, wave, size int) (context.Context, trace.Span)

	// StartNodeSpan starts a child span for one node execution.
	StartNodeSpan(ctx context.Context, nodeID, nodeType string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, recording err when non-nil.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the span in ctx.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct {
	tracer trace.Tracer
}

// NewSpanManager returns a SpanManager using the global OTel tracer provider.
func NewSpanManager() SpanManager {
	return otelSpanManager{}
}

// NewSpanManagerFromProvider returns a SpanManager bound to tp instead of
// the global provider.
func NewSpanManagerFromProvider(tp trace.TracerProvider) SpanManager {
	return otelSpanManager{tracer: tp.Tracer(TracerName)}
}

func (m otelSpanManager) t() trace.Tracer {
	if m.tracer != nil {
		return m.tracer
	}
	return tracer
}

func (m otelSpanManager) StartRunSpan(ctx context.Context, runID string, nodeCount int) (context.Context, trace.Span) {
	return startRunSpan(ctx, m.t(), runID, nodeCount)
}

func (m otelSpanManager) StartWaveSpan(ctx context.Context, wave, size int) (context.Context, trace.Span) {
	return startWaveSpan(ctx, m.t(), wave, size)
}

func (m otelSpanManager) StartNodeSpan(ctx context.Context, nodeID, nodeType string) (context.Context, trace.Span) {
	return startNodeSpan(ctx, m.t(), nodeID, nodeType)
}

func (otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

func (otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// StartRunSpan starts the root span of a flow run on the global tracer.
func StartRunSpan(ctx context.Context, runID string, nodeCount int) (context.Context, trace.Span) {
	return startRunSpan(ctx, tracer, runID, nodeCount)
}

// StartWaveSpan starts a span for one ready wave on the global tracer.
func StartWaveSpan(ctx context.Context, wave, size int) (context.Context, trace.Span) {
	return startWaveSpan(ctx, tracer, wave, size)
}

// StartNodeSpan starts a span for one node execution on the global tracer.
func StartNodeSpan(ctx context.Context, nodeID, nodeType string) (context.Context, trace.Span) {
	return startNodeSpan(ctx, tracer, nodeID, nodeType)
}

func startRunSpan(ctx context.Context, t trace.Tracer, runID string, nodeCount int) (context.Context, trace.Span) {
	return t.Start(ctx, "nodeflow.run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.nodes", nodeCount),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func startWaveSpan(ctx context.Context, t trace.Tracer, wave, size int) (context.Context, trace.Span) {
	return t.Start(ctx, "nodeflow.wave",
		trace.WithAttributes(
			attribute.Int("wave.index", wave),
			attribute.Int("wave.size", size),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func startNodeSpan(ctx context.Context, t trace.Tracer, nodeID, nodeType string) (context.Context, trace.Span) {
	return t.Start(ctx, "nodeflow.node."+nodeType,
		trace.WithAttributes(
			attribute.String("node.id", nodeID),
			attribute.String("node.type", nodeType),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, recording err when non-nil.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the span in ctx if it is recording.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
