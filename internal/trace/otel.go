package trace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// SpanConfig configures the OpenTelemetry span emitter. Unlike the
// teacher's tracer, which ships an OTLP gRPC exporter, this runtime has no
// collector dependency in its stack yet: a SpanExporter can be supplied by
// the embedder (for OTLP, stdout, or any sdktrace.SpanExporter), and when
// none is given the tracer still builds real spans against the SDK's
// provider, just with nothing batched out — useful for local span
// inspection in tests and for embedders that only want the trace.Store
// sink. This mirrors the teacher's "no endpoint ⇒ no-op tracer" posture
// without hard-coding a particular wire protocol.
type SpanConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	SamplingRate   float64 // 0 defaults to 1.0 (always sample)
	Exporter       sdktrace.SpanExporter
	Attributes     map[string]string
}

// SpanEmitter mirrors the teacher's Tracer: Start/RecordError/AddEvent
// around an otel trace.Tracer, plus RecordEntry which turns a trace.Entry
// into a completed span in one call — the OpenTelemetry-facing twin of
// Store.Record, fed by the same call site and never a second source of
// truth for what happened.
type SpanEmitter struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewSpanEmitter builds a SpanEmitter and a shutdown func that must be
// called on exit. If cfg.Exporter is nil, spans are still created and
// sampled but never exported anywhere (an SDK provider with a no-op batch
// processor), matching the library's behaviour with zero registered
// processors.
func NewSpanEmitter(cfg SpanConfig) (*SpanEmitter, func(context.Context) error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "browseragent"
	}
	if cfg.SamplingRate == 0 {
		cfg.SamplingRate = 1.0
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SamplingRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case cfg.SamplingRate <= 0.0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SamplingRate)
	}

	attrs := []attribute.KeyValue{
		attribute.String("service.name", cfg.ServiceName),
	}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, attribute.String("service.version", cfg.ServiceVersion))
	}
	if cfg.Environment != "" {
		attrs = append(attrs, attribute.String("deployment.environment", cfg.Environment))
	}
	for k, v := range cfg.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(attrs...))
	if err != nil {
		res = resource.Default()
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	}
	if cfg.Exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(cfg.Exporter))
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)

	emitter := &SpanEmitter{
		provider: provider,
		tracer:   provider.Tracer(cfg.ServiceName),
	}
	return emitter, provider.Shutdown
}

// Start creates a new span and returns the context carrying it.
func (e *SpanEmitter) Start(ctx context.Context, name string, kind trace.SpanKind, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{trace.WithSpanKind(kind)}
	if len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}
	return e.tracer.Start(ctx, name, opts...)
}

// RecordError records err on span and marks it failed. A nil err is a
// no-op, so callers can pass the result of a fallible call unconditionally.
func (e *SpanEmitter) RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddEvent attaches a named event with string attributes to span.
func (e *SpanEmitter) AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordEntry turns a trace.Entry into a completed span: starts it as a
// child of ctx, attaches the entry's fields as attributes, records the
// error (if any), and ends it immediately — entries describe actions that
// have already finished, so there is no separate End call for callers to
// forget.
func (e *SpanEmitter) RecordEntry(ctx context.Context, sessionID string, entry Entry) {
	_, span := e.Start(ctx, "action."+entry.Action, trace.SpanKindInternal,
		attribute.String("session_id", sessionID),
		attribute.String("selector", entry.Selector),
		attribute.String("selector_resolved", entry.SelectorResolved),
		attribute.Int64("duration_ms", entry.DurationMs),
		attribute.Int("retries", entry.Retries),
		attribute.Int("events_dispatched", entry.EventsDispatched),
		attribute.Int("waits_performed", entry.WaitsPerformed),
		attribute.Int("assertions_checked", entry.AssertionsChecked),
		attribute.Bool("ok", entry.OK),
	)
	defer span.End()

	if !entry.OK {
		span.SetStatus(codes.Error, entry.Error)
	}
}
