package trace

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/stretchr/testify/require"
)

func TestNewSpanEmitter_WithoutExporterStillCreatesSpans(t *testing.T) {
	emitter, shutdown := NewSpanEmitter(SpanConfig{ServiceName: "test"})
	defer func() { _ = shutdown(context.Background()) }()

	_, span := emitter.Start(context.Background(), "op", trace.SpanKindInternal)
	require.True(t, span.SpanContext().IsValid())
	span.End()
}

func TestRecordError_NilIsNoop(t *testing.T) {
	emitter, shutdown := NewSpanEmitter(SpanConfig{ServiceName: "test"})
	defer func() { _ = shutdown(context.Background()) }()

	_, span := emitter.Start(context.Background(), "op", trace.SpanKindInternal)
	emitter.RecordError(span, nil)
	span.End()
}

func TestRecordEntry_ExportsSpanWithAttributes(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	emitter, shutdown := NewSpanEmitter(SpanConfig{ServiceName: "test", Exporter: exporter})
	defer func() { _ = shutdown(context.Background()) }()

	emitter.RecordEntry(context.Background(), "sess-1", Entry{
		Action:     "click",
		Selector:   "#submit",
		Timestamp:  time.Now(),
		DurationMs: 42,
		OK:         false,
		Error:      "target not found",
		Retries:    2,
	})

	require.NoError(t, shutdown(context.Background()))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, "action.click", spans[0].Name)
	require.Equal(t, trace.Status{Code: codes.Error, Description: "target not found"}, spans[0].Status)
}

func TestRecordEntry_OKEntryHasNoErrorStatus(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	emitter, shutdown := NewSpanEmitter(SpanConfig{ServiceName: "test", Exporter: exporter})
	defer func() { _ = shutdown(context.Background()) }()

	emitter.RecordEntry(context.Background(), "sess-1", Entry{
		Action:     "navigate",
		Timestamp:  time.Now(),
		DurationMs: 10,
		OK:         true,
	})

	require.NoError(t, shutdown(context.Background()))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.NotEqual(t, errors.New("target not found").Error(), spans[0].Status.Description)
}
