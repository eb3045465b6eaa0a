package otelpromptreg

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/skosovsky/promptreg"
	"github.com/skosovsky/promptreg/figma"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (promptreg.Source, *promptreg.Registry, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	r := promptreg.New()
	require.NoError(t, figma.Register(r))
	return Wrap(r, WithTracerProvider(tp)), r, exporter
}

func attrMap(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, kv := range attrs {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestWrap_InvokeSpan(t *testing.T) {
	t.Parallel()
	src, r, exporter := setup(t)

	got, err := src.Invoke(context.Background(), figma.DesignStrategy, nil)
	require.NoError(t, err)
	want, err := r.Invoke(context.Background(), figma.DesignStrategy, nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, SpanName, spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	attrs := attrMap(spans[0].Attributes)
	assert.Equal(t, figma.DesignStrategy, attrs[AttrPromptID].AsString())
	assert.Equal(t, int64(1), attrs[AttrMessageCount].AsInt64())
	assert.Equal(t, int64(0), attrs[AttrArgCount].AsInt64())
}

func TestWrap_InvokeError(t *testing.T) {
	t.Parallel()
	src, _, exporter := setup(t)

	_, err := src.Invoke(context.Background(), "missing", nil)
	require.ErrorIs(t, err, promptreg.ErrNotFound)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "exception", spans[0].Events[0].Name)
	_, hasCount := attrMap(spans[0].Attributes)[AttrMessageCount]
	assert.False(t, hasCount)
}

func TestWrap_ListNotTraced(t *testing.T) {
	t.Parallel()
	src, r, exporter := setup(t)
	assert.Equal(t, r.List(), src.List())
	assert.Empty(t, exporter.GetSpans())
}

func TestWrap_DefaultProvider(t *testing.T) {
	t.Parallel()
	r := promptreg.New()
	require.NoError(t, figma.Register(r))
	src := Wrap(r, WithTracerProvider(nil))
	_, err := src.Invoke(context.Background(), figma.ReadDesignStrategy, nil)
	require.NoError(t, err)
}
