// Package tracing builds the OpenTelemetry TracerProvider used by the promptreg command.
// Finished spans are written to the command's zerolog logger, so tracing needs no collector.
package tracing

import (
	"context"

	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// NewProvider returns a TracerProvider that logs every finished span to logger at info level.
// Callers must Shutdown it.
func NewProvider(logger zerolog.Logger) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(sdktrace.WithSyncer(&logExporter{logger: logger}))
}

type logExporter struct {
	logger zerolog.Logger
}

func (e *logExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		sc := span.SpanContext()
		ev := e.logger.Info().
			Str("span", span.Name()).
			Str("trace_id", sc.TraceID().String()).
			Str("span_id", sc.SpanID().String()).
			Dur("elapsed", span.EndTime().Sub(span.StartTime())).
			Str("status", span.Status().Code.String())
		if desc := span.Status().Description; desc != "" {
			ev = ev.Str("status_description", desc)
		}
		for _, kv := range span.Attributes() {
			ev = ev.Str(string(kv.Key), kv.Value.Emit())
		}
		ev.Msg("span finished")
	}
	return nil
}

func (e *logExporter) Shutdown(context.Context) error { return nil }
