// Package otelpromptreg wraps a promptreg.Source with OpenTelemetry tracing.
// Every Invoke runs inside a span named "promptreg.Invoke"; List is not traced.
package otelpromptreg

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/skosovsky/promptreg"
)

const instrumentationName = "github.com/skosovsky/promptreg/ext/otelpromptreg"

// SpanName is the name of the span started by Invoke.
const SpanName = "promptreg.Invoke"

// Attribute keys set on the Invoke span.
const (
	AttrPromptID     = attribute.Key("prompt.id")
	AttrMessageCount = attribute.Key("prompt.message_count")
	AttrArgCount     = attribute.Key("prompt.arg_count")
)

// Option configures the wrapper.
type Option func(*source)

// WithTracerProvider sets the provider. Default is otel.GetTracerProvider(). nil is ignored.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *source) {
		if tp != nil {
			s.tp = tp
		}
	}
}

type source struct {
	next   promptreg.Source
	tp     trace.TracerProvider
	tracer trace.Tracer
}

// Wrap returns a Source that traces Invoke on next. Results and errors pass through unchanged.
func Wrap(next promptreg.Source, opts ...Option) promptreg.Source {
	s := &source{next: next, tp: otel.GetTracerProvider()}
	for _, opt := range opts {
		opt(s)
	}
	s.tracer = s.tp.Tracer(instrumentationName)
	return s
}

func (s *source) List() []promptreg.Info {
	return s.next.List()
}

func (s *source) Invoke(ctx context.Context, id string, args promptreg.Args) (*promptreg.Payload, error) {
	ctx, span := s.tracer.Start(ctx, SpanName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(AttrPromptID.String(id), AttrArgCount.Int(len(args))),
	)
	defer span.End()

	p, err := s.next.Invoke(ctx, id, args)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(AttrMessageCount.Int(len(p.Messages)))
	span.SetStatus(codes.Ok, "")
	return p, nil
}
