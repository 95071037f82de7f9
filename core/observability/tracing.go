package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName   = "github.com/zlpkhr/hasty-server"
	dispatchSpan = "hasty.dispatch"
)

// Tracer wraps request dispatch in OpenTelemetry spans. A nil *Tracer
// starts no spans.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer from provider, or from the global provider
// when provider is nil. Without an installed SDK the global provider is a
// no-op.
func NewTracer(provider trace.TracerProvider) *Tracer {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &Tracer{tracer: provider.Tracer(tracerName)}
}

// Start opens the dispatch span for a request
func (t *Tracer) Start(ctx context.Context, method, path string) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.tracer.Start(ctx, dispatchSpan,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.target", path),
		),
	)
}

// Finish records the outcome on span and ends it. route is empty when no
// route matched.
func Finish(span trace.Span, route string, status int, err error) {
	if route != "" {
		span.SetAttributes(attribute.String("http.route", route))
	}
	span.SetAttributes(attribute.Int("http.status_code", status))

	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case status >= 500:
		span.SetStatus(codes.Error, "server error")
	default:
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
