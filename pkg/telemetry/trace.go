package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name used for navigation spans.
const TracerName = "github.com/go-drift/navstate"

// Attribute keys shared by navigation spans.
const (
	AttrPersistenceKey = attribute.Key("navstate.persistence_key")
	AttrCodec          = attribute.Key("navstate.codec")
	AttrStartupSource  = attribute.Key("navstate.startup_source")
	AttrURL            = attribute.Key("navstate.url")
)

// Tracer returns the navigation tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// StartSpan starts a navigation span using the global provider.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
