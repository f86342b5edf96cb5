package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName is the name used for OTEL instrumentation.
const InstrumentationName = "github.com/roach88/rotbake"

// Tracer returns the rotbake tracer from tp, or from the global provider
// when tp is nil.
func Tracer(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(InstrumentationName)
}

// RebakeAttributes are the span attributes shared by rebake spans.
func RebakeAttributes(object string, rotationDeg float64, frames int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("rotbake.object", object),
		attribute.Float64("rotbake.rotation_deg", rotationDeg),
		attribute.Int("rotbake.frames", frames),
	}
}

// EndSpan records err (if any) on span and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
