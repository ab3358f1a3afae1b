// Package tracing wraps the OpenTelemetry tracer used around the sandbox
// validator's seven phases, adapted from the teacher's hand-rolled
// ExecutionTrace (internal/infrastructure/monitoring/trace.go) onto a real
// OTel span per phase instead of an in-memory event slice, so a slow
// interaction-testing run is diagnosable without re-reading logs.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/jarvis-brain/core/layout/validate"

// Tracer is the handle every validator phase function takes to start its span.
type Tracer struct {
	tracer trace.Tracer
}

// New builds a Tracer backed by the global OTel tracer provider.
func New() *Tracer {
	return &Tracer{tracer: otel.Tracer(tracerName)}
}

// PhaseSpan starts a span for one validator phase, mirroring
// ExecutionTrace.AddEvent's (eventType, nodeID/nodeType, message, data)
// shape as span name + attributes. The caller must call the returned end
// func on every exit path, including error paths.
func (t *Tracer) PhaseSpan(ctx context.Context, phase string, attrs map[string]string) (context.Context, func(err error)) {
	spanCtx, span := t.tracer.Start(ctx, phase)
	for k, v := range attrs {
		span.SetAttributes(attribute.String(k, v))
	}
	return spanCtx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}
