package service

import (
	"context"

	"github.com/geocoder89/collegeevents/internal/apperr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/geocoder89/collegeevents/internal/service")

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan records err on the span. Domain errors are expected outcomes and
// only get an attribute; everything else marks the span failed.
func endSpan(span trace.Span, err error) {
	if err != nil {
		if kind, ok := apperr.KindOf(err); ok {
			span.SetAttributes(attribute.String("app.error_kind", string(kind)))
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}
