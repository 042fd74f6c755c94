package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/tenantq/job"
)

// tracerName is the instrumentation scope name for tenantq tracing.
const tracerName = "github.com/xraph/tenantq"

// Tracing returns middleware that wraps job execution in an OpenTelemetry span.
// If no TracerProvider is configured globally, the default noop tracer is used
// and this middleware becomes a pass-through with zero overhead.
//
// Span attributes include: tenantq.job.id, tenantq.job.name, tenantq.queue,
// tenantq.retry_count, tenantq.schema.
// On error, the span status is set to codes.Error with the error message.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
// This variant allows injecting a specific TracerProvider for testing or
// when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		ctx, span := tracer.Start(ctx, "tenantq.job.execute",
			trace.WithAttributes(
				attribute.String("tenantq.job.id", j.ID.String()),
				attribute.String("tenantq.job.name", j.Name),
				attribute.String("tenantq.queue", j.Queue),
				attribute.Int("tenantq.retry_count", j.RetryCount),
				attribute.String("tenantq.schema", job.Schema(j)),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next(ctx, j)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
