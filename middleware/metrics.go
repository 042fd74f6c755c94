package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/tenantq/job"
)

// meterName is the instrumentation scope name for tenantq metrics.
const meterName = "github.com/xraph/tenantq"

// Metrics records per-job execution metrics on the global MeterProvider.
// With no provider installed the instruments are noops.
//
// Instruments:
//   - tenantq.job.duration (Float64Histogram, seconds)
//   - tenantq.job.executions (Int64Counter)
//
// Both carry job_name, queue, schema, and status ("ok" or "error"), so
// execution time can be broken out per tenant.
func Metrics() Middleware {
	return MetricsWithMeter(otel.Meter(meterName))
}

// MetricsWithMeter is Metrics on an explicit meter.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// The OTel API hands back noop instruments alongside any error.
	duration, _ := meter.Float64Histogram("tenantq.job.duration",
		metric.WithDescription("Duration of job execution in seconds"),
		metric.WithUnit("s"),
	)
	executions, _ := meter.Int64Counter("tenantq.job.executions",
		metric.WithDescription("Total number of job executions"),
		metric.WithUnit("{execution}"),
	)

	return func(ctx context.Context, j *job.Job, next Handler) error {
		// Read before next: the schema middleware hands the handler a copy
		// without the reserved key, but j itself still carries it.
		tenantSchema := job.Schema(j)

		start := time.Now()
		err := next(ctx, j)

		opt := metric.WithAttributeSet(attribute.NewSet(
			attribute.String("job_name", j.Name),
			attribute.String("queue", j.Queue),
			attribute.String("schema", tenantSchema),
			attribute.String("status", statusOf(err)),
		))
		duration.Record(ctx, time.Since(start).Seconds(), opt)
		executions.Add(ctx, 1, opt)
		return err
	}
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
