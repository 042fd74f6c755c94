package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/tenantq/ext"
	"github.com/xraph/tenantq/job"
	"github.com/xraph/tenantq/tenant"
)

// Compile-time interface checks.
var (
	_ ext.Extension      = (*MetricsExtension)(nil)
	_ ext.JobEnqueued    = (*MetricsExtension)(nil)
	_ ext.SchemaSwitched = (*MetricsExtension)(nil)
	_ ext.JobCompleted   = (*MetricsExtension)(nil)
	_ ext.JobFailed      = (*MetricsExtension)(nil)
	_ ext.JobRetrying    = (*MetricsExtension)(nil)
	_ ext.TenantCreated  = (*MetricsExtension)(nil)
)

const meterName = "github.com/xraph/tenantq/observability"

// MetricsExtension records lifecycle counters on an OTel meter. Every job
// counter carries the job's schema so per-tenant traffic can be broken out.
type MetricsExtension struct {
	jobEnqueued    metric.Int64Counter
	jobCompleted   metric.Int64Counter
	jobFailed      metric.Int64Counter
	jobRetried     metric.Int64Counter
	schemaSwitched metric.Int64Counter
	tenantCreated  metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension on the global MeterProvider.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension on the given meter.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	return &MetricsExtension{
		jobEnqueued:    counter(meter, "tenantq.job.enqueued", "Jobs enqueued"),
		jobCompleted:   counter(meter, "tenantq.job.completed", "Jobs completed"),
		jobFailed:      counter(meter, "tenantq.job.failed", "Jobs failed permanently"),
		jobRetried:     counter(meter, "tenantq.job.retried", "Job retries scheduled"),
		schemaSwitched: counter(meter, "tenantq.schema.switched", "Tenant switches before job execution"),
		tenantCreated:  counter(meter, "tenantq.tenant.created", "Tenants created"),
	}
}

// counter never returns nil: on error the OTel API hands back a noop
// instrument.
func counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, _ := meter.Int64Counter(name, metric.WithDescription(desc))
	return c
}

func jobAttrs(j *job.Job) metric.AddOption {
	return metric.WithAttributes(
		attribute.String("job_name", j.Name),
		attribute.String("queue", j.Queue),
		attribute.String("schema", job.Schema(j)),
	)
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ── Job lifecycle hooks ─────────────────────────────

// OnJobEnqueued implements ext.JobEnqueued.
func (m *MetricsExtension) OnJobEnqueued(ctx context.Context, j *job.Job) error {
	m.jobEnqueued.Add(ctx, 1, jobAttrs(j))
	return nil
}

// OnJobCompleted implements ext.JobCompleted.
func (m *MetricsExtension) OnJobCompleted(ctx context.Context, j *job.Job, _ time.Duration) error {
	m.jobCompleted.Add(ctx, 1, jobAttrs(j))
	return nil
}

// OnJobFailed implements ext.JobFailed.
func (m *MetricsExtension) OnJobFailed(ctx context.Context, j *job.Job, _ error) error {
	m.jobFailed.Add(ctx, 1, jobAttrs(j))
	return nil
}

// OnJobRetrying implements ext.JobRetrying.
func (m *MetricsExtension) OnJobRetrying(ctx context.Context, j *job.Job, _ int, _ time.Time) error {
	m.jobRetried.Add(ctx, 1, jobAttrs(j))
	return nil
}

// ── Tenant hooks ────────────────────────────────────

// OnSchemaSwitched implements ext.SchemaSwitched.
func (m *MetricsExtension) OnSchemaSwitched(ctx context.Context, _ *job.Job, t *tenant.Tenant) error {
	m.schemaSwitched.Add(ctx, 1, metric.WithAttributes(attribute.String("schema", t.SchemaName)))
	return nil
}

// OnTenantCreated implements ext.TenantCreated.
func (m *MetricsExtension) OnTenantCreated(ctx context.Context, t *tenant.Tenant) error {
	m.tenantCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("schema", t.SchemaName)))
	return nil
}
