package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/xraph/tenantq/id"
	"github.com/xraph/tenantq/job"
	"github.com/xraph/tenantq/observability"
	"github.com/xraph/tenantq/tenant"
)

func newTestExtension() (*observability.MetricsExtension, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return observability.NewMetricsExtensionWithMeter(mp.Meter("test")), reader
}

func newTestJob() *job.Job {
	return &job.Job{
		ID:      id.NewJobID(),
		Name:    "send-email",
		Queue:   "default",
		Payload: []byte(`{"to":"a@b.c","_schema_name":"tenant_a"}`),
	}
}

// sumFor returns the counter total for name, restricted to data points
// whose schema attribute equals schemaName.
func sumFor(t *testing.T, reader *sdkmetric.ManualReader, name, schemaName string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s: expected Sum[int64], got %T", name, m.Data)
			}
			for _, dp := range sum.DataPoints {
				if v, ok := dp.Attributes.Value(attribute.Key("schema")); ok && v.AsString() == schemaName {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestMetricsExtension_Name(t *testing.T) {
	e, _ := newTestExtension()
	if e.Name() != "observability-metrics" {
		t.Errorf("expected name %q, got %q", "observability-metrics", e.Name())
	}
}

func TestMetricsExtension_JobHooks(t *testing.T) {
	e, reader := newTestExtension()
	ctx := context.Background()
	j := newTestJob()

	if err := e.OnJobEnqueued(ctx, j); err != nil {
		t.Fatalf("OnJobEnqueued: %v", err)
	}
	if err := e.OnJobEnqueued(ctx, j); err != nil {
		t.Fatalf("OnJobEnqueued: %v", err)
	}
	if err := e.OnJobRetrying(ctx, j, 1, time.Now()); err != nil {
		t.Fatalf("OnJobRetrying: %v", err)
	}
	if err := e.OnJobFailed(ctx, j, errors.New("boom")); err != nil {
		t.Fatalf("OnJobFailed: %v", err)
	}
	if err := e.OnJobCompleted(ctx, j, time.Second); err != nil {
		t.Fatalf("OnJobCompleted: %v", err)
	}

	tests := []struct {
		name string
		want int64
	}{
		{"tenantq.job.enqueued", 2},
		{"tenantq.job.retried", 1},
		{"tenantq.job.failed", 1},
		{"tenantq.job.completed", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sumFor(t, reader, tt.name, "tenant_a"); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestMetricsExtension_TenantHooks(t *testing.T) {
	e, reader := newTestExtension()
	ctx := context.Background()

	tn, err := tenant.New("tenant_b", "Tenant B")
	if err != nil {
		t.Fatalf("tenant.New: %v", err)
	}
	if err := e.OnTenantCreated(ctx, tn); err != nil {
		t.Fatalf("OnTenantCreated: %v", err)
	}
	if err := e.OnSchemaSwitched(ctx, newTestJob(), tn); err != nil {
		t.Fatalf("OnSchemaSwitched: %v", err)
	}
	if err := e.OnSchemaSwitched(ctx, newTestJob(), tn); err != nil {
		t.Fatalf("OnSchemaSwitched: %v", err)
	}

	if got := sumFor(t, reader, "tenantq.tenant.created", "tenant_b"); got != 1 {
		t.Errorf("tenant.created: expected 1, got %d", got)
	}
	if got := sumFor(t, reader, "tenantq.schema.switched", "tenant_b"); got != 2 {
		t.Errorf("schema.switched: expected 2, got %d", got)
	}
}
