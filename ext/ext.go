package ext

import (
	"context"
	"time"

	"github.com/xraph/tenantq/job"
	"github.com/xraph/tenantq/tenant"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// JobEnqueued is called after a job is persisted. The job's payload
// carries the schema it was enqueued under.
type JobEnqueued interface {
	OnJobEnqueued(ctx context.Context, j *job.Job) error
}

// JobStarted is called when a worker picks up a job, before the tenant
// schema is switched.
type JobStarted interface {
	OnJobStarted(ctx context.Context, j *job.Job) error
}

// SchemaSwitched is called once the job's tenant is active and before the
// handler runs. ctx carries the tenant's schema.
type SchemaSwitched interface {
	OnSchemaSwitched(ctx context.Context, j *job.Job, t *tenant.Tenant) error
}

// JobCompleted is called after a job finishes successfully.
type JobCompleted interface {
	OnJobCompleted(ctx context.Context, j *job.Job, elapsed time.Duration) error
}

// JobFailed is called when a job fails terminally (no more retries).
type JobFailed interface {
	OnJobFailed(ctx context.Context, j *job.Job, err error) error
}

// JobRetrying is called when a job fails but is scheduled for retry.
type JobRetrying interface {
	OnJobRetrying(ctx context.Context, j *job.Job, attempt int, nextRunAt time.Time) error
}

// TenantCreated is called after a tenant and its schema are created.
type TenantCreated interface {
	OnTenantCreated(ctx context.Context, t *tenant.Tenant) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
