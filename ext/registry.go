package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/tenantq/job"
	"github.com/xraph/tenantq/tenant"
)

// entry pairs a hook implementation with the extension name captured at
// registration time.
type entry[H any] struct {
	name string
	hook H
}

// cache appends e to list when it implements hook H.
func cache[H any](list []entry[H], name string, e Extension) []entry[H] {
	if h, ok := e.(H); ok {
		list = append(list, entry[H]{name: name, hook: h})
	}
	return list
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	jobEnqueued    []entry[JobEnqueued]
	jobStarted     []entry[JobStarted]
	schemaSwitched []entry[SchemaSwitched]
	jobCompleted   []entry[JobCompleted]
	jobFailed      []entry[JobFailed]
	jobRetrying    []entry[JobRetrying]
	tenantCreated  []entry[TenantCreated]
	shutdown       []entry[Shutdown]
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and caches it under every hook it
// implements. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	r.jobEnqueued = cache(r.jobEnqueued, name, e)
	r.jobStarted = cache(r.jobStarted, name, e)
	r.schemaSwitched = cache(r.schemaSwitched, name, e)
	r.jobCompleted = cache(r.jobCompleted, name, e)
	r.jobFailed = cache(r.jobFailed, name, e)
	r.jobRetrying = cache(r.jobRetrying, name, e)
	r.tenantCreated = cache(r.tenantCreated, name, e)
	r.shutdown = cache(r.shutdown, name, e)
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// EmitJobEnqueued notifies all extensions that implement JobEnqueued.
func (r *Registry) EmitJobEnqueued(ctx context.Context, j *job.Job) {
	for _, e := range r.jobEnqueued {
		r.check("OnJobEnqueued", e.name, e.hook.OnJobEnqueued(ctx, j))
	}
}

// EmitJobStarted notifies all extensions that implement JobStarted.
func (r *Registry) EmitJobStarted(ctx context.Context, j *job.Job) {
	for _, e := range r.jobStarted {
		r.check("OnJobStarted", e.name, e.hook.OnJobStarted(ctx, j))
	}
}

// EmitSchemaSwitched notifies all extensions that implement
// SchemaSwitched. It satisfies middleware.SchemaNotifier.
func (r *Registry) EmitSchemaSwitched(ctx context.Context, j *job.Job, t *tenant.Tenant) {
	for _, e := range r.schemaSwitched {
		r.check("OnSchemaSwitched", e.name, e.hook.OnSchemaSwitched(ctx, j, t))
	}
}

// EmitJobCompleted notifies all extensions that implement JobCompleted.
func (r *Registry) EmitJobCompleted(ctx context.Context, j *job.Job, elapsed time.Duration) {
	for _, e := range r.jobCompleted {
		r.check("OnJobCompleted", e.name, e.hook.OnJobCompleted(ctx, j, elapsed))
	}
}

// EmitJobFailed notifies all extensions that implement JobFailed.
func (r *Registry) EmitJobFailed(ctx context.Context, j *job.Job, jobErr error) {
	for _, e := range r.jobFailed {
		r.check("OnJobFailed", e.name, e.hook.OnJobFailed(ctx, j, jobErr))
	}
}

// EmitJobRetrying notifies all extensions that implement JobRetrying.
func (r *Registry) EmitJobRetrying(ctx context.Context, j *job.Job, attempt int, nextRunAt time.Time) {
	for _, e := range r.jobRetrying {
		r.check("OnJobRetrying", e.name, e.hook.OnJobRetrying(ctx, j, attempt, nextRunAt))
	}
}

// EmitTenantCreated notifies all extensions that implement TenantCreated.
func (r *Registry) EmitTenantCreated(ctx context.Context, t *tenant.Tenant) {
	for _, e := range r.tenantCreated {
		r.check("OnTenantCreated", e.name, e.hook.OnTenantCreated(ctx, t))
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		r.check("OnShutdown", e.name, e.hook.OnShutdown(ctx))
	}
}

// check logs a warning when a lifecycle hook returns an error.
// Hook errors are never propagated; they must not block the pipeline.
func (r *Registry) check(hook, extName string, err error) {
	if err == nil {
		return
	}
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
