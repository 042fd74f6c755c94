// Package ext defines the extension system for tenantq.
//
// Extensions are notified of lifecycle events and can react to them:
// recording metrics, writing audit logs, warming per-tenant caches.
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
//
// # Implementing an Extension
//
//	type AuditExtension struct{}
//
//	func (e *AuditExtension) Name() string { return "audit" }
//
//	func (e *AuditExtension) OnSchemaSwitched(ctx context.Context, j *job.Job, t *tenant.Tenant) error {
//	    slog.InfoContext(ctx, "running job for tenant", "job", j.Name, "schema", t.SchemaName)
//	    return nil
//	}
//
// # Hooks
//
//   - [JobEnqueued]: job was accepted into the queue
//   - [JobStarted]: worker picked up the job
//   - [SchemaSwitched]: the job's tenant is active; the handler runs next
//   - [JobCompleted]: job finished successfully
//   - [JobFailed]: job failed with no retries remaining
//   - [JobRetrying]: job failed but will be retried
//   - [TenantCreated]: a tenant and its schema were created
//   - [Shutdown]: the dispatcher is shutting down gracefully
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface.
package ext
