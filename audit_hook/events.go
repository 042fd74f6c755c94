package audithook

// Audit event actions. Each constant corresponds to one ext lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionJobEnqueued    = "job.enqueued"
	ActionJobStarted     = "job.started"
	ActionJobCompleted   = "job.completed"
	ActionJobFailed      = "job.failed"
	ActionJobRetrying    = "job.retrying"
	ActionSchemaSwitched = "schema.switched"
	ActionTenantCreated  = "tenant.created"
)

// Audit event categories group related actions.
const (
	CategoryJob    = "tenantq.job"
	CategoryTenant = "tenantq.tenant"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceJob    = "job"
	ResourceTenant = "tenant"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionJobEnqueued,
		ActionJobStarted,
		ActionJobCompleted,
		ActionJobFailed,
		ActionJobRetrying,
		ActionSchemaSwitched,
		ActionTenantCreated,
	}
}
