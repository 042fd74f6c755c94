package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/tenantq/ext"
	"github.com/xraph/tenantq/job"
	"github.com/xraph/tenantq/tenant"
)

// Compile-time interface checks.
var (
	_ ext.Extension      = (*Extension)(nil)
	_ ext.JobEnqueued    = (*Extension)(nil)
	_ ext.JobStarted     = (*Extension)(nil)
	_ ext.SchemaSwitched = (*Extension)(nil)
	_ ext.JobCompleted   = (*Extension)(nil)
	_ ext.JobFailed      = (*Extension)(nil)
	_ ext.JobRetrying    = (*Extension)(nil)
	_ ext.TenantCreated  = (*Extension)(nil)
)

// Recorder persists audit events.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one entry of the audit trail.
type AuditEvent struct {
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Schema is the tenant schema the event happened under. Empty for jobs
	// enqueued before schemas were recorded.
	Schema string `json:"schema,omitempty"`

	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity levels.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension writes lifecycle events to a Recorder.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through r.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit-hook" }

// ── Job lifecycle hooks ─────────────────────────────

// OnJobEnqueued implements ext.JobEnqueued.
func (e *Extension) OnJobEnqueued(ctx context.Context, j *job.Job) error {
	return e.recordJob(ctx, ActionJobEnqueued, SeverityInfo, OutcomeSuccess, j, nil)
}

// OnJobStarted implements ext.JobStarted.
func (e *Extension) OnJobStarted(ctx context.Context, j *job.Job) error {
	return e.recordJob(ctx, ActionJobStarted, SeverityInfo, OutcomeSuccess, j, nil,
		"worker_id", j.WorkerID.String(),
	)
}

// OnJobCompleted implements ext.JobCompleted.
func (e *Extension) OnJobCompleted(ctx context.Context, j *job.Job, elapsed time.Duration) error {
	return e.recordJob(ctx, ActionJobCompleted, SeverityInfo, OutcomeSuccess, j, nil,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnJobFailed implements ext.JobFailed.
func (e *Extension) OnJobFailed(ctx context.Context, j *job.Job, jobErr error) error {
	return e.recordJob(ctx, ActionJobFailed, SeverityCritical, OutcomeFailure, j, jobErr,
		"retry_count", j.RetryCount,
		"max_retries", j.MaxRetries,
	)
}

// OnJobRetrying implements ext.JobRetrying.
func (e *Extension) OnJobRetrying(ctx context.Context, j *job.Job, attempt int, nextRunAt time.Time) error {
	return e.recordJob(ctx, ActionJobRetrying, SeverityWarning, OutcomeFailure, j, nil,
		"attempt", attempt,
		"next_run_at", nextRunAt.Format(time.RFC3339),
	)
}

// ── Tenant hooks ────────────────────────────────────

// OnSchemaSwitched implements ext.SchemaSwitched.
func (e *Extension) OnSchemaSwitched(ctx context.Context, j *job.Job, t *tenant.Tenant) error {
	return e.record(ctx, &AuditEvent{
		Action:     ActionSchemaSwitched,
		Resource:   ResourceTenant,
		Category:   CategoryTenant,
		Schema:     t.SchemaName,
		ResourceID: t.ID.String(),
		Outcome:    OutcomeSuccess,
		Severity:   SeverityInfo,
	}, nil,
		"job_id", j.ID.String(),
		"job_name", j.Name,
	)
}

// OnTenantCreated implements ext.TenantCreated.
func (e *Extension) OnTenantCreated(ctx context.Context, t *tenant.Tenant) error {
	return e.record(ctx, &AuditEvent{
		Action:     ActionTenantCreated,
		Resource:   ResourceTenant,
		Category:   CategoryTenant,
		Schema:     t.SchemaName,
		ResourceID: t.ID.String(),
		Outcome:    OutcomeSuccess,
		Severity:   SeverityInfo,
	}, nil,
		"tenant_name", t.Name,
	)
}

// ── Internal helpers ────────────────────────────────

func (e *Extension) recordJob(
	ctx context.Context,
	action, severity, outcome string,
	j *job.Job,
	err error,
	kvPairs ...any,
) error {
	kvPairs = append(kvPairs, "job_name", j.Name, "queue", j.Queue)
	return e.record(ctx, &AuditEvent{
		Action:     action,
		Resource:   ResourceJob,
		Category:   CategoryJob,
		Schema:     job.Schema(j),
		ResourceID: j.ID.String(),
		Outcome:    outcome,
		Severity:   severity,
	}, err, kvPairs...)
}

// record fills in metadata and sends evt if its action is enabled. Recorder
// failures are logged and never fail the job.
func (e *Extension) record(ctx context.Context, evt *AuditEvent, err error, kvPairs ...any) error {
	if e.enabled != nil && !e.enabled[evt.Action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}
	if err != nil {
		evt.Reason = err.Error()
		meta["error"] = err.Error()
	}
	evt.Metadata = meta

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			slog.String("action", evt.Action),
			slog.String("resource_id", evt.ResourceID),
			slog.String("schema", evt.Schema),
			slog.String("error", recErr.Error()),
		)
	}
	return nil
}
