package audithook_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xraph/tenantq"
	ah "github.com/xraph/tenantq/audit_hook"
	"github.com/xraph/tenantq/engine"
	"github.com/xraph/tenantq/id"
	"github.com/xraph/tenantq/job"
	"github.com/xraph/tenantq/schema"
	"github.com/xraph/tenantq/store/memory"
	"github.com/xraph/tenantq/tenant"
)

// ── Mock recorder ────────────────────────────────────

type mockRecorder struct {
	mu     sync.Mutex
	events []*ah.AuditEvent
	err    error
}

func (m *mockRecorder) Record(_ context.Context, evt *ah.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return m.err
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func (m *mockRecorder) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, evt := range m.events {
		out[i] = evt.Action
	}
	return out
}

func (m *mockRecorder) findByAction(action string) *ah.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, evt := range m.events {
		if evt.Action == action {
			return evt
		}
	}
	return nil
}

func newTestJob(schemaName string) *job.Job {
	args := job.Args{}
	if _, err := args.SetDefault(schema.ReservedKey, schemaName); err != nil {
		panic(err)
	}
	payload, err := args.Encode()
	if err != nil {
		panic(err)
	}
	return &job.Job{
		ID:         id.NewJobID(),
		Name:       "send-invoice",
		Queue:      "default",
		Payload:    payload,
		MaxRetries: 3,
		RetryCount: 1,
	}
}

// ── Hook tests ───────────────────────────────────────

func TestJobEvents_CarrySchema(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)
	ctx := context.Background()
	j := newTestJob("acme")

	_ = e.OnJobEnqueued(ctx, j)
	_ = e.OnJobStarted(ctx, j)
	_ = e.OnJobCompleted(ctx, j, 150*time.Millisecond)
	_ = e.OnJobRetrying(ctx, j, 2, time.Now())
	_ = e.OnJobFailed(ctx, j, errors.New("smtp down"))

	if rec.count() != 5 {
		t.Fatalf("events = %d, want 5", rec.count())
	}
	for _, action := range []string{
		ah.ActionJobEnqueued, ah.ActionJobStarted, ah.ActionJobCompleted,
		ah.ActionJobRetrying, ah.ActionJobFailed,
	} {
		evt := rec.findByAction(action)
		if evt == nil {
			t.Fatalf("no %s event", action)
		}
		if evt.Schema != "acme" {
			t.Errorf("%s schema = %q, want acme", action, evt.Schema)
		}
		if evt.ResourceID != j.ID.String() {
			t.Errorf("%s resource id = %q", action, evt.ResourceID)
		}
		if evt.Category != ah.CategoryJob {
			t.Errorf("%s category = %q", action, evt.Category)
		}
		if evt.Metadata["job_name"] != "send-invoice" {
			t.Errorf("%s job_name = %v", action, evt.Metadata["job_name"])
		}
	}

	failed := rec.findByAction(ah.ActionJobFailed)
	if failed.Severity != ah.SeverityCritical || failed.Outcome != ah.OutcomeFailure {
		t.Errorf("failed severity/outcome = %s/%s", failed.Severity, failed.Outcome)
	}
	if failed.Reason != "smtp down" {
		t.Errorf("failed reason = %q", failed.Reason)
	}
	if rec.findByAction(ah.ActionJobRetrying).Severity != ah.SeverityWarning {
		t.Error("retrying should be a warning")
	}
	if got := rec.findByAction(ah.ActionJobCompleted).Metadata["elapsed_ms"]; got != int64(150) {
		t.Errorf("elapsed_ms = %v, want 150", got)
	}
}

func TestTenantEvents(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)
	ctx := context.Background()

	tn, err := tenant.New("acme", "Acme Corp")
	if err != nil {
		t.Fatal(err)
	}
	j := newTestJob("acme")

	_ = e.OnTenantCreated(ctx, tn)
	_ = e.OnSchemaSwitched(ctx, j, tn)

	created := rec.findByAction(ah.ActionTenantCreated)
	if created == nil || created.Schema != "acme" || created.ResourceID != tn.ID.String() {
		t.Fatalf("tenant.created = %+v", created)
	}
	if created.Metadata["tenant_name"] != "Acme Corp" {
		t.Errorf("tenant_name = %v", created.Metadata["tenant_name"])
	}

	switched := rec.findByAction(ah.ActionSchemaSwitched)
	if switched == nil || switched.Schema != "acme" {
		t.Fatalf("schema.switched = %+v", switched)
	}
	if switched.Metadata["job_id"] != j.ID.String() {
		t.Errorf("job_id = %v", switched.Metadata["job_id"])
	}
}

func TestLegacyJobWithoutSchema(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)

	j := &job.Job{ID: id.NewJobID(), Name: "legacy", Queue: "default"}
	_ = e.OnJobEnqueued(context.Background(), j)

	if evt := rec.findByAction(ah.ActionJobEnqueued); evt == nil || evt.Schema != "" {
		t.Fatalf("event = %+v, want empty schema", evt)
	}
}

func TestWithActions_Filters(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec, ah.WithActions(ah.ActionSchemaSwitched))
	ctx := context.Background()
	j := newTestJob("acme")
	tn, _ := tenant.New("acme", "")

	_ = e.OnJobEnqueued(ctx, j)
	_ = e.OnSchemaSwitched(ctx, j, tn)
	_ = e.OnTenantCreated(ctx, tn)

	if got := rec.actions(); len(got) != 1 || got[0] != ah.ActionSchemaSwitched {
		t.Fatalf("actions = %v, want [%s]", got, ah.ActionSchemaSwitched)
	}
}

func TestRecorderError_NeverFailsHook(t *testing.T) {
	rec := &mockRecorder{err: errors.New("backend down")}
	e := ah.New(rec)

	if err := e.OnJobEnqueued(context.Background(), newTestJob("acme")); err != nil {
		t.Fatalf("hook returned %v, want nil", err)
	}
	if rec.count() != 1 {
		t.Fatalf("events = %d, want 1", rec.count())
	}
}

func TestAllActions(t *testing.T) {
	if got := len(ah.AllActions()); got != 7 {
		t.Fatalf("AllActions = %d, want 7", got)
	}
}

// ── Engine integration ───────────────────────────────

func TestEngine_ApplyAuditTrail(t *testing.T) {
	rec := &mockRecorder{}
	d, err := tenantq.New(tenantq.WithStore(memory.New()))
	if err != nil {
		t.Fatal(err)
	}
	eng, err := engine.Build(d, engine.WithExtension(ah.New(rec)))
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if _, err := eng.CreateTenant(ctx, schema.Public, "public"); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.CreateTenant(ctx, "acme", "Acme"); err != nil {
		t.Fatal(err)
	}

	engine.Register(eng, job.NewDefinition("noop", func(context.Context, struct{}) error { return nil }))

	if _, err := engine.Apply(schema.Restore(ctx, "acme"), eng, "noop", struct{}{}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	switched := rec.findByAction(ah.ActionSchemaSwitched)
	if switched == nil || switched.Schema != "acme" {
		t.Fatalf("schema.switched = %+v, want schema acme", switched)
	}
	if completed := rec.findByAction(ah.ActionJobCompleted); completed == nil || completed.Schema != "acme" {
		t.Fatalf("job.completed = %+v, want schema acme", completed)
	}

	var tenantsCreated int
	for _, a := range rec.actions() {
		if a == ah.ActionTenantCreated {
			tenantsCreated++
		}
	}
	if tenantsCreated != 2 {
		t.Errorf("tenant.created events = %d, want 2", tenantsCreated)
	}
}
