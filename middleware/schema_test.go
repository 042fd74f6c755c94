package middleware_test

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/tenantq"
	"github.com/xraph/tenantq/id"
	"github.com/xraph/tenantq/job"
	"github.com/xraph/tenantq/middleware"
	"github.com/xraph/tenantq/schema"
	"github.com/xraph/tenantq/store/memory"
	"github.com/xraph/tenantq/tenant"
)

func newTenantStore(t *testing.T, schemas ...string) *memory.Store {
	t.Helper()
	s := memory.New()
	for _, name := range schemas {
		tn, err := tenant.New(name, name)
		if err != nil {
			t.Fatalf("tenant.New(%q): %v", name, err)
		}
		if err := s.CreateTenant(context.Background(), tn); err != nil {
			t.Fatalf("CreateTenant(%q): %v", name, err)
		}
	}
	return s
}

type switchRecorder struct {
	schema        string
	includePublic bool
	released      bool
}

func (r *switchRecorder) SetTenant(ctx context.Context, t *tenant.Tenant, includePublic bool) (context.Context, func(), error) {
	r.schema = t.SchemaName
	r.includePublic = includePublic
	return ctx, func() { r.released = true }, nil
}

func TestSchema_SwitchesAndStripsKey(t *testing.T) {
	store := newTenantStore(t, "public", "tenant_a")
	rec := &switchRecorder{}
	mw := middleware.Schema(middleware.SchemaConfig{Tenants: store, Switcher: rec})

	j := &job.Job{
		ID:      id.NewJobID(),
		Name:    "send-invoice",
		Payload: []byte(`{"invoice_id":7,"_schema_name":"tenant_a"}`),
	}

	err := mw(context.Background(), j, func(ctx context.Context, seen *job.Job) error {
		if got := schema.Capture(ctx); got != "tenant_a" {
			t.Errorf("active schema = %q, want tenant_a", got)
		}
		args, err := job.DecodeArgs(seen.Payload)
		if err != nil {
			t.Fatalf("DecodeArgs: %v", err)
		}
		if _, ok := args[schema.ReservedKey]; ok {
			t.Error("reserved key visible to handler")
		}
		if _, ok := args["invoice_id"]; !ok {
			t.Error("handler lost its own arguments")
		}
		if rec.released {
			t.Error("tenant released before handler returned")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.schema != "tenant_a" || !rec.includePublic {
		t.Errorf("switcher got schema=%q includePublic=%v", rec.schema, rec.includePublic)
	}
	if !rec.released {
		t.Error("release not called")
	}
	if job.Schema(j) != "tenant_a" {
		t.Error("original job payload must keep the schema for retries")
	}
}

func TestSchema_AbsentKeyUsesPublic(t *testing.T) {
	store := newTenantStore(t, "public")
	mw := middleware.Schema(middleware.SchemaConfig{Tenants: store})

	j := &job.Job{ID: id.NewJobID(), Name: "cleanup", Payload: []byte(`{}`)}
	err := mw(context.Background(), j, func(ctx context.Context, _ *job.Job) error {
		if got := schema.Capture(ctx); got != schema.Public {
			t.Errorf("active schema = %q, want public", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSchema_CustomPublic(t *testing.T) {
	store := newTenantStore(t, "shared")
	mw := middleware.Schema(middleware.SchemaConfig{Tenants: store, Public: "shared"})

	j := &job.Job{ID: id.NewJobID(), Name: "cleanup"}
	err := mw(context.Background(), j, func(ctx context.Context, _ *job.Job) error {
		if got := schema.Capture(ctx); got != "shared" {
			t.Errorf("active schema = %q, want shared", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSchema_UnknownTenant(t *testing.T) {
	store := newTenantStore(t, "public")
	mw := middleware.Schema(middleware.SchemaConfig{Tenants: store})

	j := &job.Job{ID: id.NewJobID(), Name: "orphan", Payload: []byte(`{"_schema_name":"tenant_gone"}`)}
	err := mw(context.Background(), j, func(_ context.Context, _ *job.Job) error {
		t.Fatal("handler must not run without a tenant")
		return nil
	})
	if !errors.Is(err, tenantq.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestSchema_SwitchError(t *testing.T) {
	store := newTenantStore(t, "public")
	want := errors.New("connection refused")
	sw := tenant.SwitcherFunc(func(ctx context.Context, _ *tenant.Tenant, _ bool) (context.Context, func(), error) {
		return ctx, nil, want
	})
	mw := middleware.Schema(middleware.SchemaConfig{Tenants: store, Switcher: sw})

	err := mw(context.Background(), &job.Job{ID: id.NewJobID(), Name: "x"}, func(_ context.Context, _ *job.Job) error {
		t.Fatal("handler must not run when the switch fails")
		return nil
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestSchema_NonObjectPayload(t *testing.T) {
	store := newTenantStore(t, "public")
	mw := middleware.Schema(middleware.SchemaConfig{Tenants: store})

	err := mw(context.Background(), &job.Job{ID: id.NewJobID(), Name: "x", Payload: []byte(`[1]`)}, func(_ context.Context, _ *job.Job) error {
		return nil
	})
	if !errors.Is(err, tenantq.ErrPayloadNotObject) {
		t.Fatalf("expected ErrPayloadNotObject, got %v", err)
	}
}

type notifyRecorder struct{ schemas []string }

func (n *notifyRecorder) EmitSchemaSwitched(_ context.Context, _ *job.Job, t *tenant.Tenant) {
	n.schemas = append(n.schemas, t.SchemaName)
}

func TestSchema_Notifies(t *testing.T) {
	store := newTenantStore(t, "public", "tenant_b")
	n := &notifyRecorder{}
	mw := middleware.Schema(middleware.SchemaConfig{Tenants: store, Notifier: n})

	j := &job.Job{ID: id.NewJobID(), Name: "x", Payload: []byte(`{"_schema_name":"tenant_b"}`)}
	if err := mw(context.Background(), j, func(_ context.Context, _ *job.Job) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(n.schemas) != 1 || n.schemas[0] != "tenant_b" {
		t.Errorf("notified schemas = %v, want [tenant_b]", n.schemas)
	}
}
