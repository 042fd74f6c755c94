// Package memory provides an in-memory implementation of store.Store.
// It is safe for concurrent use and intended for tests and development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/tenantq/job"
	"github.com/xraph/tenantq/schema"
	"github.com/xraph/tenantq/store"
	"github.com/xraph/tenantq/tenant"
)

var (
	_ store.Store          = (*Store)(nil)
	_ tenant.SchemaCreator = (*Store)(nil)
	_ tenant.Switcher      = (*Store)(nil)
)

// Store holds jobs and tenants in maps guarded by one lock.
type Store struct {
	mu sync.RWMutex

	jobs    map[string]*job.Job
	tenants map[string]*tenant.Tenant // key: tenant ID
	schemas map[string]struct{}
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		jobs:    make(map[string]*job.Job),
		tenants: make(map[string]*tenant.Tenant),
		schemas: make(map[string]struct{}),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Schemas
// ──────────────────────────────────────────────────

// CreateSchema records the schema as created. Repeated calls are no-ops,
// matching CREATE SCHEMA IF NOT EXISTS.
func (m *Store) CreateSchema(_ context.Context, schemaName string) error {
	if err := schema.Validate(schemaName); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemas[schemaName] = struct{}{}
	return nil
}

// Schemas returns the names passed to CreateSchema, sorted.
func (m *Store) Schemas() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.schemas))
	for name := range m.schemas {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SetTenant implements tenant.Switcher. There is no connection to scope,
// so the tenant's schema is only recorded on the returned context.
func (m *Store) SetTenant(ctx context.Context, t *tenant.Tenant, includePublic bool) (context.Context, func(), error) {
	return tenant.ContextSwitcher{}.SetTenant(ctx, t, includePublic)
}
