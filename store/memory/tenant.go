package memory

import (
	"context"
	"sort"

	"github.com/xraph/tenantq"
	"github.com/xraph/tenantq/id"
	"github.com/xraph/tenantq/tenant"
)

// CreateTenant persists t. A schema may belong to one tenant only.
func (m *Store) CreateTenant(_ context.Context, t *tenant.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tenants[t.ID.String()]; exists {
		return tenantq.ErrTenantAlreadyExists
	}
	for _, existing := range m.tenants {
		if existing.SchemaName == t.SchemaName {
			return tenantq.ErrTenantAlreadyExists
		}
	}
	cp := *t
	m.tenants[t.ID.String()] = &cp
	return nil
}

// GetTenant retrieves a tenant by ID.
func (m *Store) GetTenant(_ context.Context, tenantID id.TenantID) (*tenant.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tenants[tenantID.String()]
	if !ok {
		return nil, tenantq.ErrTenantNotFound
	}
	cp := *t
	return &cp, nil
}

// GetTenantBySchema retrieves the tenant owning schemaName.
func (m *Store) GetTenantBySchema(_ context.Context, schemaName string) (*tenant.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, t := range m.tenants {
		if t.SchemaName == schemaName {
			cp := *t
			return &cp, nil
		}
	}
	return nil, tenantq.ErrTenantNotFound
}

// ListTenants returns all tenants ordered by schema name.
func (m *Store) ListTenants(_ context.Context) ([]*tenant.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*tenant.Tenant, 0, len(m.tenants))
	for _, t := range m.tenants {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].SchemaName < out[b].SchemaName
	})
	return out, nil
}

// DeleteTenant removes a tenant record.
func (m *Store) DeleteTenant(_ context.Context, tenantID id.TenantID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := tenantID.String()
	if _, ok := m.tenants[key]; !ok {
		return tenantq.ErrTenantNotFound
	}
	delete(m.tenants, key)
	return nil
}
