// Package tenant defines the tenant entity, its store contract, and the
// Switcher that activates a tenant's schema for the duration of a job.
package tenant

import (
	"context"

	"github.com/xraph/tenantq"
	"github.com/xraph/tenantq/id"
	"github.com/xraph/tenantq/schema"
)

// Tenant is one customer whose data lives in its own schema of the shared
// database.
type Tenant struct {
	tenantq.Entity

	ID         id.TenantID `json:"id"`
	SchemaName string      `json:"schema_name"`
	Name       string      `json:"name,omitempty"`
}

// New returns a tenant for the given schema with a fresh ID. The schema
// name is validated.
func New(schemaName, name string) (*Tenant, error) {
	if err := schema.Validate(schemaName); err != nil {
		return nil, err
	}
	return &Tenant{
		Entity:     tenantq.NewEntity(),
		ID:         id.NewTenantID(),
		SchemaName: schemaName,
		Name:       name,
	}, nil
}

// Store defines the persistence contract for tenants.
type Store interface {
	// CreateTenant persists a new tenant. Returns
	// tenantq.ErrTenantAlreadyExists when the schema is already claimed.
	CreateTenant(ctx context.Context, t *Tenant) error

	// GetTenant retrieves a tenant by ID.
	GetTenant(ctx context.Context, tenantID id.TenantID) (*Tenant, error)

	// GetTenantBySchema retrieves the tenant owning the given schema.
	// Returns tenantq.ErrTenantNotFound when no tenant owns it.
	GetTenantBySchema(ctx context.Context, schemaName string) (*Tenant, error)

	// ListTenants returns all tenants ordered by schema name.
	ListTenants(ctx context.Context) ([]*Tenant, error)

	// DeleteTenant removes a tenant record. The schema itself is left in
	// place.
	DeleteTenant(ctx context.Context, tenantID id.TenantID) error
}

// SchemaCreator is implemented by stores that can create the database
// schema backing a tenant.
type SchemaCreator interface {
	CreateSchema(ctx context.Context, schemaName string) error
}
