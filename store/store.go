package store

import (
	"context"

	"github.com/xraph/tenantq/job"
	"github.com/xraph/tenantq/tenant"
)

// Store is the aggregate persistence interface. A single backend
// implements every subsystem contract.
type Store interface {
	job.Store
	tenant.Store

	// Migrate creates or upgrades the backend's tables.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
