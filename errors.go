package tenantq

import (
	"errors"

	"github.com/xraph/tenantq/schema"
)

var (
	// Store errors.
	ErrNoStore         = errors.New("tenantq: no store configured")
	ErrMigrationFailed = errors.New("tenantq: migration failed")

	// Not found errors.
	ErrJobNotFound    = errors.New("tenantq: job not found")
	ErrTenantNotFound = errors.New("tenantq: tenant not found")

	// Conflict errors.
	ErrJobAlreadyExists    = errors.New("tenantq: job already exists")
	ErrTenantAlreadyExists = errors.New("tenantq: tenant already exists")

	// Argument errors.
	ErrInvalidSchemaName = schema.ErrInvalidName
	ErrPayloadNotObject  = errors.New("tenantq: job payload must be a JSON object")
	ErrNoHandler         = errors.New("tenantq: no handler registered")

	// State errors.
	ErrMaxRetriesExceeded = errors.New("tenantq: max retries exceeded")
)
