package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/xraph/tenantq"
	"github.com/xraph/tenantq/id"
	"github.com/xraph/tenantq/schema"
	"github.com/xraph/tenantq/tenant"
)

const tenantColumns = `id, schema_name, name, created_at, updated_at`

// CreateTenant persists t. The schema_name column is unique, so a schema
// already claimed by another tenant yields tenantq.ErrTenantAlreadyExists.
func (s *Store) CreateTenant(ctx context.Context, t *tenant.Tenant) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tenantq_tenants (`+tenantColumns+`)
		VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.SchemaName, t.Name, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return tenantq.ErrTenantAlreadyExists
		}
		return fmt.Errorf("tenantq/postgres: create tenant: %w", err)
	}
	return nil
}

// GetTenant retrieves a tenant by ID.
func (s *Store) GetTenant(ctx context.Context, tenantID id.TenantID) (*tenant.Tenant, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenantq_tenants WHERE id = $1`,
		tenantID,
	)
	t, err := scanTenant(row)
	if err != nil {
		if isNoRows(err) {
			return nil, tenantq.ErrTenantNotFound
		}
		return nil, fmt.Errorf("tenantq/postgres: get tenant: %w", err)
	}
	return t, nil
}

// GetTenantBySchema retrieves the tenant owning schemaName.
func (s *Store) GetTenantBySchema(ctx context.Context, schemaName string) (*tenant.Tenant, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenantq_tenants WHERE schema_name = $1`,
		schemaName,
	)
	t, err := scanTenant(row)
	if err != nil {
		if isNoRows(err) {
			return nil, tenantq.ErrTenantNotFound
		}
		return nil, fmt.Errorf("tenantq/postgres: get tenant by schema: %w", err)
	}
	return t, nil
}

// ListTenants returns all tenants ordered by schema name.
func (s *Store) ListTenants(ctx context.Context) ([]*tenant.Tenant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tenantColumns+` FROM tenantq_tenants ORDER BY schema_name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("tenantq/postgres: list tenants: %w", err)
	}
	defer rows.Close()

	var out []*tenant.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("tenantq/postgres: scan tenant row: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tenantq/postgres: iterate tenant rows: %w", err)
	}
	return out, nil
}

// DeleteTenant removes a tenant record. The schema is not dropped.
func (s *Store) DeleteTenant(ctx context.Context, tenantID id.TenantID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tenantq_tenants WHERE id = $1`, tenantID)
	if err != nil {
		return fmt.Errorf("tenantq/postgres: delete tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tenantq.ErrTenantNotFound
	}
	return nil
}

// CreateSchema creates the schema if it does not exist yet. The name is
// validated before it is interpolated into the statement.
func (s *Store) CreateSchema(ctx context.Context, schemaName string) error {
	if err := schema.Validate(schemaName); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, createSchemaSQL(schemaName)); err != nil {
		return fmt.Errorf("tenantq/postgres: create schema %s: %w", schemaName, err)
	}
	s.logger.Info("schema created", slog.String("schema", schemaName))
	return nil
}

func createSchemaSQL(name string) string {
	return "CREATE SCHEMA IF NOT EXISTS " + schema.QuoteIdent(name)
}

func scanTenant(row pgx.Row) (*tenant.Tenant, error) {
	var t tenant.Tenant
	if err := row.Scan(&t.ID, &t.SchemaName, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
