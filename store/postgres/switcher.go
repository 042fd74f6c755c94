package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xraph/tenantq/schema"
	"github.com/xraph/tenantq/tenant"
)

// releaseTimeout bounds the RESET issued when a tenant connection goes back
// to the pool. The job's own context may already be cancelled by then.
const releaseTimeout = 5 * time.Second

type connKey struct{}

// Conn returns the tenant connection pinned by SetTenant for the running
// job. Its search_path already points at the tenant's schema.
func Conn(ctx context.Context) (*pgxpool.Conn, bool) {
	c, ok := ctx.Value(connKey{}).(*pgxpool.Conn)
	return c, ok && c != nil
}

// SetTenant implements tenant.Switcher. It acquires a pool connection,
// sets its search_path to the tenant schema (with the public schema
// appended when includePublic is set), and attaches the connection and the
// schema to the returned context. The release func resets search_path and
// returns the connection to the pool; a connection whose reset fails is
// closed instead of being reused.
func (s *Store) SetTenant(ctx context.Context, t *tenant.Tenant, includePublic bool) (context.Context, func(), error) {
	if err := schema.Validate(t.SchemaName); err != nil {
		return ctx, nil, err
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return ctx, nil, fmt.Errorf("tenantq/postgres: acquire tenant connection: %w", err)
	}

	if _, err := conn.Exec(ctx, setSearchPathSQL(t.SchemaName, s.public, includePublic)); err != nil {
		conn.Release()
		return ctx, nil, fmt.Errorf("tenantq/postgres: set search_path for %s: %w", t.SchemaName, err)
	}

	release := func() {
		rctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if _, err := conn.Exec(rctx, "RESET search_path"); err != nil {
			s.logger.Warn("reset search_path failed, closing connection",
				slog.String("schema", t.SchemaName),
				slog.String("error", err.Error()),
			)
			_ = conn.Conn().Close(rctx)
		}
		conn.Release()
	}

	ctx = context.WithValue(ctx, connKey{}, conn)
	return schema.Restore(ctx, t.SchemaName), release, nil
}

// SetPublicSchema implements tenant.PublicSwitcher. engine.Build calls it
// with the dispatcher's public schema before any job runs.
func (s *Store) SetPublicSchema(name string) {
	s.public = name
}

// PublicSchema returns the schema appended to each tenant's search_path.
func (s *Store) PublicSchema() string { return s.public }

func setSearchPathSQL(name, public string, includePublic bool) string {
	return "SET search_path TO " + schema.SearchPath(name, public, includePublic)
}
