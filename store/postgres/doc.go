// Package postgres implements store.Store on PostgreSQL using pgx/v5 with
// raw SQL.
//
// Jobs are claimed with SELECT ... FOR UPDATE SKIP LOCKED. Tenants live in
// one table in the store's own schema, and each tenant's data lives in a
// schema of its own. The Store is also a tenant.Switcher: SetTenant pins a
// pool connection, points its search_path at the tenant schema (followed by
// the public schema), and makes it available to the job handler through
// Conn.
//
//	func handle(ctx context.Context, p Payload) error {
//		conn, ok := postgres.Conn(ctx)
//		if !ok {
//			return errors.New("no tenant connection")
//		}
//		_, err := conn.Exec(ctx, "UPDATE invoices SET sent = true WHERE id = $1", p.InvoiceID)
//		return err
//	}
//
// Migrations are embedded SQL files applied in filename order by Migrate.
package postgres
