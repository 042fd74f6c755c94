// Package tenantq provides schema-aware background jobs for
// schema-per-tenant PostgreSQL deployments.
//
// A job enqueued while the caller's context carries a tenant schema is
// executed by a worker with that same schema active. The schema travels in
// the job's argument bag under a reserved key and is removed before the
// job handler sees the arguments.
//
// # Quick Start
//
//	d, err := tenantq.New(
//	    tenantq.WithStore(pgStore),
//	    tenantq.WithConcurrency(20),
//	)
//
//	eng, err := engine.Build(d, engine.WithSwitcher(pgStore))
//	engine.Register(eng, SendInvoice)
//
//	ctx = schema.Restore(ctx, "tenant_a")
//	engine.Enqueue(ctx, eng, "send_invoice", InvoiceInput{ID: 42})
//
// # Architecture
//
// The root package holds configuration, the Dispatcher lifecycle, and the
// shared sentinel errors. Subsystems (job, tenant, schema, middleware, ext,
// worker, queue) are wired together by the engine package. Backends
// implement job.Store and tenant.Store together.
//
// All entity IDs use TypeID: type-prefixed, K-sortable, UUIDv7-based.
package tenantq
