// Package engine wires the tenantq subsystems together and provides the
// application-level API for registering handlers, enqueuing work, and
// managing tenants.
//
// The engine package exists to break an import cycle: the root tenantq
// package defines Entity and the sentinel errors (imported by job and
// tenant) and therefore cannot import those packages back. Engine sits
// above the subsystem packages and below the application layer.
//
// # Building an Engine
//
//	d, err := tenantq.New(
//	    tenantq.WithStore(pgStore),
//	    tenantq.WithConcurrency(20),
//	)
//
//	eng, err := engine.Build(d,
//	    engine.WithExtension(audithook.New(recorder)),
//	    engine.WithBackoff(backoff.NewExponential(time.Second, time.Minute)),
//	    engine.WithTenantConfig(queue.TenantConfig{
//	        QueueName:      "default",
//	        Schema:         "tenant_a",
//	        MaxConcurrency: 2,
//	    }),
//	)
//
// # Registering and Enqueuing
//
//	engine.Register(eng, job.NewDefinition("send_invoice", SendInvoice))
//
//	// Runs under tenant_a on the worker.
//	engine.Enqueue(schema.Restore(ctx, "tenant_a"), eng, "send_invoice", Invoice{ID: 42})
//
//	// Runs in the caller's goroutine, same tenant switch, nothing persisted.
//	engine.Apply(schema.Restore(ctx, "tenant_a"), eng, "send_invoice", Invoice{ID: 42})
//
//	// One job per tenant.
//	engine.EnqueueForEachTenant(ctx, eng, "nightly_rollup", Rollup{})
//
// # Options
//
//   - [WithExtension]: register a lifecycle extension
//   - [WithMiddleware]: append a middleware after the built-in chain
//   - [WithBackoff]: set the retry backoff strategy
//   - [WithQueueConfig]: per-queue rate limits and concurrency
//   - [WithTenantConfig]: per-tenant rate limits and concurrency
//   - [WithSwitcher]: override how a tenant is activated
//   - [WithTracerProvider]: set the OpenTelemetry tracer provider
//   - [WithMeterProvider]: set the OpenTelemetry meter provider
package engine
