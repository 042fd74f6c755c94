// Package queue gates job starts by queue and by tenant schema.
//
// Jobs carry a Queue field, and the worker pool polls the queues listed in
// tenantq.Config.Queues (default: ["default"]). A [Manager] adds optional
// limits on top of the pool-wide concurrency:
//
//	m := queue.NewManager(
//	    queue.Config{Name: "reports", MaxConcurrency: 4},
//	    queue.Config{Name: "bulk", RateLimit: 5, RateBurst: 10},
//	)
//	m.SetTenantConfig(queue.TenantConfig{
//	    QueueName:      "reports",
//	    Schema:         "tenant_big",
//	    MaxConcurrency: 1,
//	})
//
// Tenant limits are keyed by the schema name a job was enqueued under, so
// one tenant's backlog cannot starve the others sharing a queue. Rate
// limits use token buckets from golang.org/x/time/rate.
//
//	if m.Acquire(j.Queue, job.Schema(j)) {
//	    defer m.Release(j.Queue, job.Schema(j))
//	    // run the job
//	}
package queue
