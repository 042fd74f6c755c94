package queue

import (
	"golang.org/x/time/rate"
)

// TenantConfig defines rate limits and concurrency for one tenant schema on
// one queue. Jobs are matched on the schema carried in their payload, so a
// noisy tenant can be throttled without slowing its neighbours.
type TenantConfig struct {
	// QueueName is the queue this config applies to.
	QueueName string

	// Schema is the tenant's schema name (the job's _schema_name).
	Schema string

	// RateLimit is the sustained jobs per second for this tenant.
	RateLimit float64

	// RateBurst is the burst size for the tenant's rate limiter.
	RateBurst int

	// MaxConcurrency limits simultaneous jobs for this tenant on this
	// queue. Zero means no tenant-specific concurrency limit.
	MaxConcurrency int
}

type tenantKey struct {
	queue  string
	schema string
}

// tenantState tracks runtime state for a single queue+schema pair.
type tenantState struct {
	limiter        *rate.Limiter
	maxConcurrency int
	active         int
}

// SetTenantConfig configures limits for one schema on one queue. A later
// call for the same pair replaces the limits and keeps the active count.
func (m *Manager) SetTenantConfig(cfg TenantConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := tenantKey{queue: cfg.QueueName, schema: cfg.Schema}
	ts := &tenantState{
		maxConcurrency: cfg.MaxConcurrency,
		limiter:        newLimiter(cfg.RateLimit, cfg.RateBurst),
	}
	if existing := m.tenants[key]; existing != nil {
		ts.active = existing.active
	}
	m.tenants[key] = ts
}

// RemoveTenantConfig drops the limits for one schema on one queue.
func (m *Manager) RemoveTenantConfig(queue, schemaName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tenants, tenantKey{queue: queue, schema: schemaName})
}

// TenantActiveCount returns the number of active jobs for a queue+schema
// pair. Schemas without a config are not tracked and report zero.
func (m *Manager) TenantActiveCount(queue, schemaName string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ts := m.tenants[tenantKey{queue: queue, schema: schemaName}]; ts != nil {
		return ts.active
	}
	return 0
}
