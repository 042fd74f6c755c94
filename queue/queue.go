package queue

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config defines per-queue behaviour such as rate limiting and concurrency.
type Config struct {
	// Name is the queue identifier (must match the job.Queue field).
	Name string

	// MaxConcurrency limits how many jobs from this queue may run
	// simultaneously in the local worker pool. Zero means no queue limit.
	MaxConcurrency int

	// RateLimit is the maximum sustained jobs per second started from this
	// queue. Zero disables rate limiting.
	RateLimit float64

	// RateBurst is the token-bucket burst. Defaults to 1 when RateLimit is
	// set.
	RateBurst int
}

type queueState struct {
	config  Config
	limiter *rate.Limiter
	active  int
}

// Manager gates job starts by queue and by tenant schema.
// It is safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	queues  map[string]*queueState
	tenants map[tenantKey]*tenantState
}

// NewManager creates a Manager with the given queue configurations.
// Queues not listed here have no limits.
func NewManager(configs ...Config) *Manager {
	m := &Manager{
		queues:  make(map[string]*queueState, len(configs)),
		tenants: make(map[tenantKey]*tenantState),
	}
	for _, cfg := range configs {
		m.queues[cfg.Name] = &queueState{config: cfg, limiter: newLimiter(cfg.RateLimit, cfg.RateBurst)}
	}
	return m
}

func newLimiter(limit float64, burst int) *rate.Limiter {
	if limit <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(limit), burst)
}

// Acquire reports whether a job from queue belonging to schemaName may
// start now. On true the active counters are incremented and the caller
// must call Release with the same arguments when the job finishes.
//
// No rate-limit token is spent unless the job is admitted.
func (m *Manager) Acquire(queue, schemaName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	qs := m.queues[queue]
	var ts *tenantState
	if schemaName != "" {
		ts = m.tenants[tenantKey{queue: queue, schema: schemaName}]
	}

	if qs != nil && qs.config.MaxConcurrency > 0 && qs.active >= qs.config.MaxConcurrency {
		return false
	}
	if ts != nil && ts.maxConcurrency > 0 && ts.active >= ts.maxConcurrency {
		return false
	}

	// Both buckets are checked before either is charged, so a tenant
	// refused by its own bucket leaves the queue's tokens to other tenants.
	now := time.Now()
	if qs != nil && qs.limiter != nil && qs.limiter.TokensAt(now) < 1 {
		return false
	}
	if ts != nil && ts.limiter != nil && ts.limiter.TokensAt(now) < 1 {
		return false
	}
	if qs != nil && qs.limiter != nil {
		qs.limiter.AllowN(now, 1)
	}
	if ts != nil && ts.limiter != nil {
		ts.limiter.AllowN(now, 1)
	}

	if qs != nil {
		qs.active++
	}
	if ts != nil {
		ts.active++
	}
	return true
}

// Release decrements the active counts taken by Acquire.
func (m *Manager) Release(queue, schemaName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if qs := m.queues[queue]; qs != nil && qs.active > 0 {
		qs.active--
	}
	if schemaName != "" {
		if ts := m.tenants[tenantKey{queue: queue, schema: schemaName}]; ts != nil && ts.active > 0 {
			ts.active--
		}
	}
}

// SetQueueConfig updates (or creates) a queue configuration, keeping the
// current active count.
func (m *Manager) SetQueueConfig(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	qs := &queueState{config: cfg, limiter: newLimiter(cfg.RateLimit, cfg.RateBurst)}
	if existing := m.queues[cfg.Name]; existing != nil {
		qs.active = existing.active
	}
	m.queues[cfg.Name] = qs
}

// ActiveCount returns the current number of active jobs for a queue.
func (m *Manager) ActiveCount(queue string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if qs := m.queues[queue]; qs != nil {
		return qs.active
	}
	return 0
}
