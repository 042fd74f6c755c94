package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/tenantq/ext"
	"github.com/xraph/tenantq/id"
	"github.com/xraph/tenantq/job"
	"github.com/xraph/tenantq/schema"
)

// QueueManager gates job starts by queue and tenant schema. The pool calls
// Acquire before executing a dequeued job and Release once it finishes.
// *queue.Manager implements it.
type QueueManager interface {
	Acquire(queue, schemaName string) bool
	Release(queue, schemaName string)
}

// Pool runs a fixed number of goroutines that poll the store for due jobs
// and execute them through the Executor. Optional background loops send
// heartbeats for running jobs and return stale ones to the queue.
type Pool struct {
	store        job.Store
	executor     *Executor
	extensions   *ext.Registry
	concurrency  int
	queues       []string
	pollInterval time.Duration
	workerID     id.WorkerID
	logger       *slog.Logger

	heartbeatInterval time.Duration
	staleJobThreshold time.Duration

	queueManager QueueManager
	public       string

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool

	activeMu   sync.Mutex
	activeJobs map[string]activeJob
}

type activeJob struct {
	id     id.JobID
	cancel context.CancelFunc
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolConcurrency sets the number of concurrent worker goroutines.
func WithPoolConcurrency(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithPoolQueues sets the queues the pool will poll.
func WithPoolQueues(queues []string) PoolOption {
	return func(p *Pool) {
		if len(queues) > 0 {
			p.queues = queues
		}
	}
}

// WithPollInterval sets how long an idle worker waits before polling again.
func WithPollInterval(d time.Duration) PoolOption {
	return func(p *Pool) {
		if d > 0 {
			p.pollInterval = d
		}
	}
}

// WithHeartbeatInterval sets how often the pool sends heartbeats for
// active jobs. Zero disables heartbeats.
func WithHeartbeatInterval(d time.Duration) PoolOption {
	return func(p *Pool) { p.heartbeatInterval = d }
}

// WithStaleJobThreshold sets how old a running job's heartbeat may get
// before the job is returned to the queue. Zero disables reaping.
func WithStaleJobThreshold(d time.Duration) PoolOption {
	return func(p *Pool) { p.staleJobThreshold = d }
}

// WithQueueManager sets the per-queue and per-schema limiter.
func WithQueueManager(m QueueManager) PoolOption {
	return func(p *Pool) { p.queueManager = m }
}

// WithPoolPublicSchema sets the schema a job without a recorded schema
// runs under. Defaults to schema.Public.
func WithPoolPublicSchema(name string) PoolOption {
	return func(p *Pool) {
		if name != "" {
			p.public = name
		}
	}
}

// NewPool creates a worker pool.
func NewPool(
	store job.Store,
	executor *Executor,
	extensions *ext.Registry,
	logger *slog.Logger,
	opts ...PoolOption,
) *Pool {
	p := &Pool{
		store:        store,
		executor:     executor,
		extensions:   extensions,
		concurrency:  10,
		queues:       []string{"default"},
		pollInterval: time.Second,
		workerID:     id.NewWorkerID(),
		logger:       logger,
		public:       schema.Public,
		activeJobs:   make(map[string]activeJob),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WorkerID returns the pool's unique worker identifier.
func (p *Pool) WorkerID() id.WorkerID { return p.workerID }

// Start launches the worker goroutines and returns immediately. Calling
// Start on a running pool is a no-op.
func (p *Pool) Start(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	p.running = true
	p.stopCh = make(chan struct{})

	p.logger.Info("worker pool starting",
		slog.String("worker_id", p.workerID.String()),
		slog.Int("concurrency", p.concurrency),
		slog.Any("queues", p.queues),
	)

	for range p.concurrency {
		p.wg.Add(1)
		go p.dequeueLoop()
	}
	if p.heartbeatInterval > 0 {
		p.every(p.heartbeatInterval, p.sendHeartbeats)
	}
	if p.staleJobThreshold > 0 {
		p.every(p.staleJobThreshold, p.reapStaleJobs)
	}
	return nil
}

// Stop signals all workers to stop and waits for in-flight jobs. When ctx
// ends first, the contexts of active jobs are cancelled and Stop waits for
// the handlers to return.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.logger.Info("worker pool stopping", slog.String("worker_id", p.workerID.String()))

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped gracefully")
	case <-ctx.Done():
		p.logger.Warn("worker pool shutdown timed out, cancelling active jobs")
		p.cancelActiveJobs()
		<-done
	}
	return nil
}

func (p *Pool) dequeueLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		jobs, err := p.store.DequeueJobs(context.Background(), p.queues, 1)
		if err != nil {
			p.logger.Error("dequeue error", slog.String("error", err.Error()))
			p.sleep()
			continue
		}
		if len(jobs) == 0 {
			p.sleep()
			continue
		}

		if !p.process(jobs[0]) {
			p.sleep()
		}
	}
}

// process runs one claimed job. It reports false when the job was handed
// back because its queue or schema is at its limit.
func (p *Pool) process(j *job.Job) bool {
	tenantSchema, err := job.DefaultSchema(j, p.public)
	if err != nil {
		p.logger.Warn("job payload has no readable schema",
			slog.String("job_id", j.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	if p.queueManager != nil {
		if !p.queueManager.Acquire(j.Queue, tenantSchema) {
			p.deferJob(j)
			return false
		}
		defer p.queueManager.Release(j.Queue, tenantSchema)
	}

	j.WorkerID = p.workerID
	p.extensions.EmitJobStarted(context.Background(), j)

	ctx, cancel := context.WithCancel(context.Background())
	p.trackJob(j.ID, cancel)
	defer func() {
		p.untrackJob(j.ID)
		cancel()
	}()

	if err := p.executor.Execute(ctx, j); err != nil {
		p.logger.Debug("job execution failed",
			slog.String("job_id", j.ID.String()),
			slog.String("job_name", j.Name),
			slog.String("schema", tenantSchema),
			slog.String("error", err.Error()),
		)
	}
	return true
}

// deferJob returns a throttled job to pending one poll interval from now.
func (p *Pool) deferJob(j *job.Job) {
	j.State = job.StatePending
	j.RunAt = time.Now().UTC().Add(p.pollInterval)
	j.StartedAt = nil
	if err := p.store.UpdateJob(context.Background(), j); err != nil {
		p.logger.Error("failed to re-enqueue throttled job",
			slog.String("job_id", j.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}

// every runs fn on a ticker until the pool stops.
func (p *Pool) every(interval time.Duration, fn func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stopCh:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

func (p *Pool) sendHeartbeats() {
	p.activeMu.Lock()
	ids := make([]id.JobID, 0, len(p.activeJobs))
	for _, a := range p.activeJobs {
		ids = append(ids, a.id)
	}
	p.activeMu.Unlock()

	for _, jobID := range ids {
		if err := p.store.HeartbeatJob(context.Background(), jobID, p.workerID); err != nil {
			p.logger.Warn("heartbeat failed",
				slog.String("job_id", jobID.String()),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (p *Pool) reapStaleJobs() {
	stale, err := p.store.ReapStaleJobs(context.Background(), p.staleJobThreshold)
	if err != nil {
		p.logger.Error("reap stale jobs error", slog.String("error", err.Error()))
		return
	}

	for _, j := range stale {
		j.State = job.StatePending
		j.RunAt = time.Now().UTC()
		j.WorkerID = id.WorkerID{}
		j.HeartbeatAt = nil
		j.StartedAt = nil

		if err := p.store.UpdateJob(context.Background(), j); err != nil {
			p.logger.Error("reap: failed to reset stale job",
				slog.String("job_id", j.ID.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		tenantSchema, _ := job.DefaultSchema(j, p.public)
		p.logger.Info("reaped stale job",
			slog.String("job_id", j.ID.String()),
			slog.String("job_name", j.Name),
			slog.String("schema", tenantSchema),
		)
	}
}

func (p *Pool) sleep() {
	select {
	case <-time.After(p.pollInterval):
	case <-p.stopCh:
	}
}

func (p *Pool) trackJob(jobID id.JobID, cancel context.CancelFunc) {
	p.activeMu.Lock()
	p.activeJobs[jobID.String()] = activeJob{id: jobID, cancel: cancel}
	p.activeMu.Unlock()
}

func (p *Pool) untrackJob(jobID id.JobID) {
	p.activeMu.Lock()
	delete(p.activeJobs, jobID.String())
	p.activeMu.Unlock()
}

func (p *Pool) cancelActiveJobs() {
	p.activeMu.Lock()
	defer p.activeMu.Unlock()
	for key, a := range p.activeJobs {
		p.logger.Warn("cancelling active job", slog.String("job_id", key))
		a.cancel()
	}
}
