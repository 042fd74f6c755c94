package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/xraph/tenantq"
	"github.com/xraph/tenantq/backoff"
	"github.com/xraph/tenantq/ext"
	"github.com/xraph/tenantq/id"
	"github.com/xraph/tenantq/job"
	mw "github.com/xraph/tenantq/middleware"
	"github.com/xraph/tenantq/observability"
	"github.com/xraph/tenantq/queue"
	"github.com/xraph/tenantq/schema"
	"github.com/xraph/tenantq/tenant"
	"github.com/xraph/tenantq/worker"
)

const instrumentationName = "github.com/xraph/tenantq"

// Engine wraps a Dispatcher with typed subsystem access.
// Use Build() to create one from a Dispatcher.
type Engine struct {
	d           *tenantq.Dispatcher
	extensions  *ext.Registry
	registry    *job.Registry
	jobStore    job.Store
	tenantStore tenant.Store
	switcher    tenant.Switcher
	bo          backoff.Strategy
	executor    *worker.Executor
	pool        *worker.Pool
	mws         []mw.Middleware
	logger      *slog.Logger
	public      string

	queueConfigs  []queue.Config
	tenantConfigs []queue.TenantConfig
	queueManager  *queue.Manager

	// OpenTelemetry providers; nil means the global provider.
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures an Engine.
type Option func(*Engine)

// WithExtension registers an extension with the engine.
func WithExtension(e ext.Extension) Option {
	return func(eng *Engine) {
		eng.extensions.Register(e)
	}
}

// WithMiddleware appends middleware to the chain. It runs inside the
// default stack, after the tenant schema is active.
func WithMiddleware(m mw.Middleware) Option {
	return func(eng *Engine) {
		eng.mws = append(eng.mws, m)
	}
}

// WithBackoff sets the retry backoff strategy. The default is
// backoff.DefaultStrategy().
func WithBackoff(b backoff.Strategy) Option {
	return func(eng *Engine) {
		eng.bo = b
	}
}

// WithQueueConfig registers per-queue rate limits and concurrency.
// Queues not listed have no limits.
func WithQueueConfig(configs ...queue.Config) Option {
	return func(eng *Engine) {
		eng.queueConfigs = append(eng.queueConfigs, configs...)
	}
}

// WithTenantConfig registers per-schema limits on a queue.
func WithTenantConfig(configs ...queue.TenantConfig) Option {
	return func(eng *Engine) {
		eng.tenantConfigs = append(eng.tenantConfigs, configs...)
	}
}

// WithSwitcher sets how a tenant is activated before a job runs. When not
// set, the store is used if it implements tenant.Switcher, and
// tenant.ContextSwitcher otherwise.
func WithSwitcher(s tenant.Switcher) Option {
	return func(eng *Engine) {
		eng.switcher = s
	}
}

// WithTracerProvider sets the OTel TracerProvider used by the tracing
// middleware. If not set, the global provider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) {
		eng.tracerProvider = tp
	}
}

// WithMeterProvider sets the OTel MeterProvider used by the metrics
// middleware and the observability extension. If not set, the global
// provider is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(eng *Engine) {
		eng.meterProvider = mp
	}
}

// Build creates an Engine from an existing Dispatcher. The Dispatcher's
// store must implement job.Store and tenant.Store.
func Build(d *tenantq.Dispatcher, opts ...Option) (*Engine, error) {
	logger := d.Logger()
	store := d.Store()
	if store == nil {
		return nil, tenantq.ErrNoStore
	}

	js, ok := store.(job.Store)
	if !ok {
		return nil, fmt.Errorf("tenantq: store does not implement job.Store")
	}
	ts, ok := store.(tenant.Store)
	if !ok {
		return nil, fmt.Errorf("tenantq: store does not implement tenant.Store")
	}

	config := d.Config()
	eng := &Engine{
		d:           d,
		extensions:  ext.NewRegistry(logger),
		registry:    job.NewRegistry(),
		jobStore:    js,
		tenantStore: ts,
		logger:      logger,
		public:      config.PublicSchema,
	}
	if eng.public == "" {
		eng.public = schema.Public
	}

	for _, opt := range opts {
		opt(eng)
	}

	if eng.bo == nil {
		eng.bo = backoff.DefaultStrategy()
	}
	if eng.switcher == nil {
		if sw, ok := store.(tenant.Switcher); ok {
			eng.switcher = sw
		} else {
			eng.switcher = tenant.ContextSwitcher{}
		}
	}
	if ps, ok := eng.switcher.(tenant.PublicSwitcher); ok {
		ps.SetPublicSchema(eng.public)
	}

	tracingMw := mw.Tracing()
	if eng.tracerProvider != nil {
		tracingMw = mw.TracingWithTracer(eng.tracerProvider.Tracer(instrumentationName))
	}

	metricsMw := mw.Metrics()
	obsExt := observability.NewMetricsExtension()
	if eng.meterProvider != nil {
		metricsMw = mw.MetricsWithMeter(eng.meterProvider.Meter(instrumentationName))
		obsExt = observability.NewMetricsExtensionWithMeter(eng.meterProvider.Meter(instrumentationName + "/observability"))
	}
	eng.extensions.Register(obsExt)

	// recover → tracing → metrics → logging → schema → timeout → user
	defaultMws := []mw.Middleware{
		mw.Recover(logger),
		tracingMw,
		metricsMw,
		mw.Logging(logger),
		mw.Schema(mw.SchemaConfig{
			Tenants:  eng.tenantStore,
			Switcher: eng.switcher,
			Public:   eng.public,
			Notifier: eng.extensions,
			Logger:   logger,
		}),
		mw.Timeout(logger),
	}
	allMws := make([]mw.Middleware, 0, len(defaultMws)+len(eng.mws))
	allMws = append(allMws, defaultMws...)
	allMws = append(allMws, eng.mws...)

	eng.executor = worker.NewExecutor(eng.registry, eng.extensions, eng.jobStore, eng.bo, logger, allMws...)

	poolOpts := []worker.PoolOption{
		worker.WithPoolConcurrency(config.Concurrency),
		worker.WithPoolQueues(config.Queues),
		worker.WithPollInterval(config.PollInterval),
		worker.WithHeartbeatInterval(config.HeartbeatInterval),
		worker.WithStaleJobThreshold(config.StaleJobThreshold),
		worker.WithPoolPublicSchema(eng.public),
	}
	if len(eng.queueConfigs) > 0 || len(eng.tenantConfigs) > 0 {
		eng.queueManager = queue.NewManager(eng.queueConfigs...)
		for _, tc := range eng.tenantConfigs {
			eng.queueManager.SetTenantConfig(tc)
		}
		poolOpts = append(poolOpts, worker.WithQueueManager(eng.queueManager))
	}

	eng.pool = worker.NewPool(eng.jobStore, eng.executor, eng.extensions, logger, poolOpts...)

	d.SetPool(eng.pool)
	d.SetExtensions(eng.extensions)

	return eng, nil
}

// ──────────────────────────────────────────────────
// Jobs
// ──────────────────────────────────────────────────

// Register registers a typed job definition with the engine.
func Register[T any](eng *Engine, def *job.Definition[T]) {
	job.RegisterDefinition(eng.registry, def)
}

// Enqueue marshals payload and enqueues it; see Engine.EnqueueRaw.
func Enqueue[T any](ctx context.Context, eng *Engine, name string, payload T, opts ...job.Option) (*job.Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload for job %q: %w", name, err)
	}
	return eng.EnqueueRaw(ctx, name, data, opts...)
}

// EnqueueRaw persists a pending job. The tenant schema is recorded in the
// payload under schema.ReservedKey unless the payload already carries one:
// the job.WithSchema option if given, otherwise the schema on ctx,
// otherwise the public schema.
func (eng *Engine) EnqueueRaw(ctx context.Context, name string, payload []byte, opts ...job.Option) (*job.Job, error) {
	j, err := eng.newJob(ctx, name, payload, opts)
	if err != nil {
		return nil, err
	}

	if err := eng.jobStore.EnqueueJob(ctx, j); err != nil {
		return nil, err
	}

	eng.extensions.EmitJobEnqueued(ctx, j)
	return j, nil
}

// Apply runs a job immediately in the calling goroutine; see
// Engine.ApplyRaw.
func Apply[T any](ctx context.Context, eng *Engine, name string, payload T, opts ...job.Option) (*job.Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload for job %q: %w", name, err)
	}
	return eng.ApplyRaw(ctx, name, data, opts...)
}

// ApplyRaw executes a job eagerly through the full middleware chain,
// including the tenant switch, without persisting it or retrying it. The
// schema is recorded exactly as EnqueueRaw does. The returned job reflects
// the outcome; the error is the handler's.
func (eng *Engine) ApplyRaw(ctx context.Context, name string, payload []byte, opts ...job.Option) (*job.Job, error) {
	j, err := eng.newJob(ctx, name, payload, opts)
	if err != nil {
		return nil, err
	}

	start := time.Now().UTC()
	j.State = job.StateRunning
	j.StartedAt = &start
	eng.extensions.EmitJobStarted(ctx, j)

	runErr := eng.executor.Run(ctx, j)

	done := time.Now().UTC()
	j.UpdatedAt = done
	if runErr != nil {
		j.State = job.StateFailed
		j.LastError = runErr.Error()
		eng.extensions.EmitJobFailed(ctx, j, runErr)
		return j, runErr
	}
	j.State = job.StateCompleted
	j.CompletedAt = &done
	eng.extensions.EmitJobCompleted(ctx, j, done.Sub(start))
	return j, nil
}

func (eng *Engine) newJob(ctx context.Context, name string, payload []byte, opts []job.Option) (*job.Job, error) {
	jobOpts := eng.registry.Options(name)
	for _, opt := range opts {
		opt(&jobOpts)
	}

	args, err := job.DecodeArgs(payload)
	if err != nil {
		return nil, fmt.Errorf("job %q: %w", name, err)
	}

	target := jobOpts.Schema
	if target == "" {
		target = schema.Current(ctx, eng.public)
	}
	if _, err := args.SetDefault(schema.ReservedKey, target); err != nil {
		return nil, fmt.Errorf("job %q: %w", name, err)
	}
	tenantSchema, ok := args.String(schema.ReservedKey)
	if !ok {
		return nil, fmt.Errorf("job %q: %w: %s is not a string", name, tenantq.ErrInvalidSchemaName, schema.ReservedKey)
	}
	if err := schema.Validate(tenantSchema); err != nil {
		return nil, fmt.Errorf("job %q: %w", name, err)
	}

	data, err := args.Encode()
	if err != nil {
		return nil, fmt.Errorf("job %q: %w", name, err)
	}

	now := time.Now().UTC()
	j := &job.Job{
		Entity:     tenantq.NewEntity(),
		ID:         id.NewJobID(),
		Name:       name,
		Queue:      jobOpts.Queue,
		Payload:    data,
		State:      job.StatePending,
		Priority:   jobOpts.Priority,
		MaxRetries: jobOpts.MaxRetries,
		RunAt:      now,
		Timeout:    jobOpts.Timeout,
	}
	if !jobOpts.RunAt.IsZero() {
		j.RunAt = jobOpts.RunAt
	}
	return j, nil
}

// ──────────────────────────────────────────────────
// Tenants
// ──────────────────────────────────────────────────

// EnqueueForEachTenant marshals payload and fans it out; see
// Engine.EnqueueRawForEachTenant.
func EnqueueForEachTenant[T any](ctx context.Context, eng *Engine, name string, payload T, opts ...job.Option) ([]*job.Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload for job %q: %w", name, err)
	}
	return eng.EnqueueRawForEachTenant(ctx, name, data, opts...)
}

// EnqueueRawForEachTenant enqueues one job per tenant in the tenant store,
// each pinned to that tenant's schema. A schema already in payload is
// discarded. Jobs are returned in tenant order. Enqueues run with bounded
// parallelism and the first error cancels the rest; jobs enqueued before
// the failure stay enqueued.
func (eng *Engine) EnqueueRawForEachTenant(ctx context.Context, name string, payload []byte, opts ...job.Option) ([]*job.Job, error) {
	args, err := job.DecodeArgs(payload)
	if err != nil {
		return nil, fmt.Errorf("job %q: %w", name, err)
	}
	args.Pop(schema.ReservedKey)
	base, err := args.Encode()
	if err != nil {
		return nil, fmt.Errorf("job %q: %w", name, err)
	}

	tenants, err := eng.tenantStore.ListTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}

	jobs := make([]*job.Job, len(tenants))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(eng.d.Config().Concurrency, 1))
	for i, t := range tenants {
		g.Go(func() error {
			tenantOpts := append(append([]job.Option(nil), opts...), job.WithSchema(t.SchemaName))
			j, err := eng.EnqueueRaw(gctx, name, base, tenantOpts...)
			if err != nil {
				return fmt.Errorf("enqueue %q for schema %q: %w", name, t.SchemaName, err)
			}
			jobs[i] = j
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	eng.logger.Info("job fanned out to tenants",
		slog.String("job_name", name),
		slog.Int("tenants", len(tenants)),
	)
	return jobs, nil
}

// CreateTenant registers a tenant owning schemaName. When the store
// implements tenant.SchemaCreator, the schema itself is created first.
func (eng *Engine) CreateTenant(ctx context.Context, schemaName, name string) (*tenant.Tenant, error) {
	t, err := tenant.New(schemaName, name)
	if err != nil {
		return nil, err
	}

	if sc, ok := eng.tenantStore.(tenant.SchemaCreator); ok {
		if err := sc.CreateSchema(ctx, schemaName); err != nil {
			return nil, fmt.Errorf("create schema %q: %w", schemaName, err)
		}
	}
	if err := eng.tenantStore.CreateTenant(ctx, t); err != nil {
		return nil, err
	}

	eng.extensions.EmitTenantCreated(ctx, t)
	eng.logger.Info("tenant created",
		slog.String("tenant_id", t.ID.String()),
		slog.String("schema", t.SchemaName),
	)
	return t, nil
}

// ──────────────────────────────────────────────────
// Lifecycle and accessors
// ──────────────────────────────────────────────────

// Start begins job processing.
func (eng *Engine) Start(ctx context.Context) error {
	return eng.d.Start(ctx)
}

// Stop gracefully shuts down the engine.
func (eng *Engine) Stop(ctx context.Context) error {
	return eng.d.Stop(ctx)
}

// Extensions returns the extension registry.
func (eng *Engine) Extensions() *ext.Registry { return eng.extensions }

// Registry returns the job registry.
func (eng *Engine) Registry() *job.Registry { return eng.registry }

// Dispatcher returns the underlying Dispatcher.
func (eng *Engine) Dispatcher() *tenantq.Dispatcher { return eng.d }

// Tenants returns the tenant store.
func (eng *Engine) Tenants() tenant.Store { return eng.tenantStore }

// PublicSchema returns the schema used for jobs enqueued without a tenant.
func (eng *Engine) PublicSchema() string { return eng.public }

// QueueManager returns the queue manager, or nil if no queue or tenant
// configs were provided.
func (eng *Engine) QueueManager() *queue.Manager { return eng.queueManager }
