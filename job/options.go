package job

import "time"

// Options configures per-job behavior such as retries, queue, priority, and
// tenant schema.
type Options struct {
	// MaxRetries is the maximum number of retry attempts before the job fails.
	MaxRetries int

	// Queue is the queue name this job should be enqueued to.
	Queue string

	// Priority determines dequeue ordering. Higher values are processed first.
	Priority int

	// Timeout is the maximum duration a job may run before being cancelled.
	Timeout time.Duration

	// RunAt schedules the job for future execution. Zero means immediate.
	RunAt time.Time

	// Schema names the tenant schema the job runs under. Empty means the
	// schema captured from the enqueuing context. A schema already present
	// in the payload always wins.
	Schema string

	// StrictArgs rejects payload keys the handler's payload type does not
	// declare.
	StrictArgs bool
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		MaxRetries: 3,
		Queue:      "default",
		Priority:   0,
		Timeout:    5 * time.Minute,
	}
}

// Option is a functional option for configuring a job definition.
type Option func(*Options)

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) Option {
	return func(o *Options) {
		o.MaxRetries = n
	}
}

// WithQueue sets the queue name for the job.
func WithQueue(q string) Option {
	return func(o *Options) {
		o.Queue = q
	}
}

// WithPriority sets the job priority. Higher values are processed first.
func WithPriority(p int) Option {
	return func(o *Options) {
		o.Priority = p
	}
}

// WithTimeout sets the maximum execution duration for the job.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithRunAt schedules the job for execution at a specific time.
func WithRunAt(t time.Time) Option {
	return func(o *Options) {
		o.RunAt = t
	}
}

// WithSchema pins the job to a tenant schema instead of the one carried by
// the enqueuing context.
func WithSchema(name string) Option {
	return func(o *Options) {
		o.Schema = name
	}
}

// WithStrictArgs makes the handler reject unknown payload keys.
func WithStrictArgs() Option {
	return func(o *Options) {
		o.StrictArgs = true
	}
}
