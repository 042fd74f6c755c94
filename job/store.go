package job

import (
	"context"
	"time"

	"github.com/xraph/tenantq/id"
)

// ListOpts filters and pages ListJobsByState. Zero fields do not filter.
type ListOpts struct {
	Limit  int
	Offset int
	Queue  string

	// Schema keeps only jobs recorded under this tenant schema.
	Schema string
}

// CountOpts filters CountJobs. Zero fields do not filter.
type CountOpts struct {
	Queue  string
	State  State
	Schema string
}

// Store persists jobs. Implementations must keep Payload byte-for-byte
// across updates: the tenant schema travels inside it.
type Store interface {
	// EnqueueJob inserts a new job. Returns tenantq.ErrJobAlreadyExists
	// for a duplicate ID.
	EnqueueJob(ctx context.Context, j *Job) error

	// DequeueJobs claims up to limit due jobs (pending or retrying) from
	// queues, or from every queue when queues is empty. Claimed jobs are
	// marked running and returned highest priority first, then oldest
	// RunAt. Two callers never claim the same job.
	DequeueJobs(ctx context.Context, queues []string, limit int) ([]*Job, error)

	GetJob(ctx context.Context, jobID id.JobID) (*Job, error)
	UpdateJob(ctx context.Context, j *Job) error
	DeleteJob(ctx context.Context, jobID id.JobID) error

	// ListJobsByState returns jobs in state, oldest first.
	ListJobsByState(ctx context.Context, state State, opts ListOpts) ([]*Job, error)

	// HeartbeatJob marks a running job as still owned by workerID.
	HeartbeatJob(ctx context.Context, jobID id.JobID, workerID id.WorkerID) error

	// ReapStaleJobs returns running jobs not heartbeated within threshold.
	// The caller decides what to do with them.
	ReapStaleJobs(ctx context.Context, threshold time.Duration) ([]*Job, error)

	CountJobs(ctx context.Context, opts CountOpts) (int64, error)
}
