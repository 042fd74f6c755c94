package job

import (
	"time"

	"github.com/xraph/tenantq"
	"github.com/xraph/tenantq/id"
	"github.com/xraph/tenantq/schema"
)

// State represents the lifecycle state of a job.
type State string

const (
	// StatePending means the job is waiting to be picked up by a worker.
	StatePending State = "pending"
	// StateRunning means a worker is currently executing the job.
	StateRunning State = "running"
	// StateCompleted means the job finished successfully.
	StateCompleted State = "completed"
	// StateFailed means the job failed and will not be retried.
	StateFailed State = "failed"
	// StateRetrying means the job failed but is scheduled for retry.
	StateRetrying State = "retrying"
	// StateCancelled means the job was explicitly cancelled.
	StateCancelled State = "cancelled"
)

// Job represents a unit of work to be processed by a worker. The tenant
// schema it runs under travels inside Payload; see Schema.
type Job struct {
	tenantq.Entity

	ID          id.JobID      `json:"id"`
	Name        string        `json:"name"`
	Queue       string        `json:"queue"`
	Payload     []byte        `json:"payload"` // JSON object; the argument bag
	State       State         `json:"state"`
	Priority    int           `json:"priority"`
	MaxRetries  int           `json:"max_retries"`
	RetryCount  int           `json:"retry_count"`
	LastError   string        `json:"last_error,omitempty"`
	WorkerID    id.WorkerID   `json:"worker_id,omitempty"`
	RunAt       time.Time     `json:"run_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	HeartbeatAt *time.Time    `json:"heartbeat_at,omitempty"`
	Timeout     time.Duration `json:"timeout,omitempty"`
}

// Schema returns the tenant schema recorded in the job's argument bag, or
// "" if none is recorded or the payload is not a JSON object.
func Schema(j *Job) string {
	args, err := DecodeArgs(j.Payload)
	if err != nil {
		return ""
	}
	name, _ := args.String(schema.ReservedKey)
	return name
}

// DefaultSchema records public in the job's payload when no schema is
// recorded yet, and returns the schema the job runs under. Jobs persisted
// before schemas were recorded pick up the public schema this way. A
// payload that is not a JSON object is left alone and public is returned
// with the decode error.
func DefaultSchema(j *Job, public string) (string, error) {
	args, err := DecodeArgs(j.Payload)
	if err != nil {
		return public, err
	}
	stored, err := args.SetDefault(schema.ReservedKey, public)
	if err != nil {
		return public, err
	}
	if stored {
		data, err := args.Encode()
		if err != nil {
			return public, err
		}
		j.Payload = data
		return public, nil
	}
	name, ok := args.String(schema.ReservedKey)
	if !ok {
		return public, tenantq.ErrInvalidSchemaName
	}
	return name, nil
}
