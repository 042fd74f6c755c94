package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/xraph/tenantq"
	"github.com/xraph/tenantq/id"
	"github.com/xraph/tenantq/job"
	"github.com/xraph/tenantq/schema"
)

const jobColumns = `
	id, name, queue, payload, state, priority, max_retries, retry_count,
	last_error, worker_id, run_at, started_at, completed_at, heartbeat_at,
	timeout, created_at, updated_at`

// schemaExpr matches the expression of idx_tenantq_jobs_schema, so schema
// filters can use the index.
const schemaExpr = `(payload ->> '` + schema.ReservedKey + `')`

// EnqueueJob persists a new job in pending state.
func (s *Store) EnqueueJob(ctx context.Context, j *job.Job) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tenantq_jobs (`+jobColumns+`
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14,
			$15, $16, $17
		)`,
		j.ID, j.Name, j.Queue, payloadOrEmpty(j.Payload), string(j.State),
		j.Priority, j.MaxRetries, j.RetryCount,
		j.LastError, j.WorkerID, j.RunAt, j.StartedAt, j.CompletedAt, j.HeartbeatAt,
		j.Timeout.Nanoseconds(), j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return tenantq.ErrJobAlreadyExists
		}
		return fmt.Errorf("tenantq/postgres: enqueue job: %w", err)
	}
	return nil
}

// DequeueJobs atomically claims up to limit due jobs from the given queues
// (all queues when empty), sets them to running, and returns them. Uses
// SELECT FOR UPDATE SKIP LOCKED so concurrent workers never claim the same
// row.
func (s *Store) DequeueJobs(ctx context.Context, queues []string, limit int) ([]*job.Job, error) {
	if queues == nil {
		queues = []string{}
	}
	rows, err := s.pool.Query(ctx, `
		WITH dequeued AS (
			UPDATE tenantq_jobs
			SET state = 'running', started_at = NOW(), heartbeat_at = NOW(), updated_at = NOW()
			WHERE id IN (
				SELECT id FROM tenantq_jobs
				WHERE state IN ('pending', 'retrying')
				  AND (cardinality($1::text[]) = 0 OR queue = ANY($1))
				  AND run_at <= NOW()
				ORDER BY priority DESC, run_at ASC
				FOR UPDATE SKIP LOCKED
				LIMIT $2
			)
			RETURNING `+jobColumns+`
		)
		SELECT * FROM dequeued ORDER BY priority DESC, run_at ASC`,
		queues, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("tenantq/postgres: dequeue jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM tenantq_jobs WHERE id = $1`,
		jobID,
	)

	j, err := scanJob(row)
	if err != nil {
		if isNoRows(err) {
			return nil, tenantq.ErrJobNotFound
		}
		return nil, fmt.Errorf("tenantq/postgres: get job: %w", err)
	}
	return j, nil
}

// UpdateJob persists changes to an existing job. The payload is written
// back as-is, so the recorded schema survives retries.
func (s *Store) UpdateJob(ctx context.Context, j *job.Job) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tenantq_jobs SET
			name = $2, queue = $3, payload = $4, state = $5,
			priority = $6, max_retries = $7, retry_count = $8,
			last_error = $9, worker_id = $10, run_at = $11,
			started_at = $12, completed_at = $13, heartbeat_at = $14,
			timeout = $15, updated_at = NOW()
		WHERE id = $1`,
		j.ID, j.Name, j.Queue, payloadOrEmpty(j.Payload), string(j.State),
		j.Priority, j.MaxRetries, j.RetryCount,
		j.LastError, j.WorkerID, j.RunAt,
		j.StartedAt, j.CompletedAt, j.HeartbeatAt,
		j.Timeout.Nanoseconds(),
	)
	if err != nil {
		return fmt.Errorf("tenantq/postgres: update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tenantq.ErrJobNotFound
	}
	return nil
}

// DeleteJob removes a job by ID.
func (s *Store) DeleteJob(ctx context.Context, jobID id.JobID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tenantq_jobs WHERE id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("tenantq/postgres: delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tenantq.ErrJobNotFound
	}
	return nil
}

// ListJobsByState returns jobs matching the given state, oldest first.
func (s *Store) ListJobsByState(ctx context.Context, state job.State, opts job.ListOpts) ([]*job.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM tenantq_jobs WHERE state = $1`
	args := []any{string(state)}

	if opts.Queue != "" {
		args = append(args, opts.Queue)
		query += fmt.Sprintf(" AND queue = $%d", len(args))
	}
	if opts.Schema != "" {
		args = append(args, opts.Schema)
		query += fmt.Sprintf(" AND %s = $%d", schemaExpr, len(args))
	}

	query += " ORDER BY created_at ASC"

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("tenantq/postgres: list jobs by state: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// HeartbeatJob records that workerID is still running the job.
func (s *Store) HeartbeatJob(ctx context.Context, jobID id.JobID, workerID id.WorkerID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tenantq_jobs
		SET heartbeat_at = NOW(), worker_id = $2, updated_at = NOW()
		WHERE id = $1`,
		jobID, workerID,
	)
	if err != nil {
		return fmt.Errorf("tenantq/postgres: heartbeat job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tenantq.ErrJobNotFound
	}
	return nil
}

// ReapStaleJobs returns running jobs whose last heartbeat (or start time,
// when no heartbeat was recorded) is older than threshold.
func (s *Store) ReapStaleJobs(ctx context.Context, threshold time.Duration) ([]*job.Job, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM tenantq_jobs
		WHERE state = 'running'
		  AND COALESCE(heartbeat_at, started_at) < NOW() - make_interval(secs => $1)`,
		threshold.Seconds(),
	)
	if err != nil {
		return nil, fmt.Errorf("tenantq/postgres: reap stale jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// CountJobs returns the number of jobs matching the given options.
func (s *Store) CountJobs(ctx context.Context, opts job.CountOpts) (int64, error) {
	query := `SELECT COUNT(*) FROM tenantq_jobs WHERE 1=1`
	var args []any

	if opts.Queue != "" {
		args = append(args, opts.Queue)
		query += fmt.Sprintf(" AND queue = $%d", len(args))
	}
	if opts.State != "" {
		args = append(args, string(opts.State))
		query += fmt.Sprintf(" AND state = $%d", len(args))
	}
	if opts.Schema != "" {
		args = append(args, opts.Schema)
		query += fmt.Sprintf(" AND %s = $%d", schemaExpr, len(args))
	}

	var count int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("tenantq/postgres: count jobs: %w", err)
	}
	return count, nil
}

// scanJob scans a single job row selected with jobColumns. IDs scan
// through id.ID's sql.Scanner.
func scanJob(row pgx.Row) (*job.Job, error) {
	var (
		j         job.Job
		stateStr  string
		timeoutNs int64
	)
	err := row.Scan(
		&j.ID, &j.Name, &j.Queue, &j.Payload, &stateStr,
		&j.Priority, &j.MaxRetries, &j.RetryCount,
		&j.LastError, &j.WorkerID, &j.RunAt, &j.StartedAt, &j.CompletedAt, &j.HeartbeatAt,
		&timeoutNs, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	j.State = job.State(stateStr)
	j.Timeout = time.Duration(timeoutNs)
	return &j, nil
}

// collectJobs collects all jobs from query rows.
func collectJobs(rows pgx.Rows) ([]*job.Job, error) {
	var jobs []*job.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("tenantq/postgres: scan job row: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tenantq/postgres: iterate job rows: %w", err)
	}
	return jobs, nil
}
