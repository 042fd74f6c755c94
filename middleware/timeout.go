package middleware

import (
	"context"
	"log/slog"

	"github.com/xraph/tenantq/job"
)

// Timeout bounds a job's execution by j.Timeout. A zero Timeout leaves the
// context alone. It runs after Schema, so the tenant connection is already
// pinned when the deadline starts counting and is released by Schema once
// the handler gives up.
func Timeout(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		if j.Timeout <= 0 {
			return next(ctx, j)
		}
		logger.Debug("job deadline applied",
			slog.String("job_id", j.ID.String()),
			slog.Duration("timeout", j.Timeout),
		)
		ctx, cancel := context.WithTimeout(ctx, j.Timeout)
		defer cancel()
		return next(ctx, j)
	}
}
