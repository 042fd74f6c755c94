package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/tenantq/job"
)

// Logging returns middleware that logs job start and completion, tagged
// with the tenant schema the job was enqueued under.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		attrs := []any{
			slog.String("job_name", j.Name),
			slog.String("job_id", j.ID.String()),
			slog.String("queue", j.Queue),
			slog.String("schema", job.Schema(j)),
		}
		logger.Info("job started", attrs...)

		start := time.Now()
		err := next(ctx, j)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("job failed",
				append(attrs, slog.Duration("elapsed", elapsed), slog.String("error", err.Error()))...,
			)
		} else {
			logger.Info("job completed", append(attrs, slog.Duration("elapsed", elapsed))...)
		}

		return err
	}
}
