// Package middleware provides composable middleware for job execution.
//
// A [Middleware] is a function that wraps a job handler. Middleware are
// composed into a chain using [Chain] and applied before each job executes.
// They are applied right-to-left: the first middleware in the slice is the
// outermost wrapper.
//
//	// logging → recover → handler
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Schema]: pops the reserved schema argument and activates the tenant
//   - [Logging]: logs job name, queue, schema, duration, and outcome
//   - [Recover]: catches panics and converts them to errors
//   - [Timeout]: cancels the job context after the job's Timeout
//   - [Tracing]: wraps execution in an OpenTelemetry span
//   - [Metrics]: records per-job duration and outcome counters
//
// Middleware placed outside [Schema] still see the reserved schema key in
// the payload; middleware placed inside it, and the handler, do not.
//
// # Writing Custom Middleware
//
//	func MyMiddleware() middleware.Middleware {
//	    return func(ctx context.Context, j *job.Job, next middleware.Handler) error {
//	        // pre-processing
//	        err := next(ctx, j)
//	        // post-processing
//	        return err
//	    }
//	}
package middleware
