package middleware

import (
	"context"

	"github.com/xraph/tenantq/job"
)

// Handler is the terminal function that executes job logic. It receives
// the job as the next layer should see it; middleware may pass a modified
// copy without touching the persisted job.
type Handler func(ctx context.Context, j *job.Job) error

// Middleware wraps a Handler with cross-cutting logic.
// It receives the current context, the job being executed, and the
// next handler to call. Middleware MUST call next to continue the chain
// (unless short-circuiting on error).
type Middleware func(ctx context.Context, j *job.Job, next Handler) error

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover, schema) executes as:
//
//	logging → recover → schema → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context, j *job.Job) error {
				return mw(ctx, j, prev)
			}
		}
		return h(ctx, j)
	}
}
