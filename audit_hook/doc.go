// Package audithook is a tenantq extension that writes lifecycle events to
// an audit trail backend.
//
// Every job event carries the tenant schema the job was enqueued under, and
// the extension additionally records each tenant switch performed before a
// job runs and each tenant created through the engine. Severity is info for
// normal operations, warning for retries, and critical for terminal
// failures.
//
// # Usage
//
//	audit := audithook.New(audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
//	    slog.InfoContext(ctx, "audit", "action", evt.Action, "schema", evt.Schema)
//	    return nil
//	}))
//	eng, err := engine.Build(d, engine.WithExtension(audit))
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionSchemaSwitched,
//	        audithook.ActionJobFailed,
//	    ),
//	)
package audithook
