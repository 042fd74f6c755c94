package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/xraph/tenantq/job"
	"github.com/xraph/tenantq/schema"
	"github.com/xraph/tenantq/tenant"
)

// SchemaNotifier is told about every completed schema switch.
type SchemaNotifier interface {
	EmitSchemaSwitched(ctx context.Context, j *job.Job, t *tenant.Tenant)
}

// SchemaConfig configures the Schema middleware.
type SchemaConfig struct {
	// Tenants resolves schema names to tenants. Required.
	Tenants tenant.Store

	// Switcher activates the resolved tenant. Defaults to
	// tenant.ContextSwitcher.
	Switcher tenant.Switcher

	// Public is the schema used when a job carries none. Defaults to
	// schema.Public.
	Public string

	// Notifier, if set, is told about each switch.
	Notifier SchemaNotifier

	Logger *slog.Logger
}

// Schema returns middleware that restores the tenant schema recorded at
// enqueue time. It pops schema.ReservedKey from the job's argument bag,
// looks up the owning tenant (the public tenant when the key is absent),
// activates it with the public schema on the search path, and calls next
// with a copy of the job whose payload no longer carries the key.
//
// Lookup and switch failures are returned as-is; the job then follows the
// normal retry policy.
func Schema(cfg SchemaConfig) Middleware {
	if cfg.Switcher == nil {
		cfg.Switcher = tenant.ContextSwitcher{}
	}
	if cfg.Public == "" {
		cfg.Public = schema.Public
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return func(ctx context.Context, j *job.Job, next Handler) error {
		args, err := job.DecodeArgs(j.Payload)
		if err != nil {
			return fmt.Errorf("job %s: %w", j.Name, err)
		}

		name := cfg.Public
		if raw, ok := args.Pop(schema.ReservedKey); ok {
			if err := json.Unmarshal(raw, &name); err != nil {
				return fmt.Errorf("job %s: decode %s: %w", j.Name, schema.ReservedKey, err)
			}
		}

		t, err := cfg.Tenants.GetTenantBySchema(ctx, name)
		if err != nil {
			return fmt.Errorf("job %s: lookup tenant for schema %q: %w", j.Name, name, err)
		}

		ctx, release, err := cfg.Switcher.SetTenant(ctx, t, true)
		if err != nil {
			return fmt.Errorf("job %s: switch to schema %q: %w", j.Name, name, err)
		}
		defer release()
		ctx = schema.Restore(ctx, t.SchemaName)

		cfg.Logger.Debug("tenant schema activated",
			slog.String("job_id", j.ID.String()),
			slog.String("job_name", j.Name),
			slog.String("schema", t.SchemaName),
		)
		if cfg.Notifier != nil {
			cfg.Notifier.EmitSchemaSwitched(ctx, j, t)
		}

		payload, err := args.Encode()
		if err != nil {
			return fmt.Errorf("job %s: encode args: %w", j.Name, err)
		}
		stripped := *j
		stripped.Payload = payload
		return next(ctx, &stripped)
	}
}
