package tenant

import (
	"context"

	"github.com/xraph/tenantq/schema"
)

// Switcher activates a tenant for one job execution. The returned context
// carries whatever the job handler needs to reach the tenant's data; the
// release func undoes the switch and must be called once the handler
// returns.
type Switcher interface {
	SetTenant(ctx context.Context, t *Tenant, includePublic bool) (context.Context, func(), error)
}

// PublicSwitcher is a Switcher that puts the shared schema on the search
// path itself. engine.Build hands it the configured public schema so both
// agree on its name.
type PublicSwitcher interface {
	Switcher
	SetPublicSchema(name string)
}

// SwitcherFunc adapts an ordinary function to the Switcher interface.
type SwitcherFunc func(ctx context.Context, t *Tenant, includePublic bool) (context.Context, func(), error)

// SetTenant calls f.
func (f SwitcherFunc) SetTenant(ctx context.Context, t *Tenant, includePublic bool) (context.Context, func(), error) {
	return f(ctx, t, includePublic)
}

// ContextSwitcher records the tenant's schema on the context and holds no
// database resources. Handlers resolve their own connections from
// schema.Capture.
type ContextSwitcher struct{}

// SetTenant implements Switcher.
func (ContextSwitcher) SetTenant(ctx context.Context, t *Tenant, _ bool) (context.Context, func(), error) {
	return schema.Restore(ctx, t.SchemaName), func() {}, nil
}
