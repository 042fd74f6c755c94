// Package schema carries the active tenant schema on a context.Context
// and validates schema identifiers.
//
// A schema is the PostgreSQL namespace holding one tenant's tables. The
// schema captured from the enqueuing caller is stored in the job's
// argument bag under ReservedKey and restored onto the worker's context
// before the job handler runs.
package schema

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// Public is the default shared schema used when no tenant is active.
	Public = "public"

	// ReservedKey is the argument-bag key carrying the schema name from
	// enqueue to execution. Job handlers never observe it.
	ReservedKey = "_schema_name"
)

// ErrInvalidName is returned for identifiers that cannot name a schema.
var ErrInvalidName = errors.New("tenantq: invalid schema name")

var validName = regexp.MustCompile(`^[_a-zA-Z][_a-zA-Z0-9]{0,62}$`)

// Validate reports whether name is usable as a tenant schema. Names must
// be unquoted PostgreSQL identifiers of at most 63 bytes and must not use
// the reserved pg_ prefix.
func Validate(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.HasPrefix(strings.ToLower(name), "pg_") {
		return fmt.Errorf("%w: %q uses the reserved pg_ prefix", ErrInvalidName, name)
	}
	return nil
}

type ctxKey struct{}

// Capture returns the schema attached to ctx, or "" if none is present.
func Capture(ctx context.Context) string {
	name, _ := ctx.Value(ctxKey{}).(string)
	return name
}

// Current returns the schema attached to ctx, falling back to public when
// the context carries none.
func Current(ctx context.Context, public string) string {
	if name := Capture(ctx); name != "" {
		return name
	}
	return public
}

// Restore attaches the schema to the context. An empty name returns ctx
// unchanged.
func Restore(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, name)
}

// QuoteIdent quotes name as a PostgreSQL identifier.
func QuoteIdent(name string) string {
	name = strings.ReplaceAll(name, "\x00", "")
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// SearchPath renders the search_path value that activates name, with the
// public schema appended when includePublic is set and name is not itself
// the public schema.
func SearchPath(name, public string, includePublic bool) string {
	if !includePublic || name == public {
		return QuoteIdent(name)
	}
	return QuoteIdent(name) + ", " + QuoteIdent(public)
}
