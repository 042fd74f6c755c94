package schema_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xraph/tenantq/schema"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"public", "public", false},
		{"tenant", "tenant_a", false},
		{"leading underscore", "_shared", false},
		{"max length", "a" + strings.Repeat("b", 62), false},
		{"empty", "", true},
		{"too long", "a" + strings.Repeat("b", 63), true},
		{"leading digit", "1tenant", true},
		{"hyphen", "tenant-a", true},
		{"quote", `tenant"a`, true},
		{"pg prefix", "pg_catalog", true},
		{"pg prefix upper", "PG_temp", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.Validate(tt.input)
			if tt.wantErr {
				if !errors.Is(err, schema.ErrInvalidName) {
					t.Fatalf("Validate(%q) = %v, want ErrInvalidName", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate(%q) = %v, want nil", tt.input, err)
			}
		})
	}
}

func TestCaptureRestore(t *testing.T) {
	ctx := context.Background()
	if got := schema.Capture(ctx); got != "" {
		t.Fatalf("Capture(empty) = %q, want empty", got)
	}
	if got := schema.Current(ctx, schema.Public); got != schema.Public {
		t.Fatalf("Current(empty) = %q, want %q", got, schema.Public)
	}

	ctx = schema.Restore(ctx, "tenant_a")
	if got := schema.Capture(ctx); got != "tenant_a" {
		t.Fatalf("Capture = %q, want %q", got, "tenant_a")
	}
	if got := schema.Current(ctx, schema.Public); got != "tenant_a" {
		t.Fatalf("Current = %q, want %q", got, "tenant_a")
	}
}

func TestRestore_EmptyIsNoop(t *testing.T) {
	ctx := schema.Restore(context.Background(), "tenant_a")
	if got := schema.Capture(schema.Restore(ctx, "")); got != "tenant_a" {
		t.Fatalf("Capture after empty Restore = %q, want %q", got, "tenant_a")
	}
}

func TestSearchPath(t *testing.T) {
	tests := []struct {
		name          string
		schema        string
		includePublic bool
		want          string
	}{
		{"tenant with public", "tenant_a", true, `"tenant_a", "public"`},
		{"tenant only", "tenant_a", false, `"tenant_a"`},
		{"public itself", "public", true, `"public"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := schema.SearchPath(tt.schema, schema.Public, tt.includePublic); got != tt.want {
				t.Errorf("SearchPath = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuoteIdent(t *testing.T) {
	if got := schema.QuoteIdent(`we"ird`); got != `"we""ird"` {
		t.Errorf("QuoteIdent = %q", got)
	}
}
