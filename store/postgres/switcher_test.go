package postgres

import (
	"testing"

	"github.com/xraph/tenantq"
	"github.com/xraph/tenantq/engine"
	"github.com/xraph/tenantq/schema"
)

func TestSetPublicSchema_DefaultsToPublic(t *testing.T) {
	s := NewFromPool(nil)
	if got := s.PublicSchema(); got != schema.Public {
		t.Fatalf("PublicSchema = %q, want %q", got, schema.Public)
	}
}

func TestBuild_HandsPublicSchemaToSwitcher(t *testing.T) {
	s := NewFromPool(nil)
	d, err := tenantq.New(tenantq.WithStore(s), tenantq.WithPublicSchema("shared"))
	if err != nil {
		t.Fatalf("tenantq.New: %v", err)
	}
	eng, err := engine.Build(d)
	if err != nil {
		t.Fatalf("engine.Build: %v", err)
	}

	if s.PublicSchema() != eng.PublicSchema() {
		t.Fatalf("store public = %q, engine public = %q", s.PublicSchema(), eng.PublicSchema())
	}
	want := `SET search_path TO "acme", "shared"`
	if got := setSearchPathSQL("acme", s.PublicSchema(), true); got != want {
		t.Errorf("search_path = %q, want %q", got, want)
	}
}
