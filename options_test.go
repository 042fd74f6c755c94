package tenantq_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/tenantq"
	"github.com/xraph/tenantq/schema"
)

type closeCounter struct{ closed int }

func (c *closeCounter) Migrate(context.Context) error { return nil }
func (c *closeCounter) Ping(context.Context) error    { return nil }
func (c *closeCounter) Close() error                  { c.closed++; return nil }

func TestNew_Defaults(t *testing.T) {
	d, err := tenantq.New()
	if err != nil {
		t.Fatal(err)
	}
	cfg := d.Config()
	if cfg.PublicSchema != schema.Public {
		t.Errorf("PublicSchema = %q, want %q", cfg.PublicSchema, schema.Public)
	}
	if cfg.Concurrency != 10 || len(cfg.Queues) != 1 || cfg.Queues[0] != "default" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if d.Logger() == nil {
		t.Error("logger should default to slog.Default()")
	}
}

func TestNew_Options(t *testing.T) {
	d, err := tenantq.New(
		tenantq.WithConcurrency(3),
		tenantq.WithQueues([]string{"critical", "default"}),
		tenantq.WithPollInterval(50*time.Millisecond),
		tenantq.WithShutdownTimeout(2*time.Second),
		tenantq.WithHeartbeatInterval(time.Second),
		tenantq.WithStaleJobThreshold(5*time.Second),
		tenantq.WithPublicSchema("shared"),
	)
	if err != nil {
		t.Fatal(err)
	}
	cfg := d.Config()
	if cfg.Concurrency != 3 || len(cfg.Queues) != 2 || cfg.PollInterval != 50*time.Millisecond ||
		cfg.ShutdownTimeout != 2*time.Second || cfg.HeartbeatInterval != time.Second ||
		cfg.StaleJobThreshold != 5*time.Second || cfg.PublicSchema != "shared" {
		t.Fatalf("options not applied: %+v", cfg)
	}
}

func TestWithPublicSchema_Invalid(t *testing.T) {
	for _, name := range []string{"", "pg_toast", "has space", "1abc"} {
		if _, err := tenantq.New(tenantq.WithPublicSchema(name)); !errors.Is(err, tenantq.ErrInvalidSchemaName) {
			t.Errorf("WithPublicSchema(%q) err = %v, want ErrInvalidSchemaName", name, err)
		}
	}
}

func TestStart_WithoutEngine(t *testing.T) {
	d, _ := tenantq.New()
	if err := d.Start(context.Background()); !errors.Is(err, tenantq.ErrNoStore) {
		t.Fatalf("Start err = %v, want ErrNoStore", err)
	}
}

func TestStop_ClosesStore(t *testing.T) {
	s := &closeCounter{}
	d, _ := tenantq.New(tenantq.WithStore(s))
	if err := d.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.closed != 1 {
		t.Fatalf("Close called %d times, want 1", s.closed)
	}
}
