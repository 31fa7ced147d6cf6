package store

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/gobatch/component"
)

func TestComponent_Lifecycle(t *testing.T) {
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mini.Close()

	c := NewComponent(Config{Enabled: true, Addr: mini.Addr()}, nil)
	ctx := context.Background()

	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before Start, got %s", h.Status)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if c.Store() == nil {
		t.Fatal("expected a store after Start")
	}
	if h := c.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %s (%s)", h.Status, h.Message)
	}
	if d := c.Describe(); !strings.Contains(d.Details, "ttl=24h") {
		t.Errorf("unexpected description %q", d.Details)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
}

func TestComponent_StartDisabled(t *testing.T) {
	c := NewComponent(Config{}, nil)
	if err := c.Start(context.Background()); err == nil {
		t.Fatal("expected an error for a disabled store")
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{Enabled: true, TTL: "forever"}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "ttl") {
		t.Errorf("expected a ttl error, got %v", err)
	}

	cfg = Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled config should validate, got %v", err)
	}
	if cfg.Retention().Hours() != 24 {
		t.Errorf("expected 24h retention, got %s", cfg.Retention())
	}
}
