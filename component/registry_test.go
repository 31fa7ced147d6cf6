package component

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeComponent struct {
	name     string
	startErr error
	stopErr  error
	events   *[]string
}

func (f *fakeComponent) Name() string { return f.name }
func (f *fakeComponent) Start(context.Context) error {
	*f.events = append(*f.events, "start:"+f.name)
	return f.startErr
}
func (f *fakeComponent) Stop(context.Context) error {
	*f.events = append(*f.events, "stop:"+f.name)
	return f.stopErr
}
func (f *fakeComponent) Health(context.Context) Health {
	return Health{Name: f.name, Status: StatusHealthy}
}
func (f *fakeComponent) Describe() Description {
	return Description{Name: f.name, Type: "fake", Details: "in-memory"}
}

func TestRegistry_StartStopOrder(t *testing.T) {
	var events []string
	r := NewRegistry(nil)
	for _, name := range []string{"http", "redis", "tracer"} {
		if err := r.Register(&fakeComponent{name: name, events: &events}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "start:http,start:redis,start:tracer,stop:tracer,stop:redis,stop:http"
	if got := strings.Join(events, ","); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestRegistry_DuplicateName(t *testing.T) {
	var events []string
	r := NewRegistry(nil)
	_ = r.Register(&fakeComponent{name: "http", events: &events})
	if err := r.Register(&fakeComponent{name: "http", events: &events}); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestRegistry_StartFailureOnlyStopsStarted(t *testing.T) {
	var events []string
	r := NewRegistry(nil)
	_ = r.Register(&fakeComponent{name: "a", events: &events})
	_ = r.Register(&fakeComponent{name: "b", startErr: errors.New("refused"), events: &events})
	_ = r.Register(&fakeComponent{name: "c", events: &events})

	err := r.StartAll(context.Background())
	if err == nil || !strings.Contains(err.Error(), "failed to start b") {
		t.Fatalf("expected start failure for b, got %v", err)
	}
	_ = r.StopAll(context.Background())

	want := "start:a,start:b,stop:a"
	if got := strings.Join(events, ","); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestRegistry_StopErrorsAndHealth(t *testing.T) {
	var events []string
	r := NewRegistry(nil)
	_ = r.Register(&fakeComponent{name: "a", stopErr: errors.New("stuck"), events: &events})
	_ = r.StartAll(context.Background())

	if err := r.StopAll(context.Background()); err == nil {
		t.Fatal("expected shutdown error")
	}
	health := r.HealthAll(context.Background())
	if len(health) != 1 || health[0].Status != StatusHealthy {
		t.Errorf("unexpected health %v", health)
	}
	if r.Get("a") == nil || r.Get("missing") != nil {
		t.Error("Get returned wrong component")
	}
}

func TestRegistry_NamesAndGet(t *testing.T) {
	var events []string
	r := NewRegistry(nil)
	for _, name := range []string{"telemetry", "batch-client", "result-store"} {
		_ = r.Register(&fakeComponent{name: name, events: &events})
	}

	if got := strings.Join(r.Names(), ","); got != "telemetry,batch-client,result-store" {
		t.Errorf("expected registration order, got %s", got)
	}
	if r.Get("batch-client") == nil {
		t.Error("expected batch-client to be registered")
	}
	if r.Get("missing") != nil {
		t.Error("expected nil for unknown component")
	}
}
