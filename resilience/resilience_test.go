package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "batch", MaxFailures: 2, Timeout: time.Minute})

	for i := 0; i < 2; i++ {
		if err := cb.Execute(func() error { return errBoom }); !errors.Is(err, errBoom) {
			t.Fatalf("expected errBoom, got %v", err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Fatalf("expected fast failure without calling fn, got %v (called=%v)", err, called)
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name: "batch", MaxFailures: 1, Timeout: time.Second,
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	now := time.Unix(1000, 0)
	cb.now = func() time.Time { return now }

	_ = cb.Execute(func() error { return errBoom })
	now = now.Add(2 * time.Second)

	if cb.State() != StateHalfOpen {
		t.Fatalf("expected half-open after timeout, got %s", cb.State())
	}
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cb.State() != StateClosed {
		t.Fatalf("expected closed after successful probe, got %s", cb.State())
	}

	want := []string{"closed->open", "open->half-open", "half-open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("expected %v, got %v", want, transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d: expected %s, got %s", i, want[i], transitions[i])
		}
	}
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Second})
	now := time.Unix(0, 0)
	cb.now = func() time.Time { return now }

	_ = cb.Execute(func() error { return errBoom })
	now = now.Add(time.Second)
	_ = cb.Execute(func() error { return errBoom })

	if cb.State() != StateOpen {
		t.Fatalf("expected open after failed probe, got %s", cb.State())
	}
	cb.Reset()
	if cb.State() != StateClosed || cb.Failures() != 0 {
		t.Fatalf("expected reset to closed, got %s/%d", cb.State(), cb.Failures())
	}
}

func TestRetry_SucceedsEventually(t *testing.T) {
	var calls int32
	cfg := RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}

	got, err := Retry(context.Background(), cfg, func() (string, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return "", errBoom
		}
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("expected ok, got %q / %v", got, err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	cfg := RetryConfig{MaxAttempts: 5, InitialBackoff: time.Millisecond, RetryIf: func(error) bool { return false }}

	_, err := Retry(context.Background(), cfg, func() (int, error) {
		calls++
		return 0, errBoom
	})
	if !errors.Is(err, errBoom) || calls != 1 {
		t.Fatalf("expected one call returning errBoom, got %d / %v", calls, err)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Retry(ctx, DefaultRetryConfig(), func() (int, error) { return 1, nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if DefaultRetryIf(context.DeadlineExceeded) {
		t.Error("deadline errors must not be retried")
	}
}

func TestBackoff_Capped(t *testing.T) {
	cfg := withRetryDefaults(RetryConfig{InitialBackoff: time.Second, MaxBackoff: 3 * time.Second})
	if d := backoff(5, cfg); d != 3*time.Second {
		t.Errorf("expected cap of 3s, got %v", d)
	}
}

func TestBulkhead_RejectsWhenFull(t *testing.T) {
	rejected := 0
	b := NewBulkhead(BulkheadConfig{Name: "batches", MaxConcurrent: 1, OnReject: func(string) { rejected++ }})

	hold := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- b.Execute(context.Background(), func() error {
			close(started)
			<-hold
			return nil
		})
	}()
	<-started

	if err := b.Execute(context.Background(), func() error { return nil }); !errors.Is(err, ErrBulkheadFull) {
		t.Fatalf("expected ErrBulkheadFull, got %v", err)
	}
	if rejected != 1 || b.InUse() != 1 {
		t.Errorf("expected 1 rejection and 1 slot in use, got %d/%d", rejected, b.InUse())
	}

	close(hold)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.InUse() != 0 {
		t.Errorf("expected slot released, got %d in use", b.InUse())
	}
}

func TestBulkhead_WaitTimeout(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: 10 * time.Millisecond})
	hold := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = b.Execute(context.Background(), func() error { close(started); <-hold; return nil })
	}()
	<-started
	defer close(hold)

	if err := b.Execute(context.Background(), func() error { return nil }); !errors.Is(err, ErrBulkheadTimeout) {
		t.Fatalf("expected ErrBulkheadTimeout, got %v", err)
	}
	if b.MaxConcurrent() != 1 {
		t.Errorf("expected 1, got %d", b.MaxConcurrent())
	}
}
