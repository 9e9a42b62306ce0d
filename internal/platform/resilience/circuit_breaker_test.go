package resilience

import (
	"errors"
	"testing"
	"time"
)

func newTestBreaker(threshold int, openTimeout time.Duration, halfOpenMax int, base time.Time) (*CircuitBreaker, *time.Time) {
	b := NewCircuitBreaker(threshold, openTimeout, halfOpenMax)
	now := base
	b.now = func() time.Time { return now }
	return b, &now
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC)
	b, _ := newTestBreaker(3, 15*time.Second, 1, base)

	for i := 0; i < 2; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("Allow before threshold returned error: %v", err)
		}
		b.RecordFailure()
	}
	if got := b.State(); got != CircuitStateClosed {
		t.Fatalf("state before threshold = %s, want closed", got)
	}

	b.RecordFailure()
	if got := b.State(); got != CircuitStateOpen {
		t.Fatalf("state after threshold = %s, want open", got)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Allow while open = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC)
	b, now := newTestBreaker(1, 15*time.Second, 2, base)

	b.RecordFailure()
	if got := b.State(); got != CircuitStateOpen {
		t.Fatalf("state = %s, want open", got)
	}

	*now = base.Add(16 * time.Second)
	if got := b.State(); got != CircuitStateHalfOpen {
		t.Fatalf("state after timeout = %s, want half_open", got)
	}

	for i := 0; i < 2; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("half-open probe %d rejected: %v", i, err)
		}
		b.RecordSuccess()
	}
	if got := b.State(); got != CircuitStateClosed {
		t.Fatalf("state after probes = %s, want closed", got)
	}
}

func TestCircuitBreakerHalfOpenLimit(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC)
	b, now := newTestBreaker(1, 15*time.Second, 1, base)

	b.RecordFailure()
	*now = base.Add(15 * time.Second)

	if err := b.Allow(); err != nil {
		t.Fatalf("first half-open probe rejected: %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("second in-flight probe = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC)
	b, now := newTestBreaker(1, 15*time.Second, 1, base)

	b.RecordFailure()
	*now = base.Add(15 * time.Second)

	if err := b.Allow(); err != nil {
		t.Fatalf("half-open probe rejected: %v", err)
	}
	b.RecordFailure()

	if got := b.State(); got != CircuitStateOpen {
		t.Fatalf("state after half-open failure = %s, want open", got)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Allow after reopen = %v, want ErrCircuitOpen", err)
	}
}

func TestNormalizeCircuitBreakerConfig(t *testing.T) {
	t.Parallel()

	got := NormalizeCircuitBreakerConfig(CircuitBreakerConfig{Enabled: true})
	want := DefaultCircuitBreakerConfig()
	if got != want {
		t.Fatalf("normalized config = %+v, want %+v", got, want)
	}

	custom := CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 9,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   3,
	}
	if got := NormalizeCircuitBreakerConfig(custom); got != custom {
		t.Fatalf("normalized config = %+v, want %+v", got, custom)
	}
}
