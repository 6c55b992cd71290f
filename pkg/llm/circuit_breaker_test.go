package llm

import (
	"strings"
	"testing"
	"time"
)

func TestCircuitBreaker_StaysClosedBelowThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 3, ResetAfter: time.Minute})

	cb.RecordFailure()
	cb.RecordFailure()

	if cb.State() != CircuitClosed {
		t.Errorf("expected closed after 2 of 3 failures, got %v", cb.State())
	}
	if ok, err := cb.Allow(); !ok || err != nil {
		t.Errorf("expected request allowed while closed, got ok=%v err=%v", ok, err)
	}
}

func TestCircuitBreaker_TripsAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 3, ResetAfter: time.Minute})

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}

	if cb.State() != CircuitOpen {
		t.Fatalf("expected open after threshold failures, got %v", cb.State())
	}

	ok, err := cb.Allow()
	if ok {
		t.Error("expected request blocked while open")
	}
	if err == nil || !strings.Contains(err.Error(), "circuit breaker open") {
		t.Errorf("expected open-circuit error, got: %v", err)
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 3, ResetAfter: time.Minute})

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()

	if cb.ConsecutiveFailures() != 0 {
		t.Errorf("expected failure count reset, got %d", cb.ConsecutiveFailures())
	}

	// The streak must start over after a success.
	cb.RecordFailure()
	cb.RecordFailure()
	if cb.State() != CircuitClosed {
		t.Errorf("expected closed after interrupted streak, got %v", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 1, ResetAfter: time.Millisecond})

	cb.RecordFailure()
	if cb.State() != CircuitOpen {
		t.Fatalf("expected open, got %v", cb.State())
	}

	time.Sleep(5 * time.Millisecond)

	// First request after the reset window is the probe.
	if ok, _ := cb.Allow(); !ok {
		t.Fatal("expected probe request allowed after reset window")
	}
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("expected half-open during probe, got %v", cb.State())
	}

	// Concurrent requests wait for the probe outcome.
	if ok, _ := cb.Allow(); ok {
		t.Error("expected second request blocked while half-open")
	}
}

func TestCircuitBreaker_ProbeFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 1, ResetAfter: time.Millisecond})

	cb.RecordFailure()
	time.Sleep(5 * time.Millisecond)
	if ok, _ := cb.Allow(); !ok {
		t.Fatal("expected probe allowed")
	}

	cb.RecordFailure()
	if cb.State() != CircuitOpen {
		t.Errorf("expected reopened after failed probe, got %v", cb.State())
	}
}

func TestCircuitBreaker_ProbeSuccessCloses(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 1, ResetAfter: time.Millisecond})

	cb.RecordFailure()
	time.Sleep(5 * time.Millisecond)
	if ok, _ := cb.Allow(); !ok {
		t.Fatal("expected probe allowed")
	}

	cb.RecordSuccess()
	if cb.State() != CircuitClosed {
		t.Errorf("expected closed after successful probe, got %v", cb.State())
	}
	if ok, err := cb.Allow(); !ok || err != nil {
		t.Errorf("expected requests flowing again, got ok=%v err=%v", ok, err)
	}
}

func TestCircuitBreaker_ManualReset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 1, ResetAfter: time.Hour})

	cb.RecordFailure()
	cb.Reset()

	if cb.State() != CircuitClosed {
		t.Errorf("expected closed after reset, got %v", cb.State())
	}
	if cb.ConsecutiveFailures() != 0 {
		t.Errorf("expected zero failures after reset, got %d", cb.ConsecutiveFailures())
	}
}

func TestCircuitState_String(t *testing.T) {
	cases := map[CircuitState]string{
		CircuitClosed:    "closed",
		CircuitOpen:      "open",
		CircuitHalfOpen:  "half-open",
		CircuitState(99): "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("state %d: expected %q, got %q", state, want, got)
		}
	}
}
