package circuitbreaker

import (
	"testing"
	"time"

	"github.com/shelfworks/shelfengine/internal/logging"
)

func ts(seconds int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(seconds) * time.Second)
}

// TestBreakerOpensAfterMaxFailures grounds the CLOSED -> OPEN transition:
// a breaker stays closed until MaxFailures consecutive failures, then opens
// and refuses Allow until ResetTimeout has elapsed.
func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	b := newBreaker(Config{MaxFailures: 3, ResetTimeout: 60 * time.Second, HalfOpenLimit: 1})

	if !b.Allow(ts(0)) {
		t.Fatalf("expected a fresh breaker to allow")
	}

	b.RecordFailure(ts(0))
	b.RecordFailure(ts(10))
	if b.StateNow() != StateClosed {
		t.Fatalf("expected CLOSED after 2/3 failures, got %s", b.StateNow())
	}
	if !b.Allow(ts(10)) {
		t.Fatalf("expected CLOSED breaker to still allow")
	}

	b.RecordFailure(ts(20))
	if b.StateNow() != StateOpen {
		t.Fatalf("expected OPEN after 3 consecutive failures, got %s", b.StateNow())
	}
	if b.Allow(ts(25)) {
		t.Fatalf("expected OPEN breaker to refuse before ResetTimeout elapses")
	}
}

// TestBreakerHalfOpenProbeAndClose grounds OPEN -> HALF_OPEN -> CLOSED: once
// ResetTimeout has elapsed, Allow flips the breaker to half-open as a side
// effect, and a success while half-open (reaching HalfOpenLimit) closes it
// and resets the failure count.
func TestBreakerHalfOpenProbeAndClose(t *testing.T) {
	b := newBreaker(Config{MaxFailures: 1, ResetTimeout: 60 * time.Second, HalfOpenLimit: 1})

	b.RecordFailure(ts(0))
	if b.StateNow() != StateOpen {
		t.Fatalf("expected OPEN after the single configured failure, got %s", b.StateNow())
	}

	if !b.Allow(ts(61)) {
		t.Fatalf("expected Allow to probe once ResetTimeout has elapsed")
	}
	if b.StateNow() != StateHalfOpen {
		t.Fatalf("expected Allow past ResetTimeout to flip to HALF_OPEN, got %s", b.StateNow())
	}

	b.RecordSuccess()
	if b.StateNow() != StateClosed {
		t.Fatalf("expected a half-open success to close the breaker, got %s", b.StateNow())
	}

	b.RecordFailure(ts(100))
	if b.StateNow() != StateOpen {
		t.Fatalf("expected the failure counter to have reset on close, needing MaxFailures again: got %s", b.StateNow())
	}
}

// TestBreakerHalfOpenFailureReopens grounds HALF_OPEN -> OPEN: a failed
// probe while half-open reopens the breaker immediately, regardless of
// MaxFailures.
func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := newBreaker(Config{MaxFailures: 5, ResetTimeout: 60 * time.Second, HalfOpenLimit: 1})

	b.RecordFailure(ts(0))
	b.RecordFailure(ts(1))
	b.RecordFailure(ts(2))
	b.RecordFailure(ts(3))
	b.RecordFailure(ts(4))
	if b.StateNow() != StateOpen {
		t.Fatalf("expected OPEN after 5 failures, got %s", b.StateNow())
	}

	if !b.Allow(ts(65)) {
		t.Fatalf("expected the probe to be allowed once ResetTimeout elapses")
	}
	if b.StateNow() != StateHalfOpen {
		t.Fatalf("expected HALF_OPEN, got %s", b.StateNow())
	}

	b.RecordFailure(ts(66))
	if b.StateNow() != StateOpen {
		t.Fatalf("expected a failed probe to reopen immediately, got %s", b.StateNow())
	}
}

// TestRegistryTracksPerSourceState grounds the Registry's lazy per-source
// breaker wiring used by the planner: RecordOutcome(false) three times opens
// one source's breaker without affecting another's.
func TestRegistryTracksPerSourceState(t *testing.T) {
	r := NewRegistry(Config{MaxFailures: 3, ResetTimeout: 60 * time.Second, HalfOpenLimit: 1}, logging.NewNop())

	if r.State("warehouse") != StateClosed {
		t.Fatalf("expected an unseen source to report CLOSED, got %s", r.State("warehouse"))
	}

	r.RecordOutcome("warehouse", false, ts(0))
	r.RecordOutcome("warehouse", false, ts(10))
	r.RecordOutcome("warehouse", false, ts(20))
	if r.State("warehouse") != StateOpen {
		t.Fatalf("expected warehouse's breaker to open after 3 failures, got %s", r.State("warehouse"))
	}
	if r.State("external-vendor") != StateClosed {
		t.Fatalf("expected an unrelated source to remain CLOSED, got %s", r.State("external-vendor"))
	}

	if r.Allow("warehouse", ts(25)) {
		t.Fatalf("expected the open breaker to refuse before ResetTimeout elapses")
	}
}
