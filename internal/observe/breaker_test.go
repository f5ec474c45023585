package observe

import (
	"testing"
	"time"
)

func TestBreaker_TripsAtThresholdWithinWindow(t *testing.T) {
	clock := time.Unix(1000, 0)
	b := NewBreakerWithClock(3, time.Minute, func() time.Time { return clock })

	if b.RecordFailure() {
		t.Fatal("tripped after 1 failure")
	}
	clock = clock.Add(10 * time.Second)
	if b.RecordFailure() {
		t.Fatal("tripped after 2 failures")
	}
	clock = clock.Add(10 * time.Second)
	if !b.RecordFailure() {
		t.Fatal("expected trip at threshold")
	}
	if !b.Disabled() {
		t.Fatal("breaker should stay disabled")
	}
}

func TestBreaker_OldFailuresExpire(t *testing.T) {
	clock := time.Unix(1000, 0)
	b := NewBreakerWithClock(3, time.Minute, func() time.Time { return clock })

	b.RecordFailure()
	b.RecordFailure()
	// Both fall out of the window before the next failure.
	clock = clock.Add(2 * time.Minute)
	if b.RecordFailure() {
		t.Fatal("expired failures must not count toward the threshold")
	}
	if b.Disabled() {
		t.Fatal("breaker should still be enabled")
	}
}

func TestBreaker_NeverReenables(t *testing.T) {
	clock := time.Unix(1000, 0)
	b := NewBreakerWithClock(1, time.Minute, func() time.Time { return clock })

	if !b.RecordFailure() {
		t.Fatal("expected immediate trip with threshold 1")
	}
	clock = clock.Add(24 * time.Hour)
	if !b.Disabled() {
		t.Fatal("breaker must stay disabled for the process lifetime")
	}
}
