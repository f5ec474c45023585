package observe

import (
	"sync"
	"time"
)

// Breaker disables observability export for the remainder of the process
// lifetime once the failure count inside the rolling window reaches the
// threshold. It never re-enables.
type Breaker struct {
	mu        sync.Mutex
	threshold int
	window    time.Duration
	now       func() time.Time
	failures  []time.Time
	disabled  bool
}

func NewBreaker(threshold int, window time.Duration) *Breaker {
	return NewBreakerWithClock(threshold, window, time.Now)
}

func NewBreakerWithClock(threshold int, window time.Duration, now func() time.Time) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &Breaker{threshold: threshold, window: window, now: now}
}

// RecordFailure registers one failure and reports whether the breaker is
// now (or already was) tripped.
func (b *Breaker) RecordFailure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disabled {
		return true
	}
	now := b.now()
	cutoff := now.Add(-b.window)
	kept := b.failures[:0]
	for _, ts := range b.failures {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	b.failures = append(kept, now)
	if len(b.failures) >= b.threshold {
		b.disabled = true
	}
	return b.disabled
}

func (b *Breaker) Disabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disabled
}
