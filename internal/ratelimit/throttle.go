package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Throttle enforces a minimum delay between consecutive calls to a
// rate-limited service. The delay is measured from the end of the previous
// call, so slow calls do not eat into the gap. Callers are serialized: at most
// one call is in flight at any time, no matter how many goroutines share the
// throttle.
type Throttle struct {
	sem      chan struct{} // one slot; held for the duration of a call
	mu       sync.Mutex
	lastDone time.Time
	minDelay time.Duration
	now      func() time.Time
}

// NewThrottle creates a throttle that enforces minDelay between the end of
// one call and the start of the next.
func NewThrottle(minDelay time.Duration) *Throttle {
	return &Throttle{
		sem:      make(chan struct{}, 1),
		minDelay: minDelay,
		now:      time.Now,
	}
}

// Do waits for its turn, runs fn and records the completion time whether fn
// failed or not. Returns fn's error, or the context error if ctx ends while
// waiting.
func (t *Throttle) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	select {
	case t.sem <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("throttle wait: %w", ctx.Err())
	}
	defer func() { <-t.sem }()

	t.mu.Lock()
	last := t.lastDone
	t.mu.Unlock()

	if !last.IsZero() {
		if remaining := t.minDelay - t.now().Sub(last); remaining > 0 {
			timer := time.NewTimer(remaining)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("throttle wait: %w", ctx.Err())
			case <-timer.C:
			}
		}
	}

	err := fn(ctx)

	t.mu.Lock()
	t.lastDone = t.now()
	t.mu.Unlock()

	return err
}

// lastCall returns the completion time of the most recent call, zero if none.
func (t *Throttle) lastCall() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastDone
}
