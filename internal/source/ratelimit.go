package source

import (
	"context"
	"sync"
	"time"
)

// intervalLimiter spaces calls at least every apart. The zero interval
// never waits.
type intervalLimiter struct {
	mu    sync.Mutex
	last  time.Time
	every time.Duration
}

func newIntervalLimiter(every time.Duration) *intervalLimiter {
	return &intervalLimiter{every: every}
}

// Wait blocks until the next call is allowed or ctx is done.
func (r *intervalLimiter) Wait(ctx context.Context) error {
	if r.every <= 0 {
		return ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.last.IsZero() {
		if wait := r.every - time.Since(r.last); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
	}
	r.last = time.Now()
	return nil
}
