package figmadl

import (
	"context"
	"sync"
	"time"
)

// WindowLimiter implements a sliding-window rate limiter: at most maxRequests
// acquisitions are allowed within any trailing window. Unlike a token bucket
// it never lets bursts borrow against future capacity, which matches how the
// Figma API meters its clients.
type WindowLimiter struct {
	maxRequests int           // ceiling within the window
	window      time.Duration // trailing window size
	margin      time.Duration // small safety margin added to computed waits
	mu          sync.Mutex    // concurrent access protection
	stamps      []time.Time   // timestamps of retained acquisitions, oldest first
}

// NewWindowLimiter creates a new sliding-window limiter.
func NewWindowLimiter(maxRequests int, window, margin time.Duration) *WindowLimiter {
	if maxRequests <= 0 {
		panic("maxRequests must be positive")
	}
	if window <= 0 {
		panic("window must be positive")
	}
	if margin < 0 {
		margin = 0
	}

	return &WindowLimiter{
		maxRequests: maxRequests,
		window:      window,
		margin:      margin,
	}
}

// Acquire blocks until issuing one more request would not exceed the ceiling,
// then records the current timestamp as consumed and returns.
//
// The wait is an iterative wait-and-recheck loop rather than recursion: after
// sleeping, the full evaluation starts over, because elapsed time may have
// expired additional old entries and concurrent callers may have recorded new
// ones. Progress is guaranteed since the oldest entry always ages out.
func (l *WindowLimiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := time.Now()
		l.prune(now)

		if len(l.stamps) < l.maxRequests {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()
			return nil
		}

		wait := l.window - now.Sub(l.stamps[0]) + l.margin
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
			// Re-evaluate from scratch.
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// prune discards entries older than the trailing window.
// Must be called under mutex lock.
func (l *WindowLimiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[i:]...)
	}
}

// retained returns the number of timestamps currently inside the window.
func (l *WindowLimiter) retained() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(time.Now())
	return len(l.stamps)
}
