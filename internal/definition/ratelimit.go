package definition

import (
	"context"
	"sync"
	"time"
)

// RateLimiter enforces a minimum interval between calls to each source.
// Callers for the same source serialize through that source's lock for
// the whole wait-and-record step, so two callers can never both observe
// a stale last-call time. Different sources never block each other.
type RateLimiter struct {
	mu      sync.Mutex
	sources map[string]*sourceLimiter

	now func() time.Time
}

type sourceLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
}

// NewRateLimiter creates an empty RateLimiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		sources: make(map[string]*sourceLimiter),
		now:     time.Now,
	}
}

// Wait blocks until at least minInterval has passed since the previous
// call for source, then records the current time as the new last-call
// time. Returns early with ctx.Err() if the context is cancelled while
// waiting; the last-call time is not updated in that case.
func (l *RateLimiter) Wait(ctx context.Context, source string, minInterval time.Duration) error {
	s := l.limiterFor(source)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lastCall.IsZero() {
		if wait := minInterval - l.now().Sub(s.lastCall); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	s.lastCall = l.now()
	return nil
}

func (l *RateLimiter) limiterFor(source string) *sourceLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sources[source]
	if !ok {
		s = &sourceLimiter{}
		l.sources[source] = s
	}
	return s
}
