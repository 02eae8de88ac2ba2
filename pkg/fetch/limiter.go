package fetch

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	// DefaultMaxConcurrent bounds in-flight outbound requests.
	DefaultMaxConcurrent = 10
	// DefaultMinDelay is the minimum spacing between request starts.
	DefaultMinDelay = 100 * time.Millisecond
)

// Limiter bounds concurrent outbound requests and enforces a minimum
// inter-request delay. Each Limiter is owned by one client; there is no
// process-wide instance. Release must be called exactly once per
// successful Acquire, including on error paths.
type Limiter struct {
	sem     *semaphore.Weighted
	spacing *rate.Limiter
}

// NewLimiter builds a limiter. Non-positive maxConcurrent falls back to
// DefaultMaxConcurrent; a zero minDelay disables spacing.
func NewLimiter(maxConcurrent int, minDelay time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	spacing := rate.NewLimiter(rate.Inf, 1)
	if minDelay > 0 {
		spacing = rate.NewLimiter(rate.Every(minDelay), 1)
	}
	return &Limiter{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		spacing: spacing,
	}
}

// Acquire blocks until a request slot is free and the inter-request
// spacing has elapsed, or ctx is done. Spacing is measured from the
// previous request's start, not its completion.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	if err := l.spacing.Wait(ctx); err != nil {
		l.sem.Release(1)
		return err
	}
	return nil
}

// Release frees a slot taken by Acquire. It never blocks.
func (l *Limiter) Release() {
	l.sem.Release(1)
}
