package secfetch

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// IntervalLimiter enforces a minimum interval between consecutive fetches
// by blocking the calling goroutine until the next slot opens. It is a
// token bucket with burst 1, so two calls can never be closer together
// than 1/callsPerSecond. The slot is consumed before the network attempt;
// a failing call therefore still uses its slot and cannot bypass the limit
// by retrying immediately.
//
// Each Fetcher owns its limiter, so independent Fetchers (one per external
// account) never share a throttling budget.
type IntervalLimiter struct {
	limiter *rate.Limiter
}

// NewIntervalLimiter creates a limiter admitting callsPerSecond fetches.
// callsPerSecond <= 0 disables throttling.
func NewIntervalLimiter(callsPerSecond float64) *IntervalLimiter {
	if callsPerSecond <= 0 {
		return &IntervalLimiter{}
	}
	return &IntervalLimiter{
		limiter: rate.NewLimiter(rate.Limit(callsPerSecond), 1),
	}
}

// Wait blocks until the next slot is available or ctx is done.
func (l *IntervalLimiter) Wait(ctx context.Context) error {
	if l == nil || l.limiter == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}

// Interval returns the minimum spacing between two admitted calls.
func (l *IntervalLimiter) Interval() time.Duration {
	if l == nil || l.limiter == nil {
		return 0
	}
	limit := l.limiter.Limit()
	if limit <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(limit))
}
