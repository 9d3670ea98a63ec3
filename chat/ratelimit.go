package chat

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/ibreez3/lawbot/metrics"
)

// MinRequestInterval is the minimum spacing between two outbound request starts.
const MinRequestInterval = 1000 * time.Millisecond

// RateLimiter spaces request starts across every caller sharing the instance.
// It is a token bucket with a single token refilled once per interval, so an idle
// limiter lets the first caller through immediately and queues the rest in order.
type RateLimiter struct {
	limiter  *rate.Limiter
	interval time.Duration
	now      func() time.Time
	sleep    SleepFunc
}

func NewRateLimiter(minInterval time.Duration) *RateLimiter {
	if minInterval <= 0 {
		minInterval = MinRequestInterval
	}
	return &RateLimiter{
		limiter:  rate.NewLimiter(rate.Every(minInterval), 1),
		interval: minInterval,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// WithClock replaces the time source and sleep primitive. Intended for tests.
func (r *RateLimiter) WithClock(now func() time.Time, sleep SleepFunc) *RateLimiter {
	r.now = now
	r.sleep = sleep
	return r
}

func (r *RateLimiter) Interval() time.Duration { return r.interval }

// Acquire blocks until the caller may start its request. The slot is reserved before
// waiting, so concurrent callers are ordered and never share a slot. A cancelled wait
// returns its slot and the context error.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	now := r.now()
	res := r.limiter.ReserveN(now, 1)
	if !res.OK() {
		// Only possible with burst 0, which NewRateLimiter never builds.
		return nil
	}
	wait := res.DelayFrom(now)
	metrics.RateLimitWait.Observe(wait.Seconds())
	if wait <= 0 {
		return nil
	}
	if err := r.sleep(ctx, wait); err != nil {
		res.CancelAt(r.now())
		return err
	}
	return nil
}
