package chat

import (
	"context"
	"time"
)

const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 1000 * time.Millisecond
	DefaultMaxDelay     = 8000 * time.Millisecond
)

// RetryPolicy bounds the attempt loop of a single SendMessage call.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:  DefaultMaxAttempts,
	InitialDelay: DefaultInitialDelay,
	MaxDelay:     DefaultMaxDelay,
}

// Delay is the wait after the given 1-based attempt: InitialDelay doubled per attempt,
// capped at MaxDelay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.InitialDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// BackoffDelay is DefaultRetryPolicy.Delay.
func BackoffDelay(attempt int) time.Duration {
	return DefaultRetryPolicy.Delay(attempt)
}

// SleepFunc pauses the calling goroutine for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
