package chat

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"
)

// fakeClock advances only when something sleeps on it.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.slept = append(c.slept, d)
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRateLimiter_FirstAcquireDoesNotWait(t *testing.T) {
	clock := newFakeClock()
	l := NewRateLimiter(time.Second).WithClock(clock.Now, clock.Sleep)

	if err := l.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(clock.slept) != 0 {
		t.Fatalf("expected no wait, got %v", clock.slept)
	}
}

func TestRateLimiter_BackToBackAcquiresAreSpaced(t *testing.T) {
	clock := newFakeClock()
	l := NewRateLimiter(MinRequestInterval).WithClock(clock.Now, clock.Sleep)

	var starts []time.Time
	for i := 0; i < 4; i++ {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatal(err)
		}
		starts = append(starts, clock.Now())
	}
	for i := 1; i < len(starts); i++ {
		if gap := starts[i].Sub(starts[i-1]); gap < MinRequestInterval {
			t.Fatalf("acquire %d started %v after the previous one", i, gap)
		}
	}
}

func TestRateLimiter_PartialWait(t *testing.T) {
	clock := newFakeClock()
	l := NewRateLimiter(time.Second).WithClock(clock.Now, clock.Sleep)

	_ = l.Acquire(context.Background())
	clock.Advance(300 * time.Millisecond)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(clock.slept) != 1 || clock.slept[0] != 700*time.Millisecond {
		t.Fatalf("expected a single 700ms wait, got %v", clock.slept)
	}
}

func TestRateLimiter_IdleLimiterDoesNotWait(t *testing.T) {
	clock := newFakeClock()
	l := NewRateLimiter(time.Second).WithClock(clock.Now, clock.Sleep)

	_ = l.Acquire(context.Background())
	clock.Advance(5 * time.Second)
	_ = l.Acquire(context.Background())
	if len(clock.slept) != 0 {
		t.Fatalf("expected no wait after idling, got %v", clock.slept)
	}
}

func TestRateLimiter_CancelledWaitReleasesSlot(t *testing.T) {
	clock := newFakeClock()
	l := NewRateLimiter(time.Second).WithClock(clock.Now, clock.Sleep)

	_ = l.Acquire(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Acquire(ctx); err == nil {
		t.Fatal("expected cancellation error")
	}

	// The cancelled caller never started a request, so the next one only waits
	// for the remainder of the first interval.
	clock.Advance(time.Second)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(clock.slept) != 0 {
		t.Fatalf("expected no wait, got %v", clock.slept)
	}
}

func TestRateLimiter_ConcurrentCallersRealTime(t *testing.T) {
	if testing.Short() {
		t.Skip("uses wall-clock sleeps")
	}
	const interval = 100 * time.Millisecond
	const tolerance = 15 * time.Millisecond
	l := NewRateLimiter(interval)

	var (
		mu     sync.Mutex
		starts []time.Time
		wg     sync.WaitGroup
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background()); err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			starts = append(starts, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	total := starts[len(starts)-1].Sub(starts[0])
	if total < 3*interval-tolerance {
		t.Fatalf("4 acquires finished within %v, expected at least %v", total, 3*interval)
	}
	for i := 1; i < len(starts); i++ {
		if gap := starts[i].Sub(starts[i-1]); gap < interval-tolerance {
			t.Fatalf("acquire %d started %v after the previous one", i, gap)
		}
	}
}
