package fallback

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Policy is what Acquire does when a window's quota is used up.
type Policy int

const (
	// PolicyWait suspends the caller until the window resets.
	PolicyWait Policy = iota
	// PolicyFail rejects the call with ErrDailyBudgetExhausted.
	PolicyFail
)

// Window is a quota over a fixed-size time window.
type Window struct {
	Size   time.Duration
	Quota  int
	Policy Policy
}

// PerMinute allows quota calls per minute and waits when exceeded.
func PerMinute(quota int) Window {
	return Window{Size: time.Minute, Quota: quota, Policy: PolicyWait}
}

// PerDay allows quota calls per 24 hours and fails when exceeded.
func PerDay(quota int) Window {
	return Window{Size: 24 * time.Hour, Quota: quota, Policy: PolicyFail}
}

type windowState struct {
	Window
	count   int
	resetAt time.Time
}

// RateLimiter enforces every configured window at one chokepoint.
// Counters reset lazily on the first Acquire after a window elapses.
type RateLimiter struct {
	mu      sync.Mutex
	windows []*windowState
	now     func() time.Time
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) RateLimiterOption {
	return func(l *RateLimiter) {
		l.now = now
	}
}

// NewRateLimiter builds a limiter over the given windows. Windows with a non-positive quota are ignored.
func NewRateLimiter(windows []Window, opts ...RateLimiterOption) *RateLimiter {
	l := &RateLimiter{now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	for _, w := range windows {
		if w.Quota <= 0 || w.Size <= 0 {
			continue
		}
		l.windows = append(l.windows, &windowState{Window: w})
	}
	return l
}

// Acquire takes one unit from every window. It blocks while a wait-policy window is full and
// returns ErrDailyBudgetExhausted as soon as a fail-policy window is full.
func (l *RateLimiter) Acquire(ctx context.Context) error {
	for {
		wait, err := l.tryAcquire()
		if err != nil || wait == 0 {
			return err
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// tryAcquire returns how long to sleep before retrying, or zero once a unit was taken.
func (l *RateLimiter) tryAcquire() (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for _, w := range l.windows {
		if w.resetAt.IsZero() || !now.Before(w.resetAt) {
			w.count = 0
			w.resetAt = now.Add(w.Size)
		}
	}

	for _, w := range l.windows {
		if w.Policy == PolicyFail && w.count >= w.Quota {
			return 0, fmt.Errorf("%w: %d calls per %s, resets at %s",
				ErrDailyBudgetExhausted, w.Quota, w.Size, w.resetAt.Format(time.RFC3339))
		}
	}

	var wait time.Duration
	for _, w := range l.windows {
		if w.Policy == PolicyWait && w.count >= w.Quota {
			if d := w.resetAt.Sub(now); d > wait {
				wait = d
			}
		}
	}
	if wait > 0 {
		return wait, nil
	}

	for _, w := range l.windows {
		w.count++
	}
	return 0, nil
}

// Remaining reports the units left in each window, in configuration order.
func (l *RateLimiter) Remaining() []int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	out := make([]int, len(l.windows))
	for i, w := range l.windows {
		if w.resetAt.IsZero() || !now.Before(w.resetAt) {
			out[i] = w.Quota
			continue
		}
		out[i] = w.Quota - w.count
	}
	return out
}
