package tasks

import (
	"context"
	"time"
)

// DefaultPause is how long a run waits after the catalog answers 429.
const DefaultPause = 60 * time.Second

// RetryPolicy decides how rate-limited fetches are retried.
//
// MaxAttempts bounds the retries of a single release; zero retries forever.
// Delay returns the pause before retry number attempt (1-based).
type RetryPolicy struct {
	MaxAttempts int
	Delay       func(attempt int) time.Duration
}

// DefaultRetryPolicy pauses 60 seconds and retries forever.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Delay: FixedDelay(DefaultPause)}
}

// FixedDelay returns a delay function that always waits d.
func FixedDelay(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

// ExponentialDelay doubles base after every attempt, capped at maxDelay.
func ExponentialDelay(base, maxDelay time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		d := base
		for i := 1; i < attempt && d < maxDelay; i++ {
			d *= 2
		}
		return min(d, maxDelay)
	}
}

// Allows reports whether retry number attempt may run.
func (p RetryPolicy) Allows(attempt int) bool {
	return p.MaxAttempts == 0 || attempt <= p.MaxAttempts
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	if p.Delay == nil {
		return DefaultPause
	}
	return p.Delay(attempt)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
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
