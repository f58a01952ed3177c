package retry

import (
	"context"
	"math/rand"
	"time"
)

// Policy bounds a retry loop: how many total attempts, the base used for
// exponential backoff, and the upper bound on the random jitter added to
// each delay.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxJitter   time.Duration
}

// Do runs op up to p.MaxAttempts times. A failed attempt is retried only if
// retryable reports the error as transient; otherwise the error propagates
// immediately. Between attempts Do sleeps base*2^(attempt-1) plus jitter,
// honoring context cancellation. The last error is returned when the attempt
// budget is exhausted.
func Do(ctx context.Context, p Policy, retryable func(error) bool, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if retryable == nil || !retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, p.delay(attempt)); err != nil {
			return err
		}
	}
	return lastErr
}

func (p Policy) delay(attempt int) time.Duration {
	d := p.BaseDelay * time.Duration(1<<uint(attempt-1))
	if p.MaxJitter > 0 {
		d += time.Duration(rand.Int63n(int64(p.MaxJitter)))
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
