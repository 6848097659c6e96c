package speech

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy retries an attempt with exponential backoff and jitter.
// Only errors reported retriable by Retriable are attempted again.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: attempts,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
	}
}

// Do runs attempt up to MaxAttempts times. The last error is returned
// unchanged so its class survives for diagnostics.
func (p RetryPolicy) Do(ctx context.Context, attempt func(ctx context.Context) error) error {
	var err error
	for i := 1; ; i++ {
		err = attempt(ctx)
		if err == nil {
			return nil
		}
		if !Retriable(err) || i >= p.MaxAttempts {
			return err
		}

		delay := p.backoff(i)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// backoff doubles the base delay per attempt and adds up to 50% jitter so
// concurrent workers do not retry in lockstep against a rate limit.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.BaseDelay << (attempt - 1)
	if d > p.MaxDelay || d <= 0 {
		d = p.MaxDelay
	}
	return d + time.Duration(rand.Int63n(int64(d)/2+1))
}
