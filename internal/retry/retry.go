package retry

import (
	"context"
	retrygo "github.com/avast/retry-go/v4"
	"time"
)

// Policy describes a bounded retry loop. Attempts are numbered from 1.
type Policy struct {
	MaxAttempts int
	// Delay returns the pause before the attempt that follows the given failed attempt.
	Delay func(attempt int) time.Duration
	// Retryable reports whether a failed attempt may be retried. Nil means every error is retryable.
	Retryable func(err error) bool
	// Sleep waits for d or until ctx is done. Nil means the retry-go timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Linear returns a delay function growing as base * attempt.
func Linear(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return base * time.Duration(attempt)
	}
}

// Constant returns a delay function that always waits d.
func Constant(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration {
		return d
	}
}

// Do runs op until it succeeds, returns a non-retryable error, the attempts are exhausted or ctx is done.
// The last error of op is returned, ctx.Err() only when op never ran.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) error {

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	attempt := 0
	var lastErr error

	options := []retrygo.Option{
		retrygo.Context(ctx),
		retrygo.Attempts(uint(attempts)),
		retrygo.LastErrorOnly(true),
		retrygo.RetryIf(func(err error) bool {
			if !retrygo.IsRecoverable(err) {
				return false
			}
			return p.Retryable == nil || p.Retryable(err)
		}),
		retrygo.DelayType(func(uint, error, *retrygo.Config) time.Duration {
			if p.Delay == nil {
				return 0
			}
			return p.Delay(attempt)
		}),
	}
	if p.Sleep != nil {
		options = append(options, retrygo.WithTimer(&sleepTimer{ctx: ctx, sleep: p.Sleep}))
	}

	err := retrygo.Do(func() error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return retrygo.Unrecoverable(ctxErr)
		}
		attempt++
		lastErr = op(ctx, attempt)
		return lastErr
	}, options...)

	if err == nil {
		return nil
	}
	if lastErr != nil {
		return lastErr
	}
	return err
}

// sleepTimer adapts a sleep function to the retry-go timer. The channel always fires, a cancelled ctx is
// noticed before the next attempt.
type sleepTimer struct {
	ctx   context.Context
	sleep func(ctx context.Context, d time.Duration) error
}

func (t *sleepTimer) After(d time.Duration) <-chan time.Time {
	fired := make(chan time.Time, 1)
	_ = t.sleep(t.ctx, d)
	fired <- time.Now()
	return fired
}
