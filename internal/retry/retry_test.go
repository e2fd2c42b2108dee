package retry

import (
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

type recordingSleeper struct {
	delays []time.Duration
}

func (s *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func Test_Policy_AlwaysFailing_ShouldStopAfterMaxAttemptsWithLinearDelays(t *testing.T) {

	assert := assert.New(t)
	sleeper := &recordingSleeper{}
	policy := Policy{MaxAttempts: 3, Delay: Linear(2 * time.Second), Sleep: sleeper.sleep}

	calls := 0
	failure := errors.New("boom")
	err := policy.Do(context.Background(), func(_ context.Context, attempt int) error {
		calls++
		assert.Equal(calls, attempt)
		return failure
	})

	assert.ErrorIs(err, failure)
	assert.Equal(3, calls)
	assert.Equal([]time.Duration{2 * time.Second, 4 * time.Second}, sleeper.delays)
}

func Test_Policy_SucceedsOnSecondAttempt_ShouldReturnNil(t *testing.T) {

	assert := assert.New(t)
	sleeper := &recordingSleeper{}
	policy := Policy{MaxAttempts: 3, Delay: Constant(time.Second), Sleep: sleeper.sleep}

	calls := 0
	err := policy.Do(context.Background(), func(_ context.Context, attempt int) error {
		calls++
		if attempt == 1 {
			return errors.New("transient")
		}
		return nil
	})

	assert.NoError(err)
	assert.Equal(2, calls)
	assert.Len(sleeper.delays, 1)
}

func Test_Policy_NonRetryableError_ShouldNotRetry(t *testing.T) {

	assert := assert.New(t)
	permanent := errors.New("permanent")
	policy := Policy{
		MaxAttempts: 5,
		Retryable:   func(err error) bool { return !errors.Is(err, permanent) },
		Sleep:       (&recordingSleeper{}).sleep,
	}

	calls := 0
	err := policy.Do(context.Background(), func(context.Context, int) error {
		calls++
		return permanent
	})

	assert.ErrorIs(err, permanent)
	assert.Equal(1, calls)
}

func Test_Policy_CancelledContext_ShouldNotCallOperation(t *testing.T) {

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Policy{MaxAttempts: 3}.Do(ctx, func(context.Context, int) error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func Test_Policy_ContextCancelledWhileWaiting_ShouldReturnLastError(t *testing.T) {

	ctx, cancel := context.WithCancel(context.Background())
	failure := errors.New("timeout")
	policy := Policy{
		MaxAttempts: 5,
		Delay:       Constant(time.Second),
		Sleep: func(context.Context, time.Duration) error {
			cancel()
			return context.Canceled
		},
	}

	calls := 0
	err := policy.Do(ctx, func(context.Context, int) error {
		calls++
		return failure
	})

	assert.ErrorIs(t, err, failure)
	assert.Equal(t, 1, calls)
}

func Test_Policy_DefaultTimer_ShouldWaitBetweenAttempts(t *testing.T) {

	policy := Policy{MaxAttempts: 2, Delay: Constant(20 * time.Millisecond)}

	start := time.Now()
	calls := 0
	err := policy.Do(context.Background(), func(context.Context, int) error {
		calls++
		return errors.New("boom")
	})

	assert.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
