package retry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "weibograb/pkg/errors"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return nil
	}, &Config{MaxAttempts: 3, Backoff: NewConstantBackoff(0)})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		if calls < 3 {
			return errs.New(errs.ErrorTypeNetwork, 0, "connection reset")
		}
		return nil
	}, &Config{MaxAttempts: 3, Backoff: NewConstantBackoff(time.Millisecond), RetryIf: DefaultRetryIf})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	calls := 0
	authErr := errs.New(errs.ErrorTypeAuth, 401, "session expired")
	err := Do(func() error {
		calls++
		return authErr
	}, &Config{MaxAttempts: 3, Backoff: NewConstantBackoff(0), RetryIf: DefaultRetryIf})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	var apiErr *errs.Error
	assert.True(t, errors.As(err, &apiErr))
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	var delays []time.Duration
	err := Do(func() error {
		calls++
		return errs.New(errs.ErrorTypeNetwork, 0, "timeout")
	}, &Config{
		MaxAttempts: 3,
		Backoff:     NewConstantBackoff(time.Millisecond),
		RetryIf:     DefaultRetryIf,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			delays = append(delays, delay)
		},
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, delays, 2)
	assert.Contains(t, err.Error(), "all 3 attempts failed")
}

func TestConstantBackoff(t *testing.T) {
	cb := NewConstantBackoff(2 * time.Second)
	assert.Equal(t, 2*time.Second, cb.NextDelay(1))
	assert.Equal(t, 2*time.Second, cb.NextDelay(5))
	assert.Equal(t, time.Duration(0), cb.NextDelay(0))
}

func TestExponentialBackoffCapsAtMax(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:  time.Second,
		MaxDelay:   4 * time.Second,
		Multiplier: 2.0,
	}
	assert.Equal(t, time.Second, eb.NextDelay(1))
	assert.Equal(t, 2*time.Second, eb.NextDelay(2))
	assert.Equal(t, 4*time.Second, eb.NextDelay(3))
	assert.Equal(t, 4*time.Second, eb.NextDelay(10))
}
