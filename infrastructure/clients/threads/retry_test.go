package threads_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayatoa/threads-auto-post-gs/infrastructure/clients/threads"
)

func TestRetryPolicy_Do(t *testing.T) {
	t.Run("stops_after_first_success", func(t *testing.T) {
		calls := 0
		err := fastRetry(3).Do(context.Background(), func(ctx context.Context) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("recovers_after_transient_failures", func(t *testing.T) {
		calls := 0
		err := fastRetry(3).Do(context.Background(), func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("final_error_propagates_unchanged", func(t *testing.T) {
		calls := 0
		final := errors.New("HTTP 500: gone for good")
		err := fastRetry(3).Do(context.Background(), func(ctx context.Context) error {
			calls++
			return final
		})
		assert.Equal(t, 3, calls)
		assert.Same(t, final, err)
	})

	t.Run("cancelled_context_stops_retrying", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		policy := threads.RetryPolicy{MaxAttempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}
		err := policy.Do(ctx, func(ctx context.Context) error {
			calls++
			cancel()
			return errors.New("failing")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestRetryPolicy_Backoff(t *testing.T) {
	policy := threads.RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    4 * time.Second,
		MaxJitter:   time.Second,
	}
	for attempt, base := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 4 * time.Second} {
		for i := 0; i < 50; i++ {
			d := policy.Backoff(attempt)
			assert.GreaterOrEqual(t, d, base, "attempt %d", attempt)
			assert.Less(t, d, base+time.Second, "attempt %d", attempt)
		}
	}
}
