package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleRateLimiter(t *testing.T) {
	t.Run("first call passes immediately", func(t *testing.T) {
		r := NewSimpleRateLimiter(100*time.Millisecond, 100*time.Millisecond)

		start := time.Now()
		require.NoError(t, r.Wait(context.Background()))
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("second call waits out the delay", func(t *testing.T) {
		r := NewSimpleRateLimiter(50*time.Millisecond, 50*time.Millisecond)

		require.NoError(t, r.Wait(context.Background()))
		start := time.Now()
		require.NoError(t, r.Wait(context.Background()))
		assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	})

	t.Run("wait honors context cancellation", func(t *testing.T) {
		r := NewSimpleRateLimiter(5*time.Second, 5*time.Second)
		require.NoError(t, r.Wait(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := r.Wait(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("jittered delay stays inside the bounds", func(t *testing.T) {
		r := NewSimpleRateLimiter(100*time.Millisecond, 300*time.Millisecond)

		for i := 0; i < 20; i++ {
			d := r.calculateDelay()
			assert.GreaterOrEqual(t, d, 100*time.Millisecond)
			assert.Less(t, d, 300*time.Millisecond)
		}
	})
}

func TestAdaptiveRateLimiter(t *testing.T) {
	t.Run("backs off after repeated errors", func(t *testing.T) {
		a := NewAdaptiveRateLimiter(2*time.Second, 4*time.Second)

		for i := 0; i < 3; i++ {
			a.RecordError()
		}

		assert.Equal(t, 3*time.Second, a.minDelay)
		assert.Equal(t, 6*time.Second, a.maxDelay)
	})

	t.Run("a success resets the error streak", func(t *testing.T) {
		a := NewAdaptiveRateLimiter(2*time.Second, 4*time.Second)

		a.RecordError()
		a.RecordError()
		a.RecordSuccess()
		a.RecordError()

		assert.Equal(t, 2*time.Second, a.minDelay)
	})

	t.Run("sustained success speeds back up", func(t *testing.T) {
		a := NewAdaptiveRateLimiter(10*time.Second, 20*time.Second)

		for i := 0; i < 6; i++ {
			a.RecordSuccess()
		}

		assert.Equal(t, 9*time.Second, a.minDelay)
	})

	t.Run("backoff is capped", func(t *testing.T) {
		a := NewAdaptiveRateLimiter(50*time.Second, 110*time.Second)

		for i := 0; i < 3; i++ {
			a.RecordError()
		}

		assert.Equal(t, 60*time.Second, a.minDelay)
		assert.Equal(t, 120*time.Second, a.maxDelay)
	})
}
