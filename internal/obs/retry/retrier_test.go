package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) Policy {
	return Policy{
		Name:     "test",
		Attempts: attempts,
		Backoff:  ExpoJitter{Base: time.Millisecond, Max: 5 * time.Millisecond},
	}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, fastPolicy(5))

	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	boom := errors.New("permanent")
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return boom
	}, fastPolicy(4))

	require.ErrorIs(t, err, boom)
	require.Equal(t, 4, calls)
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	p := fastPolicy(5)
	p.Retryable = func(err error) bool { return !errors.Is(err, context.Canceled) }

	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return context.Canceled
	}, p)

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestDo_GiveUpCountersAreSeparate(t *testing.T) {
	boom := errors.New("permanent")

	p := fastPolicy(3)
	p.Name = "separate-exhausted"
	err := Do(context.Background(), func() error { return boom }, p)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1.0, testutil.ToFloat64(retryExhausted.WithLabelValues("separate-exhausted")))
	require.Equal(t, 0.0, testutil.ToFloat64(retryAbandoned.WithLabelValues("separate-exhausted")))

	p = fastPolicy(3)
	p.Name = "separate-abandoned"
	p.Retryable = func(err error) bool { return false }
	err = Do(context.Background(), func() error { return boom }, p)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1.0, testutil.ToFloat64(retryAbandoned.WithLabelValues("separate-abandoned")))
	require.Equal(t, 0.0, testutil.ToFloat64(retryExhausted.WithLabelValues("separate-abandoned")))
}

func TestDo_ContextCancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p := Policy{
		Name:     "test",
		Attempts: 3,
		Backoff:  ExpoJitter{Base: time.Minute},
	}
	err := Do(ctx, func() error {
		cancel()
		return errors.New("transient")
	}, p)

	require.ErrorIs(t, err, context.Canceled)
}

func TestExpoJitter_Next(t *testing.T) {
	b := ExpoJitter{Base: 100 * time.Millisecond, Max: time.Second}

	require.Equal(t, 100*time.Millisecond, b.Next(0))
	require.Equal(t, 400*time.Millisecond, b.Next(2))
	require.Equal(t, time.Second, b.Next(10), "capped at Max")
}
