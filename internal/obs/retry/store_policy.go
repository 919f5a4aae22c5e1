package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// StorePolicy covers transient store failures on the consumer path:
// retried locally with backoff, never surfaced outside the process.
func StorePolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "store",
		Attempts: 6,
		Backoff:  ExpoJitter{Base: 200 * time.Millisecond, Max: 30 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("store retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("store retries exhausted", zap.Error(err))
			}
		},
	}
}
