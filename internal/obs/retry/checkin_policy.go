package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultCheckinStep is the base of the linear backoff between account attempts.
const DefaultCheckinStep = 2 * time.Second

func CheckinPolicy(log *zap.Logger, attempts int, step time.Duration, retryable func(error) bool) Policy {
	return Policy{
		Name:      "checkin",
		Attempts:  attempts,
		Backoff:   Linear{Step: step},
		Retryable: retryable,
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("checkin attempt failed", zap.Int("attempt", i+1), zap.Int("max_attempts", attempts), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("checkin retries exhausted", zap.Error(err))
			}
		},
	}
}
