package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
)

// connectWithRetry runs connect up to attempts times with a constant delay.
// Only the initial connection goes through here.
func connectWithRetry(ctx context.Context, log *logrus.Entry, what string, attempts int, delay time.Duration, connect func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	attempt := 0
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(delay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := connect(ctx); err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"attempt":      attempt,
				"max_attempts": attempts,
			}).Warnf("%s connection failed", what)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("connect to %s after %d attempts: %w", what, attempt, err)
	}
	return nil
}
