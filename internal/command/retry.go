package command

import (
	"context"
	"time"

	"github.com/ytget/dlcore/internal/command/errs"
)

// retryConfig mirrors the original's RetryConfig::default(): three attempts,
// starting at a one-second delay, doubling after each failure, capped at
// thirty seconds.
type retryConfig struct {
	maxAttempts       int
	initialDelay      time.Duration
	maxDelay          time.Duration
	backoffMultiplier float64
}

func defaultRetryConfig() retryConfig {
	return retryConfig{
		maxAttempts:       3,
		initialDelay:      1 * time.Second,
		maxDelay:          30 * time.Second,
		backoffMultiplier: 2.0,
	}
}

// withNetworkRetry retries operation with exponential backoff, grounded on
// error_handler.rs::retry_with_backoff. Only a failure classified
// errs.NetworkError is retried; every other error, and whatever the final
// attempt returns, is passed straight back to the caller.
func withNetworkRetry(ctx context.Context, operation func() error) error {
	cfg := defaultRetryConfig()
	delay := cfg.initialDelay

	var err error
	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		err = operation()
		if err == nil {
			return nil
		}

		e, ok := errs.As(err)
		if !ok || e.Kind != errs.NetworkError || attempt == cfg.maxAttempts {
			return err
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return err
		}

		delay = time.Duration(float64(delay) * cfg.backoffMultiplier)
		if delay > cfg.maxDelay {
			delay = cfg.maxDelay
		}
	}
	return err
}
