package library

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Retry defaults. Backoff is aggressive (factor 3) because the caller is a
// blocking sync pass that should either recover quickly or give up and
// queue the failure for later.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 500 * time.Millisecond
	backoffFactor      = 3.0
)

// Retrier wraps remote operations with retry and exponential backoff.
// Retryable failures (see IsRetryable) are attempted up to MaxAttempts
// times with a delay of BaseDelay * 3^attempt (0-indexed) between
// attempts. Non-retryable errors return immediately on first occurrence.
// Exhausting all attempts returns the final error to the caller.
type Retrier struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      *slog.Logger

	// sleepFunc is called to wait between attempts. Defaults to timeSleep.
	// Tests override this to avoid real delays.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// NewRetrier creates a Retrier with the default attempt count and base delay.
func NewRetrier(logger *slog.Logger) *Retrier {
	if logger == nil {
		logger = slog.Default()
	}

	return &Retrier{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Logger:      logger,
		sleepFunc:   timeSleep,
	}
}

// Do runs fn, retrying transient failures. op names the operation for logs.
func (r *Retrier) Do(ctx context.Context, op string, fn func() error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	sleep := r.sleepFunc
	if sleep == nil {
		sleep = timeSleep
	}

	var lastErr error

	for attempt := range attempts {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !IsRetryable(lastErr) {
			return lastErr
		}

		if attempt == attempts-1 {
			break
		}

		backoff := r.backoff(attempt)
		r.Logger.Warn("retrying after transient error",
			slog.String("op", op),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", backoff),
			slog.String("error", lastErr.Error()),
		)

		if err := sleep(ctx, backoff); err != nil {
			return fmt.Errorf("library: %s canceled: %w", op, err)
		}
	}

	return fmt.Errorf("library: %s failed after %d attempts: %w", op, attempts, lastErr)
}

// backoff computes the delay before the next attempt: BaseDelay * 3^attempt.
func (r *Retrier) backoff(attempt int) time.Duration {
	return time.Duration(float64(r.BaseDelay) * math.Pow(backoffFactor, float64(attempt)))
}

// timeSleep waits for the given duration or until the context is canceled.
// It is the default sleepFunc for Retrier.
func timeSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
