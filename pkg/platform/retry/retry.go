// Package retry bounds optimistic-concurrency retries with exponential
// backoff. Conflicts that survive every attempt surface to the caller as
// domain Conflict errors; the system never auto-resolves them semantically.
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrRetryable marks an error as worth another attempt. Wrap store version
// mismatches with Mark before returning them from the attempt function.
var ErrRetryable = errors.New("retryable")

// Mark tags err as retryable.
func Mark(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrRetryable, err)
}

// Do runs fn up to attempts times, sleeping backoff, 2*backoff, 4*backoff...
// between tries. Non-retryable errors return immediately; the last retryable
// error is returned after the attempts are exhausted.
func Do(ctx context.Context, attempts int, backoff time.Duration, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := backoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		err = fn(ctx)
		if err == nil || !errors.Is(err, ErrRetryable) {
			return err
		}
	}
	return err
}
