package fs

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"time"
)

// Retry with exponential backoff for operations that can fail
// transiently (a writer briefly holding the file, a laggy network
// mount). Permanent errors fail immediately.

func retry(ctx context.Context, opName string, fn func() error) error {
	const maxRetries = 5
	base := 100 * time.Millisecond

	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if !isTransient(err) {
			return fmt.Errorf("%s failed permanently: %w", opName, err)
		}

		if attempt == maxRetries {
			break
		}

		time.Sleep(base * (1 << (attempt - 1)))
	}

	return fmt.Errorf("%s failed after %d retries: %w", opName, maxRetries, lastErr)
}

func isTransient(err error) bool {
	if errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}
	// a copy aborted because the source moved underneath it is worth
	// another attempt
	return errors.Is(err, errSourceChanged)
}
