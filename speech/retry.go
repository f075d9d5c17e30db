package speech

import (
	"context"
	"fmt"
	"time"
)

// Retry defaults for network-bound operations.
const (
	DefaultRetryAttempts = 3
	DefaultRetryBase     = 500 * time.Millisecond
)

// WithRetry runs fn up to attempts times, doubling the delay between
// attempts starting from base. Exhausting the attempts returns a terminal
// error naming the operation and attempt count; context cancellation aborts
// the wait immediately.
func WithRetry(ctx context.Context, op string, attempts int, base time.Duration, fn func(context.Context) error) error {
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}
	if base <= 0 {
		base = DefaultRetryBase
	}

	var last error
	delay := base
	for attempt := 1; attempt <= attempts; attempt++ {
		last = fn(ctx)
		if last == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("speech: %s failed after %d attempts: %w", op, attempts, last)
}
