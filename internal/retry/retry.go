// Package retry provides bounded retries with exponential backoff for the
// external adapters (model calls, subtitle downloads).
package retry

import (
	"context"
	"fmt"
	"time"
)

// Do runs op up to attempts times, sleeping baseDelay, 2*baseDelay,
// 4*baseDelay... between failures. The context cancels the wait.
func Do(ctx context.Context, attempts int, baseDelay time.Duration, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if lastErr = op(); lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(baseDelay << uint(attempt)):
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
