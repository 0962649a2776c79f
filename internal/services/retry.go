package services

import (
	"context"
	"fmt"
	"time"

	"github.com/justsurfingit/InternConnect/internal/logging"
)

// retryBackoff is the first delay between attempts against external APIs.
var retryBackoff = time.Second

// retry executes a function with exponential backoff
func retry(ctx context.Context, attempts int, sleep time.Duration, f func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = f(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		logging.L.Warn("⚠️ API Error, retrying", "error", err, "in", sleep)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
		sleep *= 2
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, err)
}
