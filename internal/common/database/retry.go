// internal/common/database/retry.go
package database

import (
	"context"
	"fmt"
	"time"

	"ticket-triage/internal/common/logger"
)

// Pinger is any backend that can confirm it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WaitFor pings p until it answers, doubling the delay after each failure.
func WaitFor(ctx context.Context, name string, p Pinger, maxRetries int, initialDelay time.Duration, log logger.Logger) error {
	delay := initialDelay
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = p.Ping(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt == maxRetries {
			break
		}

		log.Warn(fmt.Sprintf("%s not reachable, retrying", name), map[string]interface{}{
			"attempt":     attempt,
			"maxRetries":  maxRetries,
			"nextRetryIn": delay.String(),
			"error":       err.Error(),
		})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("%s unreachable after %d attempts: %w", name, maxRetries, err)
}
