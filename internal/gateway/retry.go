package gateway

import (
	"context"
	"log"
	"math"
	"math/rand"
	"time"
)

// RetryConfig configures retry behavior for read requests.
type RetryConfig struct {
	MaxRetries int           // Maximum number of retry attempts (default: 3)
	BaseDelay  time.Duration // Initial delay between retries (default: 100ms)
	MaxDelay   time.Duration // Maximum delay between retries (default: 5s)
	Multiplier float64       // Delay multiplier for exponential backoff (default: 2.0)
	EnableLog  bool          // Whether to log retry attempts
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2.0,
		EnableLog:  true,
	}
}

// withRetry reissues fn on retryable failures with exponential backoff.
// Only reads go through here: mutations and the verification probe are
// at-most-once, so a 401 is never masked by a retry.
func withRetry(ctx context.Context, operation string, cfg RetryConfig, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := fn(ctx)
		if err == nil {
			if attempt > 0 && cfg.EnableLog {
				log.Printf("[gateway] %s succeeded on attempt %d", operation, attempt+1)
			}
			return nil
		}

		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if attempt < cfg.MaxRetries {
			delay := backoffDelay(attempt, cfg)
			if cfg.EnableLog {
				log.Printf("[gateway] %s attempt %d failed (%v), retrying in %v", operation, attempt+1, err, delay)
			}

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	if cfg.EnableLog {
		log.Printf("[gateway] %s: all %d attempts failed", operation, cfg.MaxRetries+1)
	}
	return lastErr
}

// backoffDelay computes the delay for the given attempt using exponential
// backoff with jitter in [0.8, 1.2) of the nominal delay.
func backoffDelay(attempt int, cfg RetryConfig) time.Duration {
	delay := float64(cfg.BaseDelay) * math.Pow(cfg.Multiplier, float64(attempt))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}

	jitter := 0.8 + rand.Float64()*0.4
	return time.Duration(delay * jitter)
}
