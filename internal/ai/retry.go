package ai

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig holds retry configuration for Anthropic API calls.
type RetryConfig struct {
	MaxRetries         int           // maximum attempts (default: 3)
	InitialBackoff     time.Duration // first backoff (default: 1s)
	MaxBackoff         time.Duration // backoff cap (default: 30s)
	BackoffMultiplier  float64       // backoff growth (default: 2.0)
	Timeout            time.Duration // per-attempt timeout (default: 60s)
	MaxConcurrentCalls int           // concurrent call cap (default: 3)
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:         3,
		InitialBackoff:     1 * time.Second,
		MaxBackoff:         30 * time.Second,
		BackoffMultiplier:  2.0,
		Timeout:            60 * time.Second,
		MaxConcurrentCalls: 3,
	}
}

// retryWithBackoff runs fn with exponential backoff, respecting the
// circuit breaker on every attempt.
func (s *Scorer) retryWithBackoff(ctx context.Context, fn func(context.Context) error) error {
	backoff := s.retry.InitialBackoff

	var lastErr error
	for attempt := 1; attempt <= s.retry.MaxRetries; attempt++ {
		if s.breaker != nil {
			if err := s.breaker.Allow(); err != nil {
				return err
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, s.retry.Timeout)
		err := fn(attemptCtx)
		cancel()

		if err == nil {
			if s.breaker != nil {
				s.breaker.RecordSuccess()
			}
			return nil
		}
		lastErr = err
		if s.breaker != nil {
			s.breaker.RecordFailure()
		}

		if attempt == s.retry.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * s.retry.BackoffMultiplier)
		if backoff > s.retry.MaxBackoff {
			backoff = s.retry.MaxBackoff
		}
	}

	return fmt.Errorf("after %d attempts: %w", s.retry.MaxRetries, lastErr)
}
