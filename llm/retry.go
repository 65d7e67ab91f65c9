package llm

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// retryConfig holds backoff parameters for opening a stream. The SDK
// client itself is also configured with option.WithMaxRetries for
// request-level retries; this wrapper additionally retries the
// stream-open call itself, since a dropped connection before the first
// event arrives looks like an ordinary error, not a mid-stream one.
type retryConfig struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func defaultRetryConfig() retryConfig {
	return retryConfig{maxRetries: 3, baseDelay: 2 * time.Second, maxDelay: 30 * time.Second}
}

// backoffDelay calculates the delay for a given attempt using exponential
// backoff with jitter.
func backoffDelay(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	delay := time.Duration(float64(baseDelay) * math.Pow(2, float64(attempt)))
	jitter := time.Duration(rand.Intn(1000)) * time.Millisecond
	delay += jitter
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// retryOpen retries a fallible open operation with exponential backoff.
// isRetryable decides whether a given error is worth retrying at all
// (network errors and 429/5xx are; authentication and validation errors
// are not).
func retryOpen[T any](ctx context.Context, cfg retryConfig, isRetryable func(error) bool, open func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt <= cfg.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt-1, cfg.baseDelay, cfg.maxDelay)
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}
		val, err := open()
		if err == nil {
			return val, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return zero, err
		}
	}
	return zero, lastErr
}
