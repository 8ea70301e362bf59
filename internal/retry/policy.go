package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/amishk599/jobharvest/internal/model"
)

// Policy describes how many times a failed call is retried and how long to
// wait between attempts. The zero value never retries.
type Policy struct {
	MaxRetries int           // additional attempts after the first failure
	BaseDelay  time.Duration // delay before the first retry, doubled each time
}

// Attempts returns the total number of calls the policy allows.
func (p Policy) Attempts() int {
	return 1 + max(p.MaxRetries, 0)
}

// Backoff computes the delay before the given retry attempt (1-based) with
// ±30% jitter. If err carries a Retry-After duration (HTTP 429), that takes
// precedence.
func (p Policy) Backoff(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	// Exponential: baseDelay * 2^(attempt-1)
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// Retryable returns true if the error represents a transient failure worth
// retrying.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	// Context cancellation: never retry.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == 429 || httpErr.StatusCode >= 500 {
			return true
		}
		// 4xx (not 429): not retryable.
		return false
	}

	// Non-HTTP errors (network, DNS, etc.): retryable.
	return true
}
