package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amishk599/jobharvest/internal/model"
)

// Fetcher is a decorator that applies a Policy to a DocumentFetcher.
// With MaxRetries == 0 it is a plain single-shot fetch.
type Fetcher struct {
	inner  model.DocumentFetcher
	policy Policy
	logger *slog.Logger
}

// NewFetcher wraps a DocumentFetcher with retry logic.
func NewFetcher(inner model.DocumentFetcher, policy Policy, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		inner:  inner,
		policy: policy,
		logger: logger,
	}
}

// Fetch attempts to fetch url, retrying on transient errors.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, err := f.inner.Fetch(ctx, url)
	if err == nil {
		return body, nil
	}
	if !Retryable(err) {
		return nil, err
	}

	lastErr := err
	for attempt := 1; attempt < f.policy.Attempts(); attempt++ {
		delay := f.policy.Backoff(attempt, lastErr)

		f.logger.Warn("retrying after transient error",
			"url", url,
			"attempt", attempt,
			"max_attempts", f.policy.Attempts(),
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		body, err = f.inner.Fetch(ctx, url)
		if err == nil {
			return body, nil
		}
		if !Retryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}
