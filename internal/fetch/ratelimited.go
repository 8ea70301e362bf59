package fetch

import (
	"context"
	"fmt"
	"net/url"

	"github.com/amishk599/jobharvest/internal/model"
)

// HostWaiter blocks until a request to host may proceed.
type HostWaiter interface {
	Wait(ctx context.Context, host string) error
}

// RateLimitedFetcher is a decorator that waits on a per-host limiter before
// delegating to the wrapped fetcher. All fetchers should share one limiter.
type RateLimitedFetcher struct {
	inner   model.DocumentFetcher
	limiter HostWaiter
}

// NewRateLimitedFetcher wraps inner with per-host rate limiting.
func NewRateLimitedFetcher(inner model.DocumentFetcher, limiter HostWaiter) *RateLimitedFetcher {
	return &RateLimitedFetcher{inner: inner, limiter: limiter}
}

// Fetch waits for the host of rawURL to be free, then delegates.
func (f *RateLimitedFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if err := f.limiter.Wait(ctx, u.Host); err != nil {
		return nil, err
	}
	return f.inner.Fetch(ctx, rawURL)
}
