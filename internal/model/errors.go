package model

import (
	"errors"
	"fmt"
	"time"
)

// Failure kinds. Call sites wrap these together with the underlying cause,
// e.g. fmt.Errorf("%w: fetch %s: %w", ErrTransientFetch, url, err).
var (
	ErrTransientFetch    = errors.New("transient fetch error")
	ErrExtraction        = errors.New("extraction error")
	ErrEnrichmentService = errors.New("enrichment service error")
	ErrResponseFormat    = errors.New("response format error")
	ErrPrecondition      = errors.New("precondition violated")
	ErrNoSourceReachable = errors.New("no source could be reached")
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
