package crawler

import (
	"log/slog"
	"sync"

	"github.com/amishk599/jobharvest/internal/model"
)

// FailureKind classifies an isolated crawl failure.
type FailureKind string

const (
	KindFetch      FailureKind = "fetch"
	KindExtraction FailureKind = "extraction"
)

// Failure describes one skipped page or listing.
type Failure struct {
	Kind   FailureKind
	Source model.Source
	Term   string
	Page   int
	URL    string
	Err    error
}

// FailureSink receives failures as they happen. Implementations must be safe
// for concurrent use when several targets are crawled at once.
type FailureSink interface {
	Report(f Failure)
}

// Collector is a concurrent-safe FailureSink that logs and keeps every
// failure for the run summary.
type Collector struct {
	mu       sync.Mutex
	failures []Failure
	logger   *slog.Logger
}

// NewCollector creates an empty collector.
func NewCollector(logger *slog.Logger) *Collector {
	return &Collector{logger: logger}
}

func (c *Collector) Report(f Failure) {
	c.logger.Warn("crawl item skipped",
		"kind", f.Kind,
		"source", f.Source,
		"term", f.Term,
		"page", f.Page,
		"url", f.URL,
		"error", f.Err,
	)

	c.mu.Lock()
	c.failures = append(c.failures, f)
	c.mu.Unlock()
}

// snapshot returns a copy of everything reported so far.
func (c *Collector) snapshot() []Failure {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Failure, len(c.failures))
	copy(out, c.failures)
	return out
}

// Counts returns the number of failures per kind.
func (c *Collector) Counts() map[FailureKind]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	counts := make(map[FailureKind]int)
	for _, f := range c.failures {
		counts[f.Kind]++
	}
	return counts
}
