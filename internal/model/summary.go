package model

import "time"

// RunSummary is the outcome of one pipeline run, handed to a Reporter.
type RunSummary struct {
	StartedAt  time.Time
	FinishedAt time.Time

	Crawled            int
	CrawledBySource    map[Source]int
	FetchFailures      int
	ExtractionFailures int

	EnrichmentEnabled bool
	Enriched          int
	EnrichSkipped     int
	ServiceFailures   int
	FormatFailures    int

	Kept        int
	Discarded   int
	Unsupported int

	// DryRun is set when nothing was persisted.
	DryRun bool
}

// Duration returns how long the run took.
func (s RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Reporter delivers a run summary, e.g. to the log or a chat channel.
type Reporter interface {
	Report(s RunSummary) error
}
