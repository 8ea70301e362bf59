package report

import (
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/amishk599/jobharvest/internal/model"
)

// Ensure LogReporter implements model.Reporter.
var _ model.Reporter = (*LogReporter)(nil)

// LogReporter writes the run summary to the given logger.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter returns a reporter that logs the summary via slog.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report logs one line per stage. Returns nil (stdout logging does not fail).
func (r *LogReporter) Report(s model.RunSummary) error {
	for _, src := range slices.Sorted(maps.Keys(s.CrawledBySource)) {
		r.logger.Info("crawled source", "source", src, "records", s.CrawledBySource[src])
	}
	r.logger.Info("crawl stage",
		"crawled", s.Crawled,
		"fetch_failures", s.FetchFailures,
		"extraction_failures", s.ExtractionFailures,
	)
	if s.EnrichmentEnabled {
		r.logger.Info("enrichment stage",
			"enriched", s.Enriched,
			"skipped", s.EnrichSkipped,
			"service_failures", s.ServiceFailures,
			"format_failures", s.FormatFailures,
		)
	}
	r.logger.Info("dedup stage",
		"kept", s.Kept,
		"discarded", s.Discarded,
		"unsupported", s.Unsupported,
	)
	r.logger.Info("run complete", "duration", s.Duration().Round(time.Millisecond), "dry_run", s.DryRun)
	return nil
}
