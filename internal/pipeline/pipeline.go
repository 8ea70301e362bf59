package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amishk599/jobharvest/internal/ai"
	"github.com/amishk599/jobharvest/internal/crawler"
	"github.com/amishk599/jobharvest/internal/dedup"
	"github.com/amishk599/jobharvest/internal/model"
)

// RecordCrawler produces the raw batch for a set of targets.
type RecordCrawler interface {
	CrawlAll(ctx context.Context, targets []crawler.Target, sink crawler.FailureSink) ([]model.Record, error)
}

// RecordEnricher attaches attributes to records in place.
type RecordEnricher interface {
	Enrich(ctx context.Context, records []model.Record, checkpoint ai.Checkpoint) (ai.Summary, error)
}

// Deduplicator splits a batch into kept and discarded records.
type Deduplicator interface {
	Detect(records []model.Record) (dedup.Result, error)
}

// Config holds what the pipeline needs beyond its collaborators.
type Config struct {
	Targets           []crawler.Target
	EnrichmentEnabled bool
	DryRun            bool
}

// Pipeline owns one full run: crawl → persist raw → enrich → dedupe →
// persist final → report.
type Pipeline struct {
	cfg      Config
	crawler  RecordCrawler
	enricher RecordEnricher
	detector Deduplicator
	store    model.RecordStore
	reporter model.Reporter
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a pipeline wired with all its dependencies.
func New(
	cfg Config,
	c RecordCrawler,
	enricher RecordEnricher,
	detector Deduplicator,
	store model.RecordStore,
	reporter model.Reporter,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		crawler:  c,
		enricher: enricher,
		detector: detector,
		store:    store,
		reporter: reporter,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes every stage and reports the summary. A failed report is
// logged and does not fail the run.
func (p *Pipeline) Run(ctx context.Context) (model.RunSummary, error) {
	sum := p.newSummary()

	if err := p.crawl(ctx, &sum); err != nil {
		return p.finish(sum), err
	}
	if err := p.enrich(ctx, &sum); err != nil {
		return p.finish(sum), err
	}
	if err := p.dedupe(ctx, &sum); err != nil {
		return p.finish(sum), err
	}

	sum = p.finish(sum)
	if err := p.reporter.Report(sum); err != nil {
		p.logger.Error("reporting run summary failed", "error", err)
	}
	return sum, nil
}

// Crawl runs only the crawl stage and appends the batch to the store.
func (p *Pipeline) Crawl(ctx context.Context) (model.RunSummary, error) {
	sum := p.newSummary()
	err := p.crawl(ctx, &sum)
	return p.finish(sum), err
}

// Enrich runs only the enrichment stage over every stored raw record.
// Records enriched by an earlier run are skipped.
func (p *Pipeline) Enrich(ctx context.Context) (model.RunSummary, error) {
	sum := p.newSummary()
	err := p.enrich(ctx, &sum)
	return p.finish(sum), err
}

// Dedupe runs only the dedup stage over every stored raw record.
func (p *Pipeline) Dedupe(ctx context.Context) (model.RunSummary, error) {
	sum := p.newSummary()
	err := p.dedupe(ctx, &sum)
	return p.finish(sum), err
}

func (p *Pipeline) newSummary() model.RunSummary {
	return model.RunSummary{
		StartedAt:         p.now(),
		EnrichmentEnabled: p.cfg.EnrichmentEnabled,
		DryRun:            p.cfg.DryRun,
	}
}

func (p *Pipeline) finish(sum model.RunSummary) model.RunSummary {
	sum.FinishedAt = p.now()
	return sum
}

func (p *Pipeline) crawl(ctx context.Context, sum *model.RunSummary) error {
	failures := crawler.NewCollector(p.logger)
	records, crawlErr := p.crawler.CrawlAll(ctx, p.cfg.Targets, failures)

	counts := failures.Counts()
	sum.FetchFailures = counts[crawler.KindFetch]
	sum.ExtractionFailures = counts[crawler.KindExtraction]
	sum.Crawled = len(records)
	sum.CrawledBySource = make(map[model.Source]int)
	for _, r := range records {
		sum.CrawledBySource[r.Source]++
	}

	if crawlErr != nil {
		return fmt.Errorf("crawl stage: %w", crawlErr)
	}

	if err := p.store.AppendRaw(ctx, records); err != nil {
		return fmt.Errorf("crawl stage: persisting %d records: %w", len(records), err)
	}
	p.logger.Info("crawl stage done",
		"targets", len(p.cfg.Targets),
		"records", len(records),
		"fetch_failures", sum.FetchFailures,
		"extraction_failures", sum.ExtractionFailures,
	)
	return nil
}

func (p *Pipeline) enrich(ctx context.Context, sum *model.RunSummary) error {
	if !p.cfg.EnrichmentEnabled {
		p.logger.Info("enrichment disabled, skipping stage")
		return nil
	}

	records, err := p.store.LoadRaw(ctx)
	if err != nil {
		return fmt.Errorf("enrich stage: loading raw records: %w", err)
	}

	es, err := p.enricher.Enrich(ctx, records, p.store.SaveEnrichment)
	sum.Enriched = es.Enriched
	sum.EnrichSkipped = es.Skipped
	sum.ServiceFailures = es.ServiceFailures
	sum.FormatFailures = es.FormatFailures
	if err != nil {
		return fmt.Errorf("enrich stage: %w", err)
	}

	p.logger.Info("enrich stage done",
		"records", es.Total,
		"enriched", es.Enriched,
		"skipped", es.Skipped,
		"failed", es.Failed(),
	)
	return nil
}

func (p *Pipeline) dedupe(ctx context.Context, sum *model.RunSummary) error {
	records, err := p.store.LoadRaw(ctx)
	if err != nil {
		return fmt.Errorf("dedup stage: loading raw records: %w", err)
	}

	res, err := p.detector.Detect(records)
	if err != nil {
		return fmt.Errorf("dedup stage: %w", err)
	}
	sum.Kept = len(res.Kept)
	sum.Discarded = len(res.Discarded)
	sum.Unsupported = len(res.Unsupported)

	if err := p.store.ReplaceDeduplicated(ctx, res.Kept); err != nil {
		return fmt.Errorf("dedup stage: persisting %d records: %w", len(res.Kept), err)
	}
	p.logger.Info("dedup stage done",
		"records", len(records),
		"kept", sum.Kept,
		"discarded", sum.Discarded,
		"unsupported", sum.Unsupported,
	)
	return nil
}
