package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"text/template"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobharvest/internal/model"
	"github.com/amishk599/jobharvest/internal/ratelimit"
)

const (
	DefaultBatchSize = 100
	DefaultWorkers   = 1
)

// Checkpoint persists one finished batch. Returning an error stops the run,
// since later batches could no longer be made durable.
type Checkpoint func(ctx context.Context, batch []model.Record) error

// Summary counts what happened to each record handed to Enrich.
type Summary struct {
	Total           int
	Enriched        int
	Skipped         int // already enriched, or nothing to send
	ServiceFailures int
	FormatFailures  int
}

// Failed returns the number of records left without enrichment by an error.
func (s Summary) Failed() int {
	return s.ServiceFailures + s.FormatFailures
}

// Config tunes an Enricher.
type Config struct {
	BatchSize int
	Workers   int
}

// Enricher prompts the model once per record description and merges the
// parsed attributes back into the record. All calls from every worker go
// through the one shared throttle.
type Enricher struct {
	provider LLMProvider
	throttle *ratelimit.Throttle
	tmpl     *template.Template
	cfg      Config
	logger   *slog.Logger
}

// NewEnricher wires an enricher. Zero config values fall back to defaults.
func NewEnricher(provider LLMProvider, throttle *ratelimit.Throttle, tmpl *template.Template, cfg Config, logger *slog.Logger) *Enricher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	return &Enricher{
		provider: provider,
		throttle: throttle,
		tmpl:     tmpl,
		cfg:      cfg,
		logger:   logger,
	}
}

// Enrich processes records in place, batch by batch. A failed record keeps
// an absent enrichment and does not stop its batch. checkpoint, when set, is
// called after every batch so finished work survives a later crash; records
// that already carry attributes are skipped, which makes a rerun resume.
func (e *Enricher) Enrich(ctx context.Context, records []model.Record, checkpoint Checkpoint) (Summary, error) {
	sum := Summary{Total: len(records)}

	for start := 0; start < len(records); start += e.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("enrich: %w", err)
		}
		end := min(start+e.cfg.BatchSize, len(records))
		batch := records[start:end]

		bs := e.enrichBatch(ctx, batch)
		sum.Enriched += bs.Enriched
		sum.Skipped += bs.Skipped
		sum.ServiceFailures += bs.ServiceFailures
		sum.FormatFailures += bs.FormatFailures

		e.logger.Info("enrichment batch done",
			"from", start,
			"to", end,
			"enriched", bs.Enriched,
			"failed", bs.Failed(),
			"skipped", bs.Skipped,
		)

		if checkpoint != nil && bs.Enriched > 0 {
			if err := checkpoint(ctx, batch); err != nil {
				return sum, fmt.Errorf("checkpoint batch %d-%d: %w", start, end, err)
			}
		}
	}
	return sum, nil
}

func (e *Enricher) enrichBatch(ctx context.Context, batch []model.Record) Summary {
	var (
		mu  sync.Mutex
		sum Summary
	)
	count := func(f func(*Summary)) {
		mu.Lock()
		f(&sum)
		mu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(e.cfg.Workers)
	for i := range batch {
		rec := &batch[i]
		if rec.Enrichment != nil || rec.Description == "" {
			count(func(s *Summary) { s.Skipped++ })
			continue
		}
		g.Go(func() error {
			raw, attrs, err := e.EnrichOne(ctx, rec.Description)
			switch {
			case err == nil:
				rec.Merge(attrs)
				count(func(s *Summary) { s.Enriched++ })
			case errors.Is(err, model.ErrResponseFormat):
				e.logger.Error("unparseable enrichment response",
					"job_id", rec.ID,
					"title", rec.JobTitle,
					"error", err,
					"raw", raw,
				)
				count(func(s *Summary) { s.FormatFailures++ })
			default:
				e.logger.Error("enrichment call failed",
					"job_id", rec.ID,
					"title", rec.JobTitle,
					"error", err,
				)
				count(func(s *Summary) { s.ServiceFailures++ })
			}
			return nil
		})
	}
	_ = g.Wait()
	return sum
}

// EnrichOne prompts the model for one description and parses the answer.
// The raw response is returned even when parsing fails, for logging.
func (e *Enricher) EnrichOne(ctx context.Context, description string) (string, *model.Attributes, error) {
	prompt, err := RenderPrompt(e.tmpl, description)
	if err != nil {
		return "", nil, err
	}

	var raw string
	err = e.throttle.Do(ctx, func(ctx context.Context) error {
		var cerr error
		raw, cerr = e.provider.Complete(ctx, prompt)
		return cerr
	})
	if err != nil {
		if !errors.Is(err, model.ErrEnrichmentService) {
			err = fmt.Errorf("%w: %w", model.ErrEnrichmentService, err)
		}
		return "", nil, err
	}

	attrs, err := ParseAttributes(raw)
	if err != nil {
		return raw, nil, err
	}
	return raw, attrs, nil
}
