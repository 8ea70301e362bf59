package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobharvest/internal/ai"
	"github.com/amishk599/jobharvest/internal/config"
	"github.com/amishk599/jobharvest/internal/crawler"
	"github.com/amishk599/jobharvest/internal/dedup"
	"github.com/amishk599/jobharvest/internal/fetch"
	"github.com/amishk599/jobharvest/internal/model"
	"github.com/amishk599/jobharvest/internal/pipeline"
	"github.com/amishk599/jobharvest/internal/ratelimit"
	"github.com/amishk599/jobharvest/internal/report"
	"github.com/amishk599/jobharvest/internal/retry"
	"github.com/amishk599/jobharvest/internal/source"
	"github.com/amishk599/jobharvest/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobharvest",
	Short: "Job posting harvester",
	Long:  "jobharvest crawls job listing sites, enriches postings with an LLM and removes near-duplicates.",
	// Default to `run` so that `jobharvest` with no args runs the full pipeline.
	RunE:         runRun,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: "+config.EnvConfigPath+" env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
func loadConfig(path string) (*config.Config, error) {
	return config.Load(config.ResolvePath(path))
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupReporter(cfg *config.Config, logger *slog.Logger) model.Reporter {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack reporter")
		return report.NewSlackReporter(cfg.Notification.WebhookURL, &http.Client{Timeout: 30 * time.Second}, logger)
	default:
		return report.NewLogReporter(logger)
	}
}

// recordStore is what the commands need from a store beyond the pipeline
// contract.
type recordStore interface {
	model.RecordStore
	CountBySource(ctx context.Context) (map[model.Source]int, error)
	Close() error
}

func openStore(cfg *config.Config, dryRun bool, logger *slog.Logger) (recordStore, error) {
	if dryRun {
		logger.Info("dry-run mode enabled, nothing will be written to disk")
		return store.NewMemoryStore(), nil
	}
	s, err := store.NewSQLiteStore(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.Database, err)
	}
	return s, nil
}

// setupFetcher stacks retry over per-host politeness over plain HTTP, so every
// retry attempt also waits for its host's rate limiter.
func setupFetcher(cfg *config.Config, logger *slog.Logger) model.DocumentFetcher {
	client := &http.Client{Timeout: cfg.Crawl.Timeout}
	var f model.DocumentFetcher = fetch.NewHTTPFetcher(client, cfg.Crawl.UserAgent)
	f = fetch.NewRateLimitedFetcher(f, ratelimit.NewHostLimiter(cfg.Crawl.RequestsPerSecond, cfg.Crawl.Burst))
	if cfg.Crawl.MaxRetries > 0 {
		f = retry.NewFetcher(f, retry.Policy{MaxRetries: cfg.Crawl.MaxRetries, BaseDelay: cfg.Crawl.RetryBaseDelay}, logger)
	}
	return f
}

func buildTargets(cfg *config.Config, logger *slog.Logger) ([]crawler.Target, error) {
	var targets []crawler.Target
	for _, sc := range cfg.EnabledSources() {
		site, err := source.New(sc.Name, source.Options{BaseURL: sc.BaseURL, Locale: sc.Locale})
		if err != nil {
			return nil, err
		}
		for _, term := range cfg.SearchTerms {
			targets = append(targets, crawler.Target{Site: site, Term: term})
		}
		logger.Info("registered source", "source", site.Name(), "terms", len(cfg.SearchTerms))
	}
	return targets, nil
}

func setupProvider(ctx context.Context, cfg *config.Config) (ai.LLMProvider, error) {
	httpClient := &http.Client{Timeout: cfg.AI.Timeout}
	switch cfg.AI.Provider {
	case config.ProviderOpenAI:
		return ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, httpClient), nil
	default:
		return ai.NewGeminiProvider(ctx, cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, httpClient)
	}
}

// setupEnricher returns the real enricher when AI is enabled, or nil.
func setupEnricher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*ai.Enricher, error) {
	if !cfg.AI.Enabled {
		logger.Info("AI enrichment disabled")
		return nil, nil
	}
	provider, err := setupProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("AI enrichment enabled",
		"provider", cfg.AI.Provider,
		"model", cfg.AI.Model,
		"min_delay", cfg.AI.MinDelay.String(),
		"workers", cfg.AI.Workers,
	)
	return ai.NewEnricher(
		provider,
		ratelimit.NewThrottle(cfg.AI.MinDelay),
		ai.EnrichmentTemplate,
		ai.Config{BatchSize: cfg.AI.BatchSize, Workers: cfg.AI.Workers},
		logger,
	), nil
}

func setupDetector(cfg *config.Config, logger *slog.Logger) (*dedup.Detector, error) {
	return dedup.NewDetector(dedup.Config{
		Threshold:       cfg.Dedup.Threshold,
		Languages:       cfg.Dedup.Languages,
		Linkage:         dedup.Linkage(cfg.Dedup.Linkage),
		KeepUnsupported: cfg.Dedup.KeepUnsupported,
	}, dedup.NewWhatlangDetector(), logger)
}

func buildPipeline(ctx context.Context, cfg *config.Config, st model.RecordStore, dryRun bool, logger *slog.Logger) (*pipeline.Pipeline, error) {
	targets, err := buildTargets(cfg, logger)
	if err != nil {
		return nil, err
	}

	enricher, err := setupEnricher(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	var recordEnricher pipeline.RecordEnricher = ai.NewNopEnricher()
	if enricher != nil {
		recordEnricher = enricher
	}

	detector, err := setupDetector(cfg, logger)
	if err != nil {
		return nil, err
	}

	c := crawler.New(setupFetcher(cfg, logger), crawler.Config{
		MaxPages:    cfg.Crawl.MaxPages,
		Concurrency: cfg.Crawl.Concurrency,
	}, logger)

	return pipeline.New(
		pipeline.Config{Targets: targets, EnrichmentEnabled: cfg.AI.Enabled, DryRun: dryRun},
		c,
		recordEnricher,
		detector,
		st,
		setupReporter(cfg, logger),
		logger,
	), nil
}
