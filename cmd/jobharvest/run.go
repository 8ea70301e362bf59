package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobharvest/internal/model"
	"github.com/amishk599/jobharvest/internal/pipeline"
	"github.com/amishk599/jobharvest/internal/scheduler"
)

var (
	dryRun bool
	every  time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline once",
	Long:  "Crawls every enabled source, enriches new postings, deduplicates the collection and reports the outcome.",
	RunE:  runRun,
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl the enabled sources and store raw postings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage("crawl", (*pipeline.Pipeline).Crawl)
	},
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich stored postings that have no attributes yet",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage("enrich", (*pipeline.Pipeline).Enrich)
	},
}

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Rebuild the deduplicated collection from stored postings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage("dedupe", (*pipeline.Pipeline).Dedupe)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "keep everything in memory; nothing is written to the database")
	runCmd.Flags().DurationVar(&every, "every", 0, "repeat the run at this interval until interrupted (e.g. 6h)")
	rootCmd.AddCommand(runCmd, crawlCmd, enrichCmd, dedupeCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if every <= 0 {
		return runStage("run", (*pipeline.Pipeline).Run)
	}
	return runStage("run", scheduled(every))
}

// scheduled repeats the full pipeline until the context is cancelled. The
// returned summary is that of the last completed cycle.
func scheduled(interval time.Duration) stageFunc {
	return func(p *pipeline.Pipeline, ctx context.Context) (model.RunSummary, error) {
		var last model.RunSummary
		logger := setupLogger(debug)
		s := scheduler.NewScheduler(func(ctx context.Context) error {
			sum, err := p.Run(ctx)
			last = sum
			return err
		}, interval, logger)
		err := s.Run(ctx)
		return last, err
	}
}

type stageFunc func(p *pipeline.Pipeline, ctx context.Context) (model.RunSummary, error)

func runStage(name string, stage stageFunc) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"database", cfg.Database,
		"search_terms", len(cfg.SearchTerms),
		"sources", len(cfg.EnabledSources()),
		"max_pages", cfg.Crawl.MaxPages,
		"ai", cfg.AI.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(cfg, dryRun, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	p, err := buildPipeline(ctx, cfg, st, dryRun, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	sum, err := stage(p, ctx)
	if err != nil {
		logger.Error(name+" failed", "error", err, "duration", sum.Duration().String())
		return err
	}
	logger.Info(name+" complete", "duration", sum.Duration().String())
	return nil
}
