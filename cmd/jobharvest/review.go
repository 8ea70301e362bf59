package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobharvest/internal/model"
	"github.com/amishk599/jobharvest/internal/review"
	"github.com/amishk599/jobharvest/internal/store"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Browse deduplicated postings interactively (TUI)",
	Long:  "Shows the source picker TUI, then the split-pane review of enriched and unenriched postings.",
	RunE:  runReviewCmd,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReviewCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	st, err := store.NewSQLiteStore(cfg.Database)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// Use a discard logger for the enricher: the TUI runs in the alt screen
	// and any log output corrupts the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	enricher, err := setupEnricher(context.Background(), cfg, silentLogger)
	if err != nil {
		logger.Error("failed to set up enricher", "error", err)
		os.Exit(1)
	}

	var e review.Enricher
	if enricher != nil {
		e = enricher
	}
	runReview(st, e)
	return nil
}

func runReview(st *store.SQLiteStore, enricher review.Enricher) {
	for {
		counts, err := st.CountBySource(context.Background())
		if err != nil {
			fmt.Printf("Error counting records: %v\n", err)
			return
		}
		sources := review.SourceCounts(counts)
		if len(sources) == 0 {
			fmt.Println("No deduplicated records yet. Run `jobharvest run` first.")
			return
		}

		choice, err := review.RunSourcePicker(sources)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return
		}
		if choice < 0 {
			return
		}
		chosen := sources[choice].Source

		records, err := review.RunLoader(string(chosen), func(ctx context.Context) ([]model.Record, error) {
			all, err := st.LoadDeduplicated(ctx)
			if err != nil {
				return nil, err
			}
			var out []model.Record
			for _, r := range all {
				if r.Source == chosen {
					out = append(out, r)
				}
			}
			return out, nil
		})
		if err != nil {
			fmt.Printf("Error loading records: %v\n", err)
			continue
		}

		wantQuit, err := review.RunReviewTUI(records, enricher, st.SaveEnrichment)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return
		}
		// else: loop → back to picker
	}
}
