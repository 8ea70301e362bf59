package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobharvest/internal/model"
	"github.com/amishk599/jobharvest/internal/source"
	"github.com/amishk599/jobharvest/internal/store"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured sources",
	Long:  "Reads the config and prints a table of all configured sources with their deduplicated record counts.",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Counts are best effort; a missing database just shows zeros.
	counts := map[model.Source]int{}
	if _, err := os.Stat(cfg.Database); err == nil {
		if s, err := store.NewSQLiteStore(cfg.Database); err == nil {
			if c, err := s.CountBySource(context.Background()); err == nil {
				counts = c
			}
			s.Close()
		}
	}

	fmt.Printf("%-18s %-32s %-10s %-9s %s\n", "Source", "Base URL", "Locale", "Status", "Records")
	fmt.Println(strings.Repeat("─", 80))

	enabled, disabled := 0, 0
	for _, sc := range cfg.Sources {
		status := "enabled"
		if !sc.Enabled {
			status = "disabled"
			disabled++
		} else {
			enabled++
		}

		name, baseURL, locale := sc.Name, sc.BaseURL, sc.Locale
		site, err := source.New(sc.Name, source.Options{BaseURL: sc.BaseURL, Locale: sc.Locale})
		if err == nil {
			name = string(site.Name())
		}
		if baseURL == "" {
			baseURL = "(default)"
		}
		if locale == "" {
			locale = "-"
		}
		fmt.Printf("%-18s %-32s %-10s %-9s %d\n", name, baseURL, locale, status, counts[model.Source(name)])
	}

	fmt.Printf("\nTotal: %d sources (%d enabled, %d disabled), %d search terms: %s\n",
		len(cfg.Sources), enabled, disabled, len(cfg.SearchTerms), strings.Join(cfg.SearchTerms, ", "))
	return nil
}
