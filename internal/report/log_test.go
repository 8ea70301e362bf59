package report

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/amishk599/jobharvest/internal/model"
)

func TestLogReporter_Report_returnsNil(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporter(slog.New(slog.NewTextHandler(&buf, nil)))

	err := r.Report(model.RunSummary{
		Crawled:           4,
		CrawledBySource:   map[model.Source]int{model.SourceKeejob: 4},
		EnrichmentEnabled: true,
		Enriched:          3,
		FormatFailures:    1,
		Kept:              2,
		Discarded:         2,
	})
	if err != nil {
		t.Fatalf("Report() = %v, want nil", err)
	}

	out := buf.String()
	for _, want := range []string{"crawled=4", "source=Keejob", "format_failures=1", "kept=2", "discarded=2"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestLogReporter_Report_omitsDisabledEnrichment(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporter(slog.New(slog.NewTextHandler(&buf, nil)))

	if err := r.Report(model.RunSummary{}); err != nil {
		t.Fatalf("Report() = %v, want nil", err)
	}
	if strings.Contains(buf.String(), "enrichment stage") {
		t.Error("expected no enrichment line when enrichment is disabled")
	}
}
