package review

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobharvest/internal/model"
)

func dated(id string, day int) model.Record {
	r := model.Record{ID: id, JobTitle: "title " + id, Description: "desc " + id}
	if day > 0 {
		d := time.Date(2025, 5, day, 0, 0, 0, 0, time.UTC)
		r.PublishedDate = &d
	}
	return r
}

func ids(records []model.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestSplitByEnrichment(t *testing.T) {
	a, b, c := dated("a", 1), dated("b", 2), dated("c", 3)
	b.Enrichment = &model.Attributes{JobCategory: "Other"}

	enriched, pending := splitByEnrichment([]model.Record{a, b, c})
	assert.Equal(t, []string{"b"}, ids(enriched))
	assert.Equal(t, []string{"a", "c"}, ids(pending))
}

func TestSortRecordsByDate_NewestFirstUndatedLast(t *testing.T) {
	records := []model.Record{dated("old", 1), dated("none", 0), dated("new", 20), dated("mid", 10)}
	sortRecordsByDate(records)
	assert.Equal(t, []string{"new", "mid", "old", "none"}, ids(records))
}

func TestSourceCounts_SortedByName(t *testing.T) {
	got := SourceCounts(map[model.Source]int{model.SourceOptioncarriere: 3, model.SourceKeejob: 5})
	assert.Equal(t, []SourceCount{
		{Source: model.SourceKeejob, Count: 5},
		{Source: model.SourceOptioncarriere, Count: 3},
	}, got)
}

func TestRenderRecordDetail_ShowsSourceAndEnrichment(t *testing.T) {
	years := 3.0
	contract := model.ContractFullTime
	r := dated("a", 15)
	r.Company = "Acme"
	r.Source = model.SourceKeejob
	r.Enrichment = &model.Attributes{
		JobCategory:       "auditor",
		ContractType:      &contract,
		YearsOfExperience: &years,
		TechnicalSkills:   []string{"Excel", "SAP"},
	}

	out := renderRecordDetail(r, detailState{width: 100})
	for _, want := range []string{"Acme", "Keejob", "2025-05-15", "auditor (Accounting)", "Full-time", "Excel, SAP", "Technical Skills"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "desc a", "description stays hidden until toggled")

	out = renderRecordDetail(r, detailState{width: 100, showDescription: true})
	assert.Contains(t, out, "desc a")
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "auditor (Accounting)", categoryLabel("auditor"))
	assert.Equal(t, "Project manager (BUSINESS ANALYTICS, INFORMATION TECHNOLOGY)", categoryLabel("Project manager"))
	assert.Equal(t, "Other", categoryLabel("Other"))
	assert.Equal(t, "astronaut", categoryLabel("astronaut"))
}

func TestRenderRecordDetail_EnrichHint(t *testing.T) {
	out := renderRecordDetail(dated("a", 0), detailState{width: 80, canEnrich: true})
	assert.Contains(t, out, "press s to enrich")

	out = renderRecordDetail(dated("a", 0), detailState{width: 80, loading: true})
	assert.Contains(t, out, "enriching description")
}

func TestWordWrap(t *testing.T) {
	got := wordWrap("one two three four", 9)
	assert.Equal(t, "one two\nthree\nfour", got)
	assert.Equal(t, "", wordWrap("   ", 10))
}

type stubEnricher struct {
	attrs *model.Attributes
	err   error
}

func (s stubEnricher) EnrichOne(context.Context, string) (string, *model.Attributes, error) {
	return "", s.attrs, s.err
}

func newSizedModel(t *testing.T, records []model.Record, e Enricher, save SaveFunc) reviewModel {
	t.Helper()
	enriched, pending := splitByEnrichment(records)
	m := reviewModel{enriched: enriched, pending: pending, enricher: e, save: save}
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(reviewModel)
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestReviewModel_EnrichOnDemandMovesRecord(t *testing.T) {
	var saved []model.Record
	save := func(_ context.Context, rs []model.Record) error {
		saved = append(saved, rs...)
		return nil
	}
	e := stubEnricher{attrs: &model.Attributes{JobCategory: "auditor"}}
	m := newSizedModel(t, []model.Record{dated("a", 1)}, e, save)

	// Switch to the right pane and open the unenriched record.
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	next, _ = next.(reviewModel).Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(reviewModel)
	require.Equal(t, viewDetail, m.view)
	require.True(t, m.canEnrich())

	next, cmd := m.Update(key("s"))
	m = next.(reviewModel)
	require.NotNil(t, cmd)
	assert.True(t, m.enrichLoading)

	next, _ = m.Update(cmd())
	m = next.(reviewModel)
	assert.False(t, m.enrichLoading)
	assert.Empty(t, m.enrichError)
	assert.Empty(t, m.pending)
	require.Len(t, m.enriched, 1)
	assert.Equal(t, "auditor", m.enriched[0].Enrichment.JobCategory)
	require.Len(t, saved, 1)
	assert.Equal(t, "a", saved[0].ID)
}

func TestReviewModel_EnrichFailureShowsError(t *testing.T) {
	e := stubEnricher{err: errors.New("quota exceeded")}
	m := newSizedModel(t, []model.Record{dated("a", 1)}, e, nil)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	next, _ = next.(reviewModel).Update(tea.KeyMsg{Type: tea.KeyEnter})
	next, cmd := next.(reviewModel).Update(key("s"))
	next, _ = next.(reviewModel).Update(cmd())
	m = next.(reviewModel)

	assert.True(t, strings.Contains(m.enrichError, "quota exceeded"))
	assert.Len(t, m.pending, 1)
	assert.Empty(t, m.enriched)
}

func TestReviewModel_EscReturnsToPicker(t *testing.T) {
	m := newSizedModel(t, []model.Record{dated("a", 1)}, nil, nil)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.False(t, next.(reviewModel).wantQuit)

	next, _ = m.Update(key("q"))
	assert.True(t, next.(reviewModel).wantQuit)
}
