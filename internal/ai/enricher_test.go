package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobharvest/internal/model"
	"github.com/amishk599/jobharvest/internal/ratelimit"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedProvider answers according to a marker found in the prompt.
type scriptedProvider struct {
	mu    sync.Mutex
	calls []time.Time
}

func (p *scriptedProvider) Complete(_ context.Context, prompt string) (string, error) {
	p.mu.Lock()
	p.calls = append(p.calls, time.Now())
	p.mu.Unlock()

	switch {
	case strings.Contains(prompt, "SERVICE-DOWN"):
		return "", fmt.Errorf("%w: llm returned HTTP 503", model.ErrEnrichmentService)
	case strings.Contains(prompt, "TRANSPORT"):
		return "", errors.New("connection reset by peer")
	case strings.Contains(prompt, "GARBAGE"):
		return "I cannot help with that.", nil
	}
	return "```json\n{\"job_category\": \"auditor\", \"technical_skills\": [\"Excel\",],}\n```", nil
}

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func newTestEnricher(p LLMProvider, delay time.Duration, cfg Config) *Enricher {
	return NewEnricher(p, ratelimit.NewThrottle(delay), EnrichmentTemplate, cfg, discardLogger())
}

func recs(descs ...string) []model.Record {
	out := make([]model.Record, len(descs))
	for i, d := range descs {
		out[i] = model.Record{ID: fmt.Sprintf("r%d", i), JobTitle: "Job", Description: d}
	}
	return out
}

func TestEnrich_FailuresAreIsolated(t *testing.T) {
	p := &scriptedProvider{}
	e := newTestEnricher(p, 0, Config{BatchSize: 10})
	records := recs("audit role", "SERVICE-DOWN", "GARBAGE", "TRANSPORT", "another audit role")

	sum, err := e.Enrich(context.Background(), records, nil)
	require.NoError(t, err)

	assert.Equal(t, Summary{Total: 5, Enriched: 2, ServiceFailures: 2, FormatFailures: 1}, sum)
	assert.Equal(t, 3, sum.Failed())

	require.NotNil(t, records[0].Enrichment)
	assert.Equal(t, "auditor", records[0].Enrichment.JobCategory)
	assert.Equal(t, []string{"Excel"}, records[0].Enrichment.TechnicalSkills)
	assert.Nil(t, records[1].Enrichment)
	assert.Nil(t, records[2].Enrichment)
	assert.Nil(t, records[3].Enrichment)
	require.NotNil(t, records[4].Enrichment)
}

func TestEnrich_SkipsAlreadyEnriched(t *testing.T) {
	p := &scriptedProvider{}
	e := newTestEnricher(p, 0, Config{})
	records := recs("one", "two", "")
	records[0].Enrichment = &model.Attributes{JobCategory: "tax accountant"}

	sum, err := e.Enrich(context.Background(), records, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Enriched)
	assert.Equal(t, 2, sum.Skipped)
	assert.Equal(t, 1, p.callCount())
	assert.Equal(t, "tax accountant", records[0].Enrichment.JobCategory, "existing enrichment kept")
	assert.Nil(t, records[2].Enrichment)
}

func TestEnrich_CheckpointsEveryBatch(t *testing.T) {
	p := &scriptedProvider{}
	e := newTestEnricher(p, 0, Config{BatchSize: 2})
	records := recs("a", "b", "c", "d", "e")

	var sizes []int
	sum, err := e.Enrich(context.Background(), records, func(_ context.Context, batch []model.Record) error {
		for _, r := range batch {
			assert.NotNil(t, r.Enrichment, "checkpoint sees merged attributes")
		}
		sizes = append(sizes, len(batch))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Enriched)
	assert.Equal(t, []int{2, 2, 1}, sizes)
}

func TestEnrich_CheckpointFailureStopsRun(t *testing.T) {
	p := &scriptedProvider{}
	e := newTestEnricher(p, 0, Config{BatchSize: 2})
	records := recs("a", "b", "c", "d")

	boom := errors.New("disk full")
	sum, err := e.Enrich(context.Background(), records, func(context.Context, []model.Record) error { return boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, sum.Enriched, "first batch done, second never started")
	assert.Equal(t, 2, p.callCount())
}

func TestEnrich_ConcurrentWorkersShareThrottle(t *testing.T) {
	p := &scriptedProvider{}
	delay := 40 * time.Millisecond
	e := newTestEnricher(p, delay, Config{BatchSize: 10, Workers: 4})

	_, err := e.Enrich(context.Background(), recs("a", "b", "c", "d"), nil)
	require.NoError(t, err)

	p.mu.Lock()
	defer p.mu.Unlock()
	require.Len(t, p.calls, 4)
	first, last := p.calls[0], p.calls[0]
	for _, c := range p.calls {
		if c.Before(first) {
			first = c
		}
		if c.After(last) {
			last = c
		}
	}
	// Four serialized calls need at least three gaps (allow timer jitter).
	assert.GreaterOrEqual(t, last.Sub(first), 3*delay-20*time.Millisecond)
}

func TestEnrichOne_WrapsTransportErrors(t *testing.T) {
	e := newTestEnricher(&scriptedProvider{}, 0, Config{})
	_, attrs, err := e.EnrichOne(context.Background(), "TRANSPORT")
	assert.Nil(t, attrs)
	assert.True(t, errors.Is(err, model.ErrEnrichmentService))
}

func TestEnrichOne_ReturnsRawOnFormatError(t *testing.T) {
	e := newTestEnricher(&scriptedProvider{}, 0, Config{})
	raw, attrs, err := e.EnrichOne(context.Background(), "GARBAGE")
	assert.Nil(t, attrs)
	assert.True(t, errors.Is(err, model.ErrResponseFormat))
	assert.Equal(t, "I cannot help with that.", raw)
}

func TestNopEnricher(t *testing.T) {
	records := recs("a", "b")
	sum, err := NewNopEnricher().Enrich(context.Background(), records, nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 2, Skipped: 2}, sum)
	assert.Nil(t, records[0].Enrichment)
}
