package model

import (
	"context"
	"time"
)

// Source identifies the listing site a record was scraped from.
type Source string

const (
	SourceOptioncarriere Source = "Optioncarriere"
	SourceKeejob         Source = "Keejob"
)

// RawListingRef is a detail-page address discovered on a listing page.
type RawListingRef struct {
	Page int
	URL  string
}

// Record is the canonical, source-independent representation of one job posting.
type Record struct {
	ID                   string     // opaque, generated at extraction
	Company              string
	Sector               string
	CompanySize          string
	JobTitle             string     // required
	Description          string     // required, whitespace-normalized
	WorkLocation         string
	JobType              string
	Availability         string
	PublishedDate        *time.Time // calendar date, UTC midnight
	Reference            string
	ExperienceText       string
	Education            string
	LanguagesMentioned   string
	ProposedRemuneration string
	Source               Source
	SearchTerm           string // search term the crawl was run with
	SourceURL            string // detail page address
	ScrapedAt            time.Time
	Enrichment           *Attributes // nil until enriched
}

// Merge attaches enrichment attributes to the record. It is additive: source
// fields are never touched and an existing enrichment is kept. Reports whether
// the attributes were applied.
func (r *Record) Merge(attrs *Attributes) bool {
	if attrs == nil || r.Enrichment != nil {
		return false
	}
	r.Enrichment = attrs
	return true
}

// DocumentFetcher returns the raw markup at an absolute address.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// LanguageDetector returns an ISO 639-1 code for text, or "unknown".
type LanguageDetector interface {
	Detect(text string) string
}

// RecordStore persists records across pipeline stages.
type RecordStore interface {
	AppendRaw(ctx context.Context, records []Record) error
	LoadRaw(ctx context.Context) ([]Record, error)
	SaveEnrichment(ctx context.Context, records []Record) error
	ReplaceDeduplicated(ctx context.Context, records []Record) error
	LoadDeduplicated(ctx context.Context) ([]Record, error)
}
