package source

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/jobharvest/internal/model"
)

// Listing is what a listing page yields.
type Listing struct {
	Refs      []string // absolute detail-page addresses, in page order
	NoResults bool     // the site explicitly reported an empty result set
	LastPage  int      // highest page advertised by the pagination bar, 0 if unknown
}

// Site maps one listing site's pages to canonical records. Implementations
// hold all knowledge of the site's markup; callers only see this interface.
type Site interface {
	Name() model.Source
	ListingURL(term string, page int) string
	ParseListing(doc []byte) (Listing, error)
	// ParseDetail extracts one record from a detail page. now is the crawl
	// time, used to resolve relative publication dates. Records missing a
	// title or description are rejected with model.ErrExtraction.
	ParseDetail(doc []byte, detailURL string, now time.Time) (model.Record, error)
}

// Options configures a site. Zero values fall back to the site's defaults.
type Options struct {
	BaseURL string
	Locale  string
}

// New builds the site registered under name (case-insensitive).
func New(name string, opts Options) (Site, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "optioncarriere":
		return NewOptioncarriere(opts), nil
	case "keejob":
		return NewKeejob(opts), nil
	default:
		return nil, fmt.Errorf("unknown source %q", name)
	}
}

// Names lists the registered site names.
func Names() []string {
	return []string{"optioncarriere", "keejob"}
}

func parseDocument(doc []byte) (*goquery.Document, error) {
	d, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: parse document: %w", model.ErrExtraction, err)
	}
	return d, nil
}

// resolve turns a possibly relative href into an absolute address.
func resolve(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return strings.TrimRight(base, "/") + href
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return strings.TrimRight(base, "/") + href
	}
	return b.ResolveReference(ref).String()
}

func requireFields(r model.Record, detailURL string) error {
	if r.JobTitle == "" {
		return fmt.Errorf("%w: %s: missing job title", model.ErrExtraction, detailURL)
	}
	if r.Description == "" {
		return fmt.Errorf("%w: %s: missing description", model.ErrExtraction, detailURL)
	}
	return nil
}

// firstText returns the cleaned text of the first match, "" if none.
func firstText(s *goquery.Selection, selector string) string {
	return CleanText(s.Find(selector).First().Text())
}
