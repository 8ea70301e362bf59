package source

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/jobharvest/internal/model"
)

const (
	optioncarriereBaseURL = "https://www.optioncarriere.tn"
	optioncarriereLocale  = "Tunisie"
)

// Optioncarriere extracts postings from an Optioncarriere job board.
type Optioncarriere struct {
	baseURL string
	locale  string
}

// NewOptioncarriere creates the extractor. Empty options default to the
// Tunisian board.
func NewOptioncarriere(opts Options) *Optioncarriere {
	o := &Optioncarriere{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		locale:  opts.Locale,
	}
	if o.baseURL == "" {
		o.baseURL = optioncarriereBaseURL
	}
	if o.locale == "" {
		o.locale = optioncarriereLocale
	}
	return o
}

func (o *Optioncarriere) Name() model.Source { return model.SourceOptioncarriere }

func (o *Optioncarriere) ListingURL(term string, page int) string {
	q := url.Values{}
	q.Set("s", term)
	q.Set("l", o.locale)
	q.Set("p", fmt.Sprint(page))
	return o.baseURL + "/emploi?" + q.Encode()
}

func (o *Optioncarriere) ParseListing(doc []byte) (Listing, error) {
	d, err := parseDocument(doc)
	if err != nil {
		return Listing{}, err
	}

	var l Listing
	d.Find("p.mb-2").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if strings.Contains(p.Text(), "Aucun résultat") {
			l.NoResults = true
			return false
		}
		return true
	})
	if l.NoResults {
		return l, nil
	}

	d.Find("article.job.clicky").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("data-url"); ok && strings.TrimSpace(href) != "" {
			l.Refs = append(l.Refs, resolve(o.baseURL, href))
		}
	})
	return l, nil
}

func (o *Optioncarriere) ParseDetail(doc []byte, detailURL string, now time.Time) (model.Record, error) {
	d, err := parseDocument(doc)
	if err != nil {
		return model.Record{}, err
	}

	r := model.Record{
		Company:     firstText(d.Selection, "p.company"),
		Description: firstText(d.Selection, "section.content"),
		JobTitle:    firstText(d.Selection, "h1"),
		Source:      model.SourceOptioncarriere,
		SourceURL:   detailURL,
	}

	if ul := d.Find("ul.details").First(); ul.Length() > 0 {
		if loc := ul.Find("li").First(); loc.Length() > 0 {
			if hasLocationIcon(loc) {
				r.WorkLocation = firstText(loc, "span")
			} else {
				r.WorkLocation = CleanText(loc.Text())
			}
			jobType := loc.Next()
			r.JobType = CleanText(jobType.Text())
			r.Availability = CleanText(jobType.Next().Text())
		}
	}

	badge := d.Find("ul.tags span.badge.badge-r.badge-s").First()
	if t, ok := RelativeDate(badge.Text(), now); ok {
		r.PublishedDate = &t
	}

	if err := requireFields(r, detailURL); err != nil {
		return model.Record{}, err
	}
	return r, nil
}

// hasLocationIcon reports whether the list item carries the location glyph,
// either on the svg itself or on its <use> child.
func hasLocationIcon(li *goquery.Selection) bool {
	found := false
	li.Find("svg, svg use").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, a := range s.Nodes[0].Attr {
			if (a.Key == "href" || a.Key == "xlink:href") && strings.Contains(a.Val, "icon-location") {
				found = true
				return false
			}
		}
		return true
	})
	return found
}
