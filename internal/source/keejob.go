package source

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/amishk599/jobharvest/internal/model"
)

const keejobBaseURL = "https://www.keejob.com"

// Keejob extracts postings from keejob.com.
type Keejob struct {
	baseURL string
}

// NewKeejob creates the extractor. Keejob has no locale parameter.
func NewKeejob(opts Options) *Keejob {
	k := &Keejob{baseURL: strings.TrimRight(opts.BaseURL, "/")}
	if k.baseURL == "" {
		k.baseURL = keejobBaseURL
	}
	return k
}

func (k *Keejob) Name() model.Source { return model.SourceKeejob }

func (k *Keejob) ListingURL(term string, page int) string {
	q := url.Values{}
	q.Set("keywords", term)
	q.Set("page", fmt.Sprint(page))
	return k.baseURL + "/offres-emploi/?" + q.Encode()
}

func (k *Keejob) ParseListing(doc []byte) (Listing, error) {
	d, err := parseDocument(doc)
	if err != nil {
		return Listing{}, err
	}

	var l Listing
	d.Find("div.block_b.row-fluid").First().Find(`a[style="color: #005593;"]`).Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok && strings.TrimSpace(href) != "" {
			l.Refs = append(l.Refs, resolve(k.baseURL, href))
		}
	})

	// aria-label reads "Page N".
	d.Find("nav.nav-pagination a.page-link").Each(func(_ int, a *goquery.Selection) {
		fields := strings.Fields(a.AttrOr("aria-label", ""))
		if len(fields) == 0 {
			return
		}
		if n, err := strconv.Atoi(fields[len(fields)-1]); err == nil && n > l.LastPage {
			l.LastPage = n
		}
	})
	return l, nil
}

func (k *Keejob) ParseDetail(doc []byte, detailURL string, now time.Time) (model.Record, error) {
	d, err := parseDocument(doc)
	if err != nil {
		return model.Record{}, err
	}

	r := model.Record{
		Description: firstText(d.Selection, "div.block_a.span12.no-margin-left"),
		JobTitle:    firstText(d.Selection, "h1"),
		Source:      model.SourceKeejob,
		SourceURL:   detailURL,
	}

	if content := d.Find("div.span9.content").First(); content.Length() > 0 {
		r.Company = firstText(content.Find("b").First(), "a")
		r.Sector = labelledSibling(content, "Secteur:")
		r.CompanySize = labelledSibling(content, "Taille:")
	}

	d.Find("div.meta").Each(func(_ int, meta *goquery.Selection) {
		b := meta.Find("b").First()
		if b.Length() == 0 {
			return
		}
		label := strings.TrimSpace(strings.ReplaceAll(b.Text(), ":", ""))
		value := strings.ReplaceAll(meta.Text(), b.Text(), "")
		value = strings.TrimSpace(strings.ReplaceAll(value, ":", ""))
		parts := strings.Split(value, ">")
		k.applyMeta(&r, label, CleanText(parts[len(parts)-1]))
	})

	if err := requireFields(r, detailURL); err != nil {
		return model.Record{}, err
	}
	return r, nil
}

func (k *Keejob) applyMeta(r *model.Record, label, value string) {
	if value == "" {
		return
	}
	switch l := strings.ToLower(label); {
	case strings.HasPrefix(l, "publiée"):
		if t, ok := ParseDate(value); ok {
			r.PublishedDate = &t
		}
	case strings.HasPrefix(l, "référence"):
		r.Reference = value
	case strings.HasPrefix(l, "type de poste"):
		r.JobType = value
	case strings.HasPrefix(l, "lieu de travail"):
		r.WorkLocation = value
	case strings.HasPrefix(l, "expérience"):
		r.ExperienceText = value
	case strings.HasPrefix(l, "étude"):
		r.Education = value
	case strings.HasPrefix(l, "disponibilité"):
		r.Availability = value
	case strings.HasPrefix(l, "langue"):
		r.LanguagesMentioned = value
	case strings.HasPrefix(l, "rémunération"):
		r.ProposedRemuneration = value
	}
}

// labelledSibling finds the <b> whose text contains label and returns the
// text node immediately following it.
func labelledSibling(s *goquery.Selection, label string) string {
	b := s.Find("b").FilterFunction(func(_ int, b *goquery.Selection) bool {
		return strings.Contains(b.Text(), label)
	}).First()
	if b.Length() == 0 {
		return ""
	}
	next := b.Nodes[0].NextSibling
	if next == nil || next.Type != html.TextNode {
		return ""
	}
	return CleanText(next.Data)
}
