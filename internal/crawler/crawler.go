package crawler

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobharvest/internal/model"
	"github.com/amishk599/jobharvest/internal/source"
)

// DefaultMaxPages caps pagination discovery when none is configured.
const DefaultMaxPages = 50

// Config tunes a Crawler.
type Config struct {
	MaxPages    int // upper bound on discovered pages per target
	Concurrency int // targets crawled at once, 0 means all
}

// Target is one (site, search term) pair crawled as an independent task.
type Target struct {
	Site source.Site
	Term string
}

// Crawler drives pagination discovery and detail extraction for a site. It
// only talks to sites through the source.Site interface.
type Crawler struct {
	fetcher model.DocumentFetcher
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// New creates a crawler fetching through fetcher.
func New(fetcher model.DocumentFetcher, cfg Config, logger *slog.Logger) *Crawler {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	return &Crawler{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Discover probes listing pages sequentially from page 1 and returns the
// number of pages holding results. It always terminates: a fetch or parse
// failure on a probe is reported and treated as the end of the listing.
func (c *Crawler) Discover(ctx context.Context, site source.Site, term string, sink FailureSink) int {
	pages, _ := c.discover(ctx, site, term, sink)
	return len(pages)
}

// Crawl returns a lazy sequence of records for one site and term. Listing
// pages are discovered on first iteration; each detail page is fetched only
// when the consumer asks for the next record. Failures are reported to sink
// and never end the sequence early.
func (c *Crawler) Crawl(ctx context.Context, site source.Site, term string, sink FailureSink) iter.Seq[model.Record] {
	return func(yield func(model.Record) bool) {
		c.crawl(ctx, site, term, sink, yield)
	}
}

// CrawlAll crawls every target concurrently, each one sequentially inside
// its own task. Records come back grouped in target order so a run is
// deterministic for a given configuration. Returns model.ErrNoSourceReachable,
// along with whatever was collected, only when every target failed its very
// first listing fetch.
func (c *Crawler) CrawlAll(ctx context.Context, targets []Target, sink FailureSink) ([]model.Record, error) {
	results := make([][]model.Record, len(targets))
	reached := make([]bool, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	if c.cfg.Concurrency > 0 {
		g.SetLimit(c.cfg.Concurrency)
	}
	for i, t := range targets {
		g.Go(func() error {
			reached[i] = c.crawl(gctx, t.Site, t.Term, sink, func(r model.Record) bool {
				results[i] = append(results[i], r)
				return true
			})
			return nil
		})
	}
	_ = g.Wait() // tasks never fail; errors are isolated per item

	var records []model.Record
	anyReached := false
	for i := range targets {
		records = append(records, results[i]...)
		anyReached = anyReached || reached[i]
	}

	if len(targets) > 0 && !anyReached {
		return records, fmt.Errorf("crawl %d targets: %w", len(targets), model.ErrNoSourceReachable)
	}
	return records, nil
}

// crawl runs discovery then walks the detail pages, handing each record to
// yield. Reports whether the first listing page could be fetched.
func (c *Crawler) crawl(ctx context.Context, site source.Site, term string, sink FailureSink, yield func(model.Record) bool) bool {
	pages, reachable := c.discover(ctx, site, term, sink)
	c.logger.Info("discovered listing pages",
		"source", site.Name(),
		"term", term,
		"pages", len(pages),
	)

	seen := make(map[string]bool)
	extracted := 0
	for i, listing := range pages {
		page := i + 1
		for _, ref := range listing.Refs {
			if ctx.Err() != nil {
				return reachable
			}
			if seen[ref] {
				continue
			}
			seen[ref] = true

			rec, ok := c.extract(ctx, site, term, model.RawListingRef{Page: page, URL: ref}, sink)
			if !ok {
				continue
			}
			extracted++
			if !yield(rec) {
				return reachable
			}
		}
	}

	c.logger.Info("crawled source",
		"source", site.Name(),
		"term", term,
		"records", extracted,
	)
	return reachable
}

// discover fetches listing pages 1..N and keeps the parsed result of each,
// so the crawl phase does not download them twice.
func (c *Crawler) discover(ctx context.Context, site source.Site, term string, sink FailureSink) ([]source.Listing, bool) {
	var pages []source.Listing
	reachable := false

	for page := 1; page <= c.cfg.MaxPages; page++ {
		if ctx.Err() != nil {
			break
		}
		url := site.ListingURL(term, page)

		doc, err := c.fetcher.Fetch(ctx, url)
		if err != nil {
			sink.Report(Failure{Kind: KindFetch, Source: site.Name(), Term: term, Page: page, URL: url, Err: err})
			break
		}
		if page == 1 {
			reachable = true
		}

		listing, err := site.ParseListing(doc)
		if err != nil {
			sink.Report(Failure{Kind: KindExtraction, Source: site.Name(), Term: term, Page: page, URL: url, Err: err})
			break
		}
		if listing.NoResults || len(listing.Refs) == 0 {
			break
		}

		c.logger.Debug("listing page has results",
			"source", site.Name(),
			"term", term,
			"page", page,
			"items", len(listing.Refs),
		)
		pages = append(pages, listing)

		if listing.LastPage > 0 && page >= listing.LastPage {
			break
		}
	}
	return pages, reachable
}

func (c *Crawler) extract(ctx context.Context, site source.Site, term string, ref model.RawListingRef, sink FailureSink) (model.Record, bool) {
	doc, err := c.fetcher.Fetch(ctx, ref.URL)
	if err != nil {
		sink.Report(Failure{Kind: KindFetch, Source: site.Name(), Term: term, Page: ref.Page, URL: ref.URL, Err: err})
		return model.Record{}, false
	}

	now := c.now()
	rec, err := site.ParseDetail(doc, ref.URL, now)
	if err != nil {
		sink.Report(Failure{Kind: KindExtraction, Source: site.Name(), Term: term, Page: ref.Page, URL: ref.URL, Err: err})
		return model.Record{}, false
	}

	rec.ID = c.newID()
	rec.SearchTerm = term
	rec.ScrapedAt = now.UTC()
	return rec, true
}
