package dedup

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/amishk599/jobharvest/internal/model"
)

// DefaultThreshold is the cosine similarity at which two descriptions are
// treated as the same posting.
const DefaultThreshold = 0.92

// Linkage selects how a cluster grows.
type Linkage string

const (
	// LinkageSeed compares candidates with the cluster's first member only.
	LinkageSeed Linkage = "seed"
	// LinkageChain also admits candidates similar to any member already in
	// the cluster, so A~B and B~C put A, B and C together.
	LinkageChain Linkage = "chain"
)

// Config tunes a Detector.
type Config struct {
	Threshold       float64
	Languages       []string // ISO 639-1 codes processed; others are unsupported
	Linkage         Linkage
	KeepUnsupported bool // pass unsupported-language records through untouched
}

// Result partitions the input. Every slice preserves input order.
type Result struct {
	Kept        []model.Record
	Discarded   []model.Record
	Unsupported []model.Record // detected language outside Config.Languages
}

// Detector removes near-duplicate postings within each language.
type Detector struct {
	cfg       Config
	lang      model.LanguageDetector
	stopWords map[string]map[string]bool
	logger    *slog.Logger
}

// NewDetector validates cfg and loads the stop words for every configured
// language.
func NewDetector(cfg Config, lang model.LanguageDetector, logger *slog.Logger) (*Detector, error) {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Threshold > 1 {
		return nil, fmt.Errorf("threshold %v out of range (0, 1]", cfg.Threshold)
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"en", "fr"}
	}
	switch cfg.Linkage {
	case "":
		cfg.Linkage = LinkageSeed
	case LinkageSeed, LinkageChain:
	default:
		return nil, fmt.Errorf("unknown linkage %q", cfg.Linkage)
	}

	d := &Detector{
		cfg:       cfg,
		lang:      lang,
		stopWords: make(map[string]map[string]bool),
		logger:    logger,
	}
	for _, l := range cfg.Languages {
		words, err := StopWords(l)
		if err != nil {
			return nil, err
		}
		d.stopWords[l] = words
	}
	return d, nil
}

// Detect clusters near-identical descriptions per language and keeps the
// earliest-scraped record of each cluster. A record without a description
// or scrape time fails the whole batch with model.ErrPrecondition.
func (d *Detector) Detect(records []model.Record) (Result, error) {
	for i, r := range records {
		if strings.TrimSpace(r.Description) == "" {
			return Result{}, fmt.Errorf("%w: record %d (%s): missing description", model.ErrPrecondition, i, r.ID)
		}
		if r.ScrapedAt.IsZero() {
			return Result{}, fmt.Errorf("%w: record %d (%s): missing scrape time", model.ErrPrecondition, i, r.ID)
		}
	}

	var order []string
	partitions := make(map[string][]int)
	for i, r := range records {
		l := d.lang.Detect(r.Description)
		if _, ok := partitions[l]; !ok {
			order = append(order, l)
		}
		partitions[l] = append(partitions[l], i)
	}

	keep := make([]bool, len(records))
	unsupported := make([]bool, len(records))

	for _, l := range order {
		idx := partitions[l]
		stop, ok := d.stopWords[l]
		if !ok {
			d.logger.Warn("unsupported language partition",
				"language", l,
				"records", len(idx),
				"kept", d.cfg.KeepUnsupported,
			)
			for _, i := range idx {
				unsupported[i] = true
				keep[i] = d.cfg.KeepUnsupported
			}
			continue
		}

		docs := make([]string, len(idx))
		for k, i := range idx {
			docs[k] = records[i].Description
		}
		sim := similarityMatrix(docs, stop)
		clusters := cluster(sim, d.cfg.Threshold, d.cfg.Linkage)

		for _, c := range clusters {
			keep[idx[survivor(records, idx, c)]] = true
		}

		d.logger.Info("deduplicated language partition",
			"language", l,
			"records", len(idx),
			"clusters", len(clusters),
		)
	}

	var res Result
	for i, r := range records {
		switch {
		case keep[i]:
			res.Kept = append(res.Kept, r)
		case !unsupported[i]:
			res.Discarded = append(res.Discarded, r)
		}
		if unsupported[i] {
			res.Unsupported = append(res.Unsupported, r)
		}
	}
	return res, nil
}

// cluster groups partition positions greedily in order. Each unassigned
// position starts a cluster; later unassigned positions join when their
// similarity reaches threshold against the seed, or against any member when
// linkage is LinkageChain.
func cluster(sim [][]float64, threshold float64, linkage Linkage) [][]int {
	assigned := make([]bool, len(sim))
	var clusters [][]int

	for seed := range sim {
		if assigned[seed] {
			continue
		}
		assigned[seed] = true
		members := []int{seed}

		for k := 0; k < len(members); k++ {
			m := members[k]
			for j := seed + 1; j < len(sim); j++ {
				if !assigned[j] && sim[m][j] >= threshold {
					assigned[j] = true
					members = append(members, j)
				}
			}
			if linkage != LinkageChain {
				break
			}
		}

		slices.Sort(members)
		clusters = append(clusters, members)
	}
	return clusters
}

// survivor returns the cluster position holding the earliest scrape time;
// the first encountered wins a tie.
func survivor(records []model.Record, idx []int, members []int) int {
	best := members[0]
	for _, m := range members[1:] {
		if records[idx[m]].ScrapedAt.Before(records[idx[best]].ScrapedAt) {
			best = m
		}
	}
	return best
}
