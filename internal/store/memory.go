package store

import (
	"context"
	"slices"
	"sync"

	"github.com/amishk599/jobharvest/internal/model"
)

// MemoryStore keeps records in process memory. It is used in dry-run mode,
// where nothing should be written to disk.
type MemoryStore struct {
	mu         sync.Mutex
	raw        []model.Record
	byID       map[string]int
	enrichment map[string]*model.Attributes
	dedup      []model.Record
}

var _ model.RecordStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[string]int),
		enrichment: make(map[string]*model.Attributes),
	}
}

func (s *MemoryStore) AppendRaw(_ context.Context, records []model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if _, ok := s.byID[r.ID]; ok {
			continue
		}
		r.Enrichment = nil
		s.byID[r.ID] = len(s.raw)
		s.raw = append(s.raw, r)
	}
	return nil
}

func (s *MemoryStore) LoadRaw(_ context.Context) ([]model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withEnrichment(s.raw), nil
}

func (s *MemoryStore) SaveEnrichment(_ context.Context, records []model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveEnrichment(records)
	return nil
}

func (s *MemoryStore) ReplaceDeduplicated(_ context.Context, records []model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dedup = slices.Clone(records)
	for i := range s.dedup {
		s.dedup[i].Enrichment = nil
	}
	s.saveEnrichment(records)
	return nil
}

func (s *MemoryStore) LoadDeduplicated(_ context.Context) ([]model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withEnrichment(s.dedup), nil
}

// CountBySource returns the number of deduplicated records per source.
func (s *MemoryStore) CountBySource(_ context.Context) (map[model.Source]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[model.Source]int)
	for _, r := range s.dedup {
		counts[r.Source]++
	}
	return counts, nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) saveEnrichment(records []model.Record) {
	for _, r := range records {
		if r.Enrichment != nil {
			a := *r.Enrichment
			s.enrichment[r.ID] = &a
		}
	}
}

func (s *MemoryStore) withEnrichment(records []model.Record) []model.Record {
	if len(records) == 0 {
		return nil
	}
	out := slices.Clone(records)
	for i := range out {
		if a, ok := s.enrichment[out[i].ID]; ok {
			cp := *a
			out[i].Enrichment = &cp
		}
	}
	return out
}
