package ai

import (
	"context"

	"github.com/amishk599/jobharvest/internal/model"
)

// NopEnricher is used when ai.enabled is false. It leaves every record
// unenriched and makes no LLM calls.
type NopEnricher struct{}

// NewNopEnricher returns a NopEnricher.
func NewNopEnricher() *NopEnricher {
	return &NopEnricher{}
}

// Enrich counts every record as skipped.
func (n *NopEnricher) Enrich(_ context.Context, records []model.Record, _ Checkpoint) (Summary, error) {
	return Summary{Total: len(records), Skipped: len(records)}, nil
}
