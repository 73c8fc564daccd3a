package ingest

import (
	"context"

	"github.com/strands/strands/internal/domain"
)

// CycleResult is everything one ingestion cycle produced, returned to
// the controller (C11) for dispatch.
type CycleResult struct {
	Provider string
	Clusters []*domain.AlertCluster
	Rejected []domain.NormalisedAlert
	Admitted int
	Dropped  int
}

// Pipeline wires the collector, normaliser and deduplicator into one
// per-tick operation. The deduplicator is long-lived across cycles (the
// dedup window spans cycles); the clusterer is fresh every call.
type Pipeline struct {
	collector    *Collector
	normaliser   *Normaliser
	deduplicator *Deduplicator
}

// NewPipeline builds a C3 pipeline from its three stages.
func NewPipeline(collector *Collector, normaliser *Normaliser, deduplicator *Deduplicator) *Pipeline {
	return &Pipeline{collector: collector, normaliser: normaliser, deduplicator: deduplicator}
}

// Run executes one ingestion cycle: collect, normalise, dedup, cluster.
// A NO_PROVIDER_AVAILABLE error propagates unchanged so the controller
// can skip this tick per spec.md section 4.3.
func (p *Pipeline) Run(ctx context.Context) (CycleResult, error) {
	raw, provider, err := p.collector.Collect(ctx)
	if err != nil {
		return CycleResult{}, err
	}

	clusterer := NewClusterer()
	result := CycleResult{Provider: provider}

	for _, r := range raw {
		normalised := p.normaliser.Normalise(r)
		if !normalised.Validation.Valid {
			result.Rejected = append(result.Rejected, normalised)
			continue
		}
		if !p.deduplicator.Admit(normalised) {
			result.Dropped++
			continue
		}
		result.Admitted++
		clusterer.Add(normalised)
	}

	result.Clusters = clusterer.Finalize()
	return result, nil
}
