package swarm

import (
	"context"
	"fmt"
	"time"

	"github.com/strands/strands/internal/adapters"
	"github.com/strands/strands/internal/cache"
	"github.com/strands/strands/internal/correlate"
	"github.com/strands/strands/internal/domain"
)

// CorrelatorSpecialist runs C4's Pearson/lag/Bayesian analysis between
// the cluster's canonical service metric and a fixed comparison
// expression (e.g. a shared dependency's saturation metric), folding
// the resulting CorrelationPattern into a SpecialistResult.
type CorrelatorSpecialist struct {
	source       adapters.MetricsSource
	primaryExpr  string
	compareExpr  string
	compareName  string
	lookback     time.Duration
	options      correlate.Options
	cache        cache.Provider
	cacheTTL     time.Duration
}

// NewCorrelatorSpecialist builds the correlator specialist. cacheProvider
// may be cache.NoopProvider{} to disable the pattern cache entirely.
func NewCorrelatorSpecialist(source adapters.MetricsSource, primaryExpr, compareExpr, compareName string, lookback time.Duration, cacheProvider cache.Provider, cacheTTL time.Duration) *CorrelatorSpecialist {
	if lookback <= 0 {
		lookback = 15 * time.Minute
	}
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	return &CorrelatorSpecialist{
		source:      source,
		primaryExpr: primaryExpr,
		compareExpr: compareExpr,
		compareName: compareName,
		lookback:    lookback,
		options:     correlate.DefaultOptions(),
		cache:       cacheProvider,
		cacheTTL:    cacheTTL,
	}
}

func (s *CorrelatorSpecialist) ID() string { return "correlator" }

func (s *CorrelatorSpecialist) Investigate(ctx context.Context, cluster *domain.AlertCluster) (domain.SpecialistResult, error) {
	end := cluster.Latest
	if end.IsZero() {
		end = time.Now()
	}
	start := end.Add(-s.lookback)

	primary, err := s.source.QueryRange(ctx, fmt.Sprintf(s.primaryExpr, cluster.CanonicalService), start, end, time.Minute)
	if err != nil {
		return domain.SpecialistResult{}, err
	}
	compare, err := s.source.QueryRange(ctx, s.compareExpr, start, end, time.Minute)
	if err != nil {
		return domain.SpecialistResult{}, err
	}

	a := toSamples(primary)
	b := toSamples(compare)
	pattern := correlate.AnalyzeCached(ctx, s.cache, cluster.ID, domain.CorrelationMetricMetric, cluster.CanonicalService, s.compareName, a, b, s.options, s.cacheTTL)

	if pattern.DegenerateReason != "" {
		return domain.SpecialistResult{
			Hypothesis:     fmt.Sprintf("correlation analysis degenerate: %s", pattern.DegenerateReason),
			BaseConfidence: 0.1,
		}, nil
	}

	evidence := []domain.EvidenceItem{{
		Kind:        domain.EvidenceMetric,
		Source:      s.compareName,
		Description: fmt.Sprintf("r=%.3f lag=%d p=%.4f posterior=%.3f", pattern.PearsonR, pattern.LagOffset, pattern.PValue, pattern.Posterior),
		Quality:     pattern.Posterior,
	}}

	return domain.SpecialistResult{
		Hypothesis:       fmt.Sprintf("%s correlates with %s (lag %d samples, r=%.2f)", cluster.CanonicalService, s.compareName, pattern.LagOffset, pattern.PearsonR),
		BaseConfidence:    pattern.Posterior,
		Evidence:         evidence,
		SuggestedActions: []string{"investigate shared dependency " + s.compareName},
	}, nil
}

func toSamples(points []adapters.MetricPoint) []correlate.Sample {
	samples := make([]correlate.Sample, len(points))
	for i, p := range points {
		samples[i] = correlate.Sample{Index: int64(i), Value: p.Value}
	}
	return samples
}
