package swarm

import (
	"context"
	"fmt"
	"time"

	"github.com/strands/strands/internal/adapters"
	"github.com/strands/strands/internal/domain"
	"github.com/strands/strands/internal/extractors"
)

// MetricsSpecialist inspects the cluster's canonical service's metric
// series for anomalies, generalising the teacher's
// engine.Pipeline.buildAnchors metrics branch into a standalone
// specialist.
type MetricsSpecialist struct {
	source    adapters.MetricsSource
	extractor *extractors.MetricExtractor
	lookback  time.Duration
	threshold float64
	expr      string
}

// NewMetricsSpecialist builds the metrics-analyst specialist. expr is
// the metric query template; lookback defaults to 15 minutes and
// threshold to 2.5 (extractors.MetricExtractor's default) when zero.
func NewMetricsSpecialist(source adapters.MetricsSource, expr string, lookback time.Duration, threshold float64) *MetricsSpecialist {
	if lookback <= 0 {
		lookback = 15 * time.Minute
	}
	return &MetricsSpecialist{source: source, extractor: extractors.NewMetricExtractor(), lookback: lookback, threshold: threshold, expr: expr}
}

func (s *MetricsSpecialist) ID() string { return "metrics-analyst" }

func (s *MetricsSpecialist) Investigate(ctx context.Context, cluster *domain.AlertCluster) (domain.SpecialistResult, error) {
	end := cluster.Latest
	if end.IsZero() {
		end = time.Now()
	}
	start := end.Add(-s.lookback)

	points, err := s.source.QueryRange(ctx, fmt.Sprintf(s.expr, cluster.CanonicalService), start, end, time.Minute)
	if err != nil {
		return domain.SpecialistResult{}, err
	}

	anomalies := s.extractor.Detect(points, s.threshold)
	if len(anomalies) == 0 {
		return domain.SpecialistResult{
			Hypothesis:     fmt.Sprintf("no metric anomalies detected for %s", cluster.CanonicalService),
			BaseConfidence: 0.2,
		}, nil
	}

	evidence := make([]domain.EvidenceItem, 0, len(anomalies))
	for _, a := range anomalies {
		evidence = append(evidence, domain.EvidenceItem{
			Kind:        domain.EvidenceMetric,
			Source:      s.expr,
			Description: fmt.Sprintf("z-score %.2f at %s", a.Score, a.Timestamp.Format(time.RFC3339)),
			Quality:     clampUnit(a.Score / 5),
			Timestamp:   a.Timestamp,
			Payload:     a.Value,
			HasPayload:  true,
		})
	}

	return domain.SpecialistResult{
		Hypothesis:       fmt.Sprintf("metric anomaly detected for %s (%d samples over threshold)", cluster.CanonicalService, len(anomalies)),
		BaseConfidence:    clampUnit(float64(len(anomalies)) / float64(len(points))),
		Evidence:         evidence,
		SuggestedActions: []string{"inspect " + cluster.CanonicalService + " dashboards for the anomalous window"},
	}, nil
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
