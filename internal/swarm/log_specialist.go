package swarm

import (
	"context"
	"fmt"
	"time"

	"github.com/strands/strands/internal/adapters"
	"github.com/strands/strands/internal/domain"
	"github.com/strands/strands/internal/extractors"
)

// LogSpecialist inspects recent logs from the cluster's canonical
// service for volume/error spikes.
type LogSpecialist struct {
	introspection adapters.ClusterIntrospection
	extractor     *extractors.LogsExtractor
	lookback      time.Duration
	lines         int
}

// NewLogSpecialist builds the log-inspector specialist.
func NewLogSpecialist(introspection adapters.ClusterIntrospection, lookback time.Duration, lines int) *LogSpecialist {
	if lookback <= 0 {
		lookback = 15 * time.Minute
	}
	if lines <= 0 {
		lines = 500
	}
	return &LogSpecialist{introspection: introspection, extractor: extractors.NewLogsExtractor(), lookback: lookback, lines: lines}
}

func (s *LogSpecialist) ID() string { return "log-inspector" }

func (s *LogSpecialist) Investigate(ctx context.Context, cluster *domain.AlertCluster) (domain.SpecialistResult, error) {
	since := cluster.Latest.Add(-s.lookback)
	if cluster.Latest.IsZero() {
		since = time.Now().Add(-s.lookback)
	}

	raw, err := s.introspection.FetchLogs(ctx, cluster.CanonicalService, since, s.lines)
	if err != nil {
		return domain.SpecialistResult{}, err
	}

	anomalies := s.extractor.Detect(raw, since)
	if len(anomalies) == 0 {
		return domain.SpecialistResult{
			Hypothesis:     fmt.Sprintf("no log anomalies detected for %s", cluster.CanonicalService),
			BaseConfidence: 0.2,
		}, nil
	}

	evidence := make([]domain.EvidenceItem, 0, len(anomalies))
	for _, a := range anomalies {
		evidence = append(evidence, domain.EvidenceItem{
			Kind:        domain.EvidenceLog,
			Source:      cluster.CanonicalService,
			Description: fmt.Sprintf("%s spike: %d lines, score %.2f", a.Severity, a.Count, a.Score),
			Quality:     clampUnit(a.Score / 5),
			Timestamp:   a.Timestamp,
			Payload:     float64(a.Count),
			HasPayload:  true,
		})
	}

	return domain.SpecialistResult{
		Hypothesis:       fmt.Sprintf("log volume/error anomaly detected for %s", cluster.CanonicalService),
		BaseConfidence:    clampUnit(float64(len(anomalies)) / 10),
		Evidence:         evidence,
		SuggestedActions: []string{"tail logs for " + cluster.CanonicalService + " around the flagged window"},
	}, nil
}
