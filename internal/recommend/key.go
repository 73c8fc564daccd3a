// Package recommend implements C7: resolving a DecisionCandidate to a
// playbook via the known -> generated -> fallback chain, generalising
// the teacher's RuleEngine (internal/engine/rules.go) rule-matching
// style onto a scored playbook lookup against C8.
package recommend

import (
	"fmt"

	"github.com/strands/strands/internal/domain"
)

// Key is the (pattern_type, service_pattern) lookup key spec.md
// section 4.7 step 1 defines.
type Key struct {
	PatternType    domain.CorrelationType
	ServicePattern string
}

// String renders the key as the cache-aside lookup string
// PlaybookLookupKey keys on.
func (k Key) String() string {
	return fmt.Sprintf("%s|%s", k.PatternType, k.ServicePattern)
}

// KeyFor derives the playbook key from a decision's dominant
// correlation pattern (the contributing-evidence item with the highest
// quality, if the decision carries correlation evidence) and the
// cluster's canonical service.
func KeyFor(cluster *domain.AlertCluster, dominantPattern domain.CorrelationType) Key {
	return Key{PatternType: dominantPattern, ServicePattern: cluster.CanonicalService}
}

// DominantPattern picks the correlation pattern type a playbook key
// should be filed under, based on which specialist contributed the
// strongest result: the correlator's findings are inherently
// METRIC_METRIC; a log-inspector-led investigation is filed as
// LOG_METRIC, the most common pattern this system observes. Absent any
// successful specialist, LOG_METRIC is used as the default bucket.
func DominantPattern(results []domain.SpecialistResult) domain.CorrelationType {
	best := domain.SpecialistResult{}
	for _, r := range results {
		if r.Status != domain.CompletionSuccess {
			continue
		}
		if r.BaseConfidence > best.BaseConfidence {
			best = r
		}
	}
	if best.SpecialistID == "correlator" {
		return domain.CorrelationMetricMetric
	}
	return domain.CorrelationLogMetric
}
