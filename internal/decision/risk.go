package decision

import (
	"strings"

	"github.com/strands/strands/internal/domain"
)

// dataLossKeywords are the phrases risk grading treats as evidence of
// data loss (spec.md section 4.6 step 4's CRITICAL rule).
var dataLossKeywords = []string{
	"data loss", "data corruption", "dropped writes", "unrecoverable",
	"disk full", "volume deleted", "backup failed",
}

// resourceExhaustionKeywords flag memory/CPU saturation language for
// the HIGH rule.
var resourceExhaustionKeywords = []string{
	"oom", "out of memory", "memory exhaustion", "cpu throttl", "cpu saturat",
}

var restartLoopKeywords = []string{"crashloopbackoff", "restart loop", "container restarting"}

var latencyKeywords = []string{"latency", "slow response", "timeout increase"}

// GradeRisk implements spec.md section 4.6 step 4's enumerated rules,
// evaluated in priority order (CRITICAL, HIGH, MEDIUM, LOW, MINIMAL).
func GradeRisk(clusterSeverity domain.Severity, results []domain.SpecialistResult) domain.RiskLevel {
	text := concatenatedText(results)

	if clusterSeverity == domain.SeverityCritical && containsAny(text, dataLossKeywords) {
		return domain.RiskCritical
	}
	if clusterSeverity == domain.SeverityCritical || containsAny(text, resourceExhaustionKeywords) || containsAny(text, restartLoopKeywords) {
		return domain.RiskHigh
	}
	if clusterSeverity == domain.SeverityHigh || (containsAny(text, latencyKeywords) && !containsAny(text, resourceExhaustionKeywords)) {
		return domain.RiskMedium
	}
	if clusterSeverity == domain.SeverityWarning && isStableTrend(results) {
		return domain.RiskLow
	}
	return domain.RiskMinimal
}

func concatenatedText(results []domain.SpecialistResult) string {
	var b strings.Builder
	for _, r := range results {
		b.WriteString(strings.ToLower(r.Hypothesis))
		b.WriteString(" ")
		for _, e := range r.Evidence {
			b.WriteString(strings.ToLower(e.Description))
			b.WriteString(" ")
		}
	}
	return b.String()
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// isStableTrend treats low base-confidence across every specialist as
// a stand-in for "stable trend": no specialist found strong anomaly
// evidence.
func isStableTrend(results []domain.SpecialistResult) bool {
	for _, r := range results {
		if r.BaseConfidence >= 0.5 {
			return false
		}
	}
	return true
}
