package recommend

import (
	"math"

	"github.com/strands/strands/internal/domain"
)

// AdaptiveScore implements spec.md section 4.7 step 3:
// correlation_confidence * success_rate * ln(1 + total_executions).
func AdaptiveScore(correlationConfidence float64, stats domain.PlaybookStats) float64 {
	return correlationConfidence * stats.SuccessRate() * math.Log1p(float64(stats.TotalExecutions))
}

// Rank orders candidates by descending AdaptiveScore, tie-breaking on
// most-recent LastExecutedAt (spec.md section 4.7 step 3).
func Rank(candidates []domain.Playbook, correlationConfidence float64) []domain.Playbook {
	ranked := make([]domain.Playbook, len(candidates))
	copy(ranked, candidates)

	scores := make(map[string]float64, len(ranked))
	for _, p := range ranked {
		scores[p.ID] = AdaptiveScore(correlationConfidence, p.Stats)
	}

	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0; j-- {
			a, b := ranked[j-1], ranked[j]
			if less(scores[a.ID], a, scores[b.ID], b) {
				break
			}
			ranked[j-1], ranked[j] = ranked[j], ranked[j-1]
		}
	}
	return ranked
}

// less reports whether a should sort before b: higher score first,
// ties broken by more-recent LastExecutedAt.
func less(scoreA float64, a domain.Playbook, scoreB float64, b domain.Playbook) bool {
	if scoreA != scoreB {
		return scoreA > scoreB
	}
	return a.Stats.LastExecutedAt.After(b.Stats.LastExecutedAt)
}
