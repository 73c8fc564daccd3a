package playbook

import (
	"time"

	"github.com/strands/strands/internal/domain"
)

// RecordExecution applies the Welford update from spec.md section 4.8 to
// stats in place. It is the only function permitted to mutate
// PlaybookStats; callers (internal/adapters' graph-store client) run it
// inside the same transaction that persists the PlaybookExecution node,
// giving the atomic "one transaction per execution record" guarantee.
func RecordExecution(stats *domain.PlaybookStats, outcome domain.PlaybookOutcome, duration time.Duration) {
	n := stats.TotalExecutions + 1
	stats.TotalExecutions = n

	switch outcome {
	case domain.OutcomeSuccess:
		stats.SuccessCount++
	default:
		stats.FailureCount++
	}

	durationSeconds := duration.Seconds()
	delta := durationSeconds - stats.MeanDuration
	stats.MeanDuration += delta / float64(n)
	stats.M2Duration += delta * (durationSeconds - stats.MeanDuration)
	stats.LastExecutedAt = time.Now().UTC()
}
