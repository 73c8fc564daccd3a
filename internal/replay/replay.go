// Package replay implements C10: deterministic re-execution of
// recorded alerts against a frozen configuration snapshot, classifying
// each replayed decision against its original and rolling the results
// up into validation aggregates.
package replay

import (
	"context"
	"sort"

	"github.com/strands/strands/internal/domain"
)

// Snapshot freezes the configuration a replay run must use: model
// version, weight matrix version, and playbook versions in effect at
// the original decision time. Replay never reads live configuration.
type Snapshot struct {
	ModelVersion   string
	WeightsVersion string
	Seed           int64
}

// Decider is the narrow C5->C6 contract replay drives per event: run
// the same investigate-then-fuse path the controller runs, using the
// frozen snapshot rather than live weights/policy.
type Decider interface {
	Decide(ctx context.Context, event domain.ReplayEvent, snapshot Snapshot) (domain.DecisionCandidate, error)
}

// Result is one event's replay outcome.
type Result struct {
	Event          domain.ReplayEvent
	Replayed       domain.DecisionCandidate
	Classification domain.ReplayClassification
	Err            error
}

// Aggregate summarises a replay run across all events, per spec.md
// section 4.10/8: alignment rate, the number of replayed decisions per
// confidence bucket (ConfidenceBucketHits; no per-bucket precision is
// computed), and the unsafe-bypass invariant that must be zero to pass
// validation.
type Aggregate struct {
	Total               int
	Matches             int
	DivergenceSafe       int
	DivergenceUnsafe     int
	UnsafeBypassCount    int
	AlignmentRate        float64
	ConfidenceBucketHits map[string]int
	Pass                 bool
}

// Run replays every event in id-sorted (timestamp-then-fingerprint)
// order for determinism, classifies each, and rolls up the aggregate.
// Events are processed strictly sequentially: replay is audit-only and
// never runs concurrently with itself, keeping floating-point
// reduction order pinned (spec.md section 9).
func Run(ctx context.Context, decider Decider, events []domain.ReplayEvent, mode domain.ReplayMode, snapshot Snapshot) ([]Result, Aggregate) {
	ordered := make([]domain.ReplayEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		ti, tj := ordered[i].OriginalTimestamp, ordered[j].OriginalTimestamp
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return ordered[i].OriginalAlert.Fingerprint < ordered[j].OriginalAlert.Fingerprint
	})

	results := make([]Result, 0, len(ordered))
	agg := Aggregate{ConfidenceBucketHits: map[string]int{}}

	for _, event := range ordered {
		replayed, err := decider.Decide(ctx, event, snapshot)
		result := Result{Event: event, Replayed: replayed, Err: err}
		if err != nil {
			results = append(results, result)
			continue
		}

		result.Classification = Classify(event.OriginalDecision, replayed)
		results = append(results, result)

		agg.Total++
		switch result.Classification {
		case domain.ReplayMatch:
			agg.Matches++
		case domain.ReplayDivergenceSafe:
			agg.DivergenceSafe++
		case domain.ReplayDivergenceUnsafe:
			agg.DivergenceUnsafe++
			agg.UnsafeBypassCount++
		}
		agg.ConfidenceBucketHits[confidenceBucket(replayed.Confidence)]++
	}

	if agg.Total > 0 {
		agg.AlignmentRate = float64(agg.Matches) / float64(agg.Total)
	}
	agg.Pass = agg.UnsafeBypassCount == 0

	return results, agg
}

// Classify compares an original decision against its replay and
// buckets the comparison per spec.md section 4.10: match (same risk
// and automation), divergence-safe (risk bucket unchanged), or
// divergence-unsafe (a high-risk original became auto-approvable in
// replay, or vice-versa).
func Classify(original, replayed domain.DecisionCandidate) domain.ReplayClassification {
	if original.Risk == replayed.Risk && original.Automation == replayed.Automation {
		return domain.ReplayMatch
	}

	originalHigh := original.Risk == domain.RiskHigh || original.Risk == domain.RiskCritical
	replayedHigh := replayed.Risk == domain.RiskHigh || replayed.Risk == domain.RiskCritical
	originalAutoApprovable := original.Automation == domain.AutomationFull
	replayedAutoApprovable := replayed.Automation == domain.AutomationFull

	if originalHigh && replayedAutoApprovable && !originalAutoApprovable {
		return domain.ReplayDivergenceUnsafe
	}
	if replayedHigh && originalAutoApprovable && !replayedAutoApprovable {
		return domain.ReplayDivergenceUnsafe
	}

	if original.Risk == replayed.Risk {
		return domain.ReplayDivergenceSafe
	}
	if originalHigh == replayedHigh {
		return domain.ReplayDivergenceSafe
	}
	return domain.ReplayDivergenceUnsafe
}

func confidenceBucket(confidence float64) string {
	switch {
	case confidence >= 0.9:
		return "0.9-1.0"
	case confidence >= 0.7:
		return "0.7-0.9"
	case confidence >= 0.5:
		return "0.5-0.7"
	default:
		return "0.0-0.5"
	}
}
