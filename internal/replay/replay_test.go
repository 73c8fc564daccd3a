package replay

import (
	"context"
	"testing"
	"time"

	"github.com/strands/strands/internal/domain"
)

type fakeDecider struct {
	byFingerprint map[string]domain.DecisionCandidate
}

func (f *fakeDecider) Decide(ctx context.Context, event domain.ReplayEvent, snapshot Snapshot) (domain.DecisionCandidate, error) {
	return f.byFingerprint[event.OriginalAlert.Fingerprint], nil
}

func TestClassifyMatch(t *testing.T) {
	d := domain.DecisionCandidate{Risk: domain.RiskLow, Automation: domain.AutomationFull}
	if got := Classify(d, d); got != domain.ReplayMatch {
		t.Fatalf("got %v, want MATCH", got)
	}
}

func TestClassifyUnsafeWhenHighRiskBecomesAutoApprovable(t *testing.T) {
	original := domain.DecisionCandidate{Risk: domain.RiskHigh, Automation: domain.AutomationManual}
	replayed := domain.DecisionCandidate{Risk: domain.RiskHigh, Automation: domain.AutomationFull}
	if got := Classify(original, replayed); got != domain.ReplayDivergenceUnsafe {
		t.Fatalf("got %v, want DIVERGENCE_UNSAFE", got)
	}
}

func TestClassifySafeWhenRiskBucketUnchanged(t *testing.T) {
	original := domain.DecisionCandidate{Risk: domain.RiskLow, Automation: domain.AutomationAssisted}
	replayed := domain.DecisionCandidate{Risk: domain.RiskMedium, Automation: domain.AutomationManual}
	if got := Classify(original, replayed); got != domain.ReplayDivergenceSafe {
		t.Fatalf("got %v, want DIVERGENCE_SAFE", got)
	}
}

func TestRunAggregatesAlignmentAndPass(t *testing.T) {
	matching := domain.DecisionCandidate{Risk: domain.RiskLow, Automation: domain.AutomationFull, Confidence: 0.95}
	decider := &fakeDecider{byFingerprint: map[string]domain.DecisionCandidate{
		"fp-1": matching,
	}}
	events := []domain.ReplayEvent{
		{
			OriginalTimestamp: time.Unix(100, 0),
			OriginalAlert:     domain.Alert{Fingerprint: "fp-1"},
			OriginalDecision:  matching,
		},
	}

	_, agg := Run(context.Background(), decider, events, domain.ReplayValidation, Snapshot{ModelVersion: "v1"})
	if agg.Total != 1 || agg.Matches != 1 {
		t.Fatalf("aggregate = %+v, want 1 total/1 match", agg)
	}
	if agg.AlignmentRate != 1.0 {
		t.Fatalf("alignment rate = %v, want 1.0", agg.AlignmentRate)
	}
	if !agg.Pass {
		t.Fatalf("expected Pass=true with zero unsafe bypasses")
	}
}
