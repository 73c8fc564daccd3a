package decision

import (
	"testing"

	"github.com/strands/strands/internal/domain"
)

func clusterWithSeverity(sev domain.Severity) *domain.AlertCluster {
	return &domain.AlertCluster{
		ID:               "cluster-1",
		CanonicalService: "checkout",
		Members: []domain.NormalisedAlert{
			{Alert: domain.Alert{Severity: sev}},
		},
	}
}

func strongResult(id string) domain.SpecialistResult {
	return domain.SpecialistResult{
		SpecialistID:   id,
		Hypothesis:     id + " hypothesis",
		BaseConfidence: 0.95,
		Status:         domain.CompletionSuccess,
		Evidence:       []domain.EvidenceItem{{Quality: 0.95}},
	}
}

func TestFuseSingleClearWinnerNoConflict(t *testing.T) {
	results := []domain.SpecialistResult{
		strongResult("metrics-analyst"),
		{SpecialistID: "log-inspector", Hypothesis: "weak", BaseConfidence: 0.1, Status: domain.CompletionSuccess, Evidence: []domain.EvidenceItem{{Quality: 0.1}}},
	}
	candidate := Fuse(clusterWithSeverity(domain.SeverityWarning), results, DefaultConfig())

	if candidate.Conflict {
		t.Fatalf("expected no conflict when one specialist clearly dominates")
	}
	if candidate.Hypothesis != "metrics-analyst hypothesis" {
		t.Fatalf("hypothesis = %q, want metrics-analyst hypothesis", candidate.Hypothesis)
	}
}

func TestFuseConflictAppliesPenalty(t *testing.T) {
	results := []domain.SpecialistResult{
		strongResult("metrics-analyst"),
		strongResult("log-inspector"),
	}
	candidate := Fuse(clusterWithSeverity(domain.SeverityWarning), results, DefaultConfig())

	if !candidate.Conflict {
		t.Fatalf("expected conflict when two specialists tie at high confidence")
	}
	unweighted, _ := weightedConfidence(results, DefaultWeights())
	if candidate.Confidence >= unweighted {
		t.Fatalf("confidence %v should be penalised below unweighted %v", candidate.Confidence, unweighted)
	}
}

func TestFuseCriticalSeverityCapsAutomationByRisk(t *testing.T) {
	results := []domain.SpecialistResult{
		{SpecialistID: "metrics-analyst", Hypothesis: "oom kill detected", BaseConfidence: 0.95, Status: domain.CompletionSuccess, Evidence: []domain.EvidenceItem{{Quality: 0.95}}},
	}
	cfg := DefaultConfig()
	cfg.DefaultAutomation = domain.AutomationFull
	candidate := Fuse(clusterWithSeverity(domain.SeverityCritical), results, cfg)

	if candidate.Risk != domain.RiskHigh && candidate.Risk != domain.RiskCritical {
		t.Fatalf("risk = %v, want HIGH or CRITICAL for critical severity", candidate.Risk)
	}
	if !candidate.Valid() {
		t.Fatalf("candidate violates risk/automation invariant: risk=%v automation=%v", candidate.Risk, candidate.Automation)
	}
}

func TestFuseBelowThresholdEscalates(t *testing.T) {
	results := []domain.SpecialistResult{
		{SpecialistID: "metrics-analyst", Hypothesis: "uncertain", BaseConfidence: 0.2, Status: domain.CompletionSuccess, Evidence: []domain.EvidenceItem{{Quality: 0.2}}},
	}
	candidate := Fuse(clusterWithSeverity(domain.SeverityInfo), results, DefaultConfig())
	if candidate.Type != domain.DecisionEscalate {
		t.Fatalf("decision type = %v, want ESCALATE", candidate.Type)
	}
}
