package decision

import (
	"time"

	"github.com/google/uuid"

	"github.com/strands/strands/internal/domain"
)

// Config bundles the tunables the controller wires into Fuse:
// weights, policy, default automation and the audit identifiers to
// stamp onto every candidate.
type Config struct {
	Weights          WeightMatrix
	Policy           Policy
	DefaultAutomation domain.AutomationLevel
	ModelVersion     string
	WeightsVersion   string
}

// DefaultConfig returns the spec.md defaults: default weight matrix,
// BALANCED policy, ASSISTED default automation.
func DefaultConfig() Config {
	return Config{
		Weights:           DefaultWeights(),
		Policy:            PolicyBalanced,
		DefaultAutomation: domain.AutomationAssisted,
		ModelVersion:      "strands-decision-v1",
		WeightsVersion:    "v1",
	}
}

// qualityScore is spec.md section 4.6 step 1: q_i = base_confidence_i *
// evidence_quality_i.
func qualityScore(r domain.SpecialistResult) float64 {
	return r.BaseConfidence * r.EvidenceQuality()
}

// Fuse implements C6's full aggregation pipeline over one cluster's
// swarm results, producing one DecisionCandidate.
func Fuse(cluster *domain.AlertCluster, results []domain.SpecialistResult, cfg Config) domain.DecisionCandidate {
	degraded := true
	for _, r := range results {
		if r.Status == domain.CompletionSuccess {
			degraded = false
			break
		}
	}

	confidence, weightSum := weightedConfidence(results, cfg.Weights)
	if weightSum == 0 {
		confidence = 0
	}

	hypothesis, conflict := selectHypothesis(results)
	if conflict {
		confidence *= ConflictPenalty
	}

	risk := GradeRisk(clusterSeverity(cluster), results)
	automation := domain.DowngradeForRisk(risk, cfg.DefaultAutomation)

	decisionType := classify(confidence, consensus(results), automation, cfg.Policy)

	evidence := make([]domain.EvidenceItem, 0)
	actions := make([]string, 0)
	for _, r := range results {
		evidence = append(evidence, r.Evidence...)
		actions = append(actions, r.SuggestedActions...)
	}

	return domain.DecisionCandidate{
		ID:               uuid.NewString(),
		ClusterID:        cluster.ID,
		Hypothesis:       hypothesis,
		Confidence:       clampUnit(confidence),
		Risk:             risk,
		Automation:       automation,
		Type:             decisionType,
		SuggestedActions: actions,
		Evidence:         evidence,
		ModelVersion:     cfg.ModelVersion,
		WeightsVersion:   cfg.WeightsVersion,
		AuditTrailID:     uuid.NewString(),
		Conflict:         conflict,
		Degraded:         degraded,
		CreatedAt:        time.Now().UTC(),
	}
}

// weightedConfidence implements step 2: conf = Σ(w_i·q_i) / Σw_i.
func weightedConfidence(results []domain.SpecialistResult, weights WeightMatrix) (float64, float64) {
	var numerator, denominator float64
	for _, r := range results {
		w := weights[r.SpecialistID]
		if w == 0 {
			continue
		}
		numerator += w * qualityScore(r)
		denominator += w
	}
	if denominator == 0 {
		return 0, 0
	}
	return numerator / denominator, denominator
}

// scoredSpecialist pairs a specialist's result with its q_i quality
// score for hypothesis-selection ranking.
type scoredSpecialist struct {
	result domain.SpecialistResult
	q      float64
}

// selectHypothesis implements step 3: a clear single winner (q_i >=
// 0.8 and strictly greater than every other) wins outright; otherwise
// the top two hypotheses are concatenated and conflict is flagged.
func selectHypothesis(results []domain.SpecialistResult) (string, bool) {
	if len(results) == 0 {
		return "", false
	}

	scoredResults := make([]scoredSpecialist, 0, len(results))
	for _, r := range results {
		scoredResults = append(scoredResults, scoredSpecialist{result: r, q: qualityScore(r)})
	}

	top, runnerUp := topTwo(scoredResults)
	if top.q >= 0.8 && top.q > runnerUp.q {
		return top.result.Hypothesis, false
	}
	if runnerUp.result.Hypothesis == "" {
		return top.result.Hypothesis, false
	}
	return top.result.Hypothesis + " | " + runnerUp.result.Hypothesis, true
}

func topTwo(results []scoredSpecialist) (scoredSpecialist, scoredSpecialist) {
	var top, runnerUp scoredSpecialist
	for _, s := range results {
		if s.q > top.q {
			runnerUp = top
			top = s
		} else if s.q > runnerUp.q {
			runnerUp = s
		}
	}
	return top, runnerUp
}

// consensus is the fraction of specialists whose hypothesis agrees
// with the selected one; used by the threshold policy alongside
// confidence.
func consensus(results []domain.SpecialistResult) float64 {
	if len(results) == 0 {
		return 0
	}
	hypothesis, conflict := selectHypothesis(results)
	if !conflict {
		return 1.0
	}
	agree := 0
	for _, r := range results {
		if hypothesis == r.Hypothesis {
			agree++
		}
	}
	return float64(agree) / float64(len(results))
}

func classify(confidence, consensusScore float64, automation domain.AutomationLevel, policy Policy) domain.DecisionType {
	if confidence < policy.ConfidenceThreshold || consensusScore < policy.ConsensusThreshold {
		return domain.DecisionEscalate
	}
	if automation == domain.AutomationFull {
		return domain.DecisionAutoApprove
	}
	return domain.DecisionRequiresApproval
}

func clusterSeverity(cluster *domain.AlertCluster) domain.Severity {
	worst := domain.SeverityInfo
	for _, m := range cluster.Members {
		if m.Severity > worst {
			worst = m.Severity
		}
	}
	return worst
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
