package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/strands/strands/internal/adapters"
	"github.com/strands/strands/internal/domain"
	"github.com/strands/strands/internal/recommend"
)

// persistCluster upserts one tick's AlertCluster node, grounding the
// flatten style on playbook.Store's toProps (steps/evidence as
// JSON-string properties, timestamps as RFC3339).
func persistCluster(ctx context.Context, graph adapters.GraphStore, cluster *domain.AlertCluster) error {
	members, err := json.Marshal(cluster.Members)
	if err != nil {
		return fmt.Errorf("marshal cluster members: %w", err)
	}
	return graph.UpsertNode(ctx, "AlertCluster", map[string]any{
		"id":                cluster.ID,
		"canonical_service": cluster.CanonicalService,
		"cluster_type":      cluster.ClusterType,
		"earliest":          cluster.Earliest.Format(time.RFC3339),
		"latest":            cluster.Latest.Format(time.RFC3339),
		"correlation_basis": cluster.CorrelationBasis,
		"members":           string(members),
	})
}

// persistDecision upserts one DecisionCandidate node and the
// DECIDED_FROM relation back to its originating cluster.
func persistDecision(ctx context.Context, graph adapters.GraphStore, decision domain.DecisionCandidate) error {
	evidence, err := json.Marshal(decision.Evidence)
	if err != nil {
		return fmt.Errorf("marshal decision evidence: %w", err)
	}
	actions, err := json.Marshal(decision.SuggestedActions)
	if err != nil {
		return fmt.Errorf("marshal suggested actions: %w", err)
	}
	if err := graph.UpsertNode(ctx, "DecisionCandidate", map[string]any{
		"id":                decision.ID,
		"cluster_id":        decision.ClusterID,
		"hypothesis":        decision.Hypothesis,
		"confidence":        decision.Confidence,
		"risk":              string(decision.Risk),
		"automation":        string(decision.Automation),
		"type":              string(decision.Type),
		"suggested_actions": string(actions),
		"evidence":          string(evidence),
		"model_version":     decision.ModelVersion,
		"weights_version":   decision.WeightsVersion,
		"audit_trail_id":    decision.AuditTrailID,
		"conflict":          decision.Conflict,
		"degraded":          decision.Degraded,
		"created_at":        decision.CreatedAt.Format(time.RFC3339),
	}); err != nil {
		return err
	}
	return graph.UpsertRelation(ctx, decision.ID, "DECIDED_FROM", decision.ClusterID, nil)
}

// persistRecommendation records which playbook C7 recommended for a
// decision and whether it was freshly generated, so a later human
// approval arriving over HTTP (outside this tick's in-memory rec
// value) can still look up which playbook to promote.
func persistRecommendation(ctx context.Context, graph adapters.GraphStore, decisionID string, rec recommend.Recommendation) error {
	return graph.UpsertNode(ctx, "DecisionRecommendation", map[string]any{
		"id":             decisionID,
		"decision_id":    decisionID,
		"playbook_id":    rec.Playbook.ID,
		"was_generated":  rec.Source != recommend.ProvenanceKnown,
		"status":         string(rec.Status),
	})
}

// decisionCandidateFor reloads a previously persisted DecisionCandidate
// by id, so a handler reacting to an HTTP review action can pass the
// executor a real candidate instead of an id-only stand-in.
func decisionCandidateFor(ctx context.Context, graph adapters.GraphStore, decisionID string) (domain.DecisionCandidate, bool, error) {
	rows, err := graph.Query(ctx, `MATCH (d:DecisionCandidate {id: $id}) RETURN d`, map[string]any{
		"id": decisionID,
	})
	if err != nil {
		return domain.DecisionCandidate{}, false, err
	}
	if len(rows) == 0 {
		return domain.DecisionCandidate{}, false, nil
	}
	node, _ := rows[0]["d"].(map[string]any)
	if node == nil {
		node = rows[0]
	}

	var actions []string
	if raw, _ := node["suggested_actions"].(string); raw != "" {
		_ = json.Unmarshal([]byte(raw), &actions)
	}
	var evidence []domain.EvidenceItem
	if raw, _ := node["evidence"].(string); raw != "" {
		_ = json.Unmarshal([]byte(raw), &evidence)
	}
	createdAt, _ := time.Parse(time.RFC3339, stringField(node, "created_at"))

	candidate := domain.DecisionCandidate{
		ID:               stringField(node, "id"),
		ClusterID:        stringField(node, "cluster_id"),
		Hypothesis:       stringField(node, "hypothesis"),
		Confidence:       floatField(node, "confidence"),
		Risk:             domain.RiskLevel(stringField(node, "risk")),
		Automation:       domain.AutomationLevel(stringField(node, "automation")),
		Type:             domain.DecisionType(stringField(node, "type")),
		SuggestedActions: actions,
		Evidence:         evidence,
		ModelVersion:     stringField(node, "model_version"),
		WeightsVersion:   stringField(node, "weights_version"),
		AuditTrailID:     stringField(node, "audit_trail_id"),
		Conflict:         boolField(node, "conflict"),
		Degraded:         boolField(node, "degraded"),
		CreatedAt:        createdAt,
	}
	return candidate, candidate.ID != "", nil
}

func stringField(node map[string]any, key string) string {
	v, _ := node[key].(string)
	return v
}

func floatField(node map[string]any, key string) float64 {
	switch v := node[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func boolField(node map[string]any, key string) bool {
	v, _ := node[key].(bool)
	return v
}

// recommendationFor looks up the playbook id and provenance a prior
// tick recorded for a decision.
func recommendationFor(ctx context.Context, graph adapters.GraphStore, decisionID string) (playbookID string, wasGenerated bool, found bool, err error) {
	rows, err := graph.Query(ctx, `MATCH (r:DecisionRecommendation {decision_id: $decision_id}) RETURN r`, map[string]any{
		"decision_id": decisionID,
	})
	if err != nil {
		return "", false, false, err
	}
	if len(rows) == 0 {
		return "", false, false, nil
	}
	node, _ := rows[0]["r"].(map[string]any)
	if node == nil {
		node = rows[0]
	}
	id, _ := node["playbook_id"].(string)
	generated, _ := node["was_generated"].(bool)
	return id, generated, true, nil
}
