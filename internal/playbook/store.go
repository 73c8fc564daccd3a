package playbook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/strands/strands/internal/adapters"
	"github.com/strands/strands/internal/domain"
	"github.com/strands/strands/internal/recommend"
	"github.com/strands/strands/internal/utils"
)

// Store persists Playbook nodes through a C2 graph store, with a
// curation workflow mirroring store_playbook/get_active_playbooks_for_pattern
// /get_pending_review_playbooks from the Neo4j-backed reference store:
// playbooks are Playbook-labelled nodes keyed by id, with steps and
// stats flattened to JSON-string properties.
type Store struct {
	graph adapters.GraphStore
}

// NewStore builds a graph-backed playbook store.
func NewStore(graph adapters.GraphStore) *Store {
	return &Store{graph: graph}
}

var _ recommend.PlaybookLookup = (*Store)(nil)

// Store upserts a playbook node.
func (s *Store) Store(ctx context.Context, p domain.Playbook) error {
	props, err := toProps(p)
	if err != nil {
		return err
	}
	return s.graph.UpsertNode(ctx, "Playbook", props)
}

// Get retrieves one playbook by ID.
func (s *Store) Get(ctx context.Context, id string) (domain.Playbook, bool, error) {
	rows, err := s.graph.Query(ctx, `MATCH (p:Playbook {id: $id}) RETURN p`, map[string]any{"id": id})
	if err != nil {
		return domain.Playbook{}, false, err
	}
	if len(rows) == 0 {
		return domain.Playbook{}, false, nil
	}
	p, err := fromProps(rows[0])
	return p, err == nil, err
}

// ActivePlaybooksForKey retrieves ACTIVE playbooks matching a
// recommend.Key, ordered by descending success count, satisfying
// recommend.PlaybookLookup so the C7 resolver can query this store
// directly.
func (s *Store) ActivePlaybooksForKey(ctx context.Context, key recommend.Key) ([]domain.Playbook, error) {
	rows, err := s.graph.Query(ctx, `
		MATCH (p:Playbook {pattern_type: $pattern_type, service_pattern: $service_pattern, status: 'ACTIVE'})
		RETURN p
		ORDER BY p.success_count DESC
	`, map[string]any{
		"pattern_type":    string(key.PatternType),
		"service_pattern": key.ServicePattern,
	})
	if err != nil {
		return nil, err
	}
	playbooks := make([]domain.Playbook, 0, len(rows))
	for _, row := range rows {
		p, err := fromProps(row)
		if err != nil {
			continue
		}
		playbooks = append(playbooks, p)
	}
	return playbooks, nil
}

// PendingReview retrieves playbooks awaiting human review, most recent
// first.
func (s *Store) PendingReview(ctx context.Context, limit int) ([]domain.Playbook, error) {
	rows, err := s.graph.Query(ctx, `
		MATCH (p:Playbook {status: 'PENDING_REVIEW'})
		RETURN p
		ORDER BY p.created_at DESC
		LIMIT $limit
	`, map[string]any{"limit": limit})
	if err != nil {
		return nil, err
	}
	playbooks := make([]domain.Playbook, 0, len(rows))
	for _, row := range rows {
		p, err := fromProps(row)
		if err != nil {
			continue
		}
		playbooks = append(playbooks, p)
	}
	return playbooks, nil
}

// Approve transitions a playbook to ACTIVE, stamping the approver and
// timestamp.
func (s *Store) Approve(ctx context.Context, id, approvedBy string) error {
	_, err := s.graph.Query(ctx, `
		MATCH (p:Playbook {id: $id})
		SET p.status = 'ACTIVE', p.approved_at = $now, p.approved_by = $by
	`, map[string]any{"id": id, "now": time.Now().UTC().Format(time.RFC3339), "by": approvedBy})
	return err
}

// Reject archives a playbook with a rejection reason.
func (s *Store) Reject(ctx context.Context, id, rejectedBy, reason string) error {
	_, err := s.graph.Query(ctx, `
		MATCH (p:Playbook {id: $id})
		SET p.status = 'ARCHIVED', p.rejection_reason = $reason, p.rejected_by = $by
	`, map[string]any{"id": id, "reason": reason, "by": rejectedBy})
	return err
}

// ApplyExecution applies one execution outcome to the playbook's
// running statistics via the Welford transaction (see stats.go), then
// persists the updated node and a PlaybookExecution record keyed on
// executionID. Per spec.md section 8's testable property 8, calling
// this twice with the same executionID must mutate the statistics only
// once: the execution node is checked for first, and a hit short-
// circuits the whole call with the playbook returned unchanged.
func (s *Store) ApplyExecution(ctx context.Context, p domain.Playbook, executionID string, outcome domain.PlaybookOutcome, duration time.Duration) (domain.Playbook, error) {
	rows, err := s.graph.Query(ctx, `MATCH (e:PlaybookExecution {id: $id}) RETURN e`, map[string]any{"id": executionID})
	if err != nil {
		return p, err
	}
	if len(rows) > 0 {
		return p, nil
	}

	RecordExecution(&p.Stats, outcome, duration)
	p.UpdatedAt = time.Now().UTC()
	if err := s.Store(ctx, p); err != nil {
		return p, err
	}

	execProps := map[string]any{
		"id":          executionID,
		"playbook_id": p.ID,
		"outcome":     string(outcome),
		"duration_s":  duration.Seconds(),
		"recorded_at": p.UpdatedAt.Format(time.RFC3339),
	}
	if err := s.graph.UpsertNode(ctx, "PlaybookExecution", execProps); err != nil {
		return p, err
	}
	return p, nil
}

func toProps(p domain.Playbook) (map[string]any, error) {
	steps, err := json.Marshal(p.Steps)
	if err != nil {
		return nil, fmt.Errorf("marshal steps: %w", err)
	}
	return map[string]any{
		"id":                p.ID,
		"title":             p.Title,
		"description":       p.Description,
		"pattern_type":      string(p.PatternType),
		"service_pattern":   p.ServicePattern,
		"steps":             string(steps),
		"estimated_minutes": p.EstimatedMinutes,
		"automation":        string(p.Automation),
		"risk":              string(p.Risk),
		"prerequisites":     p.Prerequisites,
		"success_criteria":  p.SuccessCriteria,
		"rollback":          p.RollbackProcedure,
		"source":            string(p.Source),
		"status":            string(p.Status),
		"version":           fmt.Sprintf("%d.%d.%d", p.Version.Major, p.Version.Minor, p.Version.Patch),
		"previous_version":  p.PreviousVersion,
		"created_at":        p.CreatedAt.Format(time.RFC3339),
		"created_by":        p.CreatedBy,
		"updated_at":        p.UpdatedAt.Format(time.RFC3339),
		"updated_by":        p.UpdatedBy,
		"total_executions":  p.Stats.TotalExecutions,
		"success_count":     p.Stats.SuccessCount,
		"failure_count":     p.Stats.FailureCount,
		"mean_duration":     p.Stats.MeanDuration,
		"m2_duration":       p.Stats.M2Duration,
		"last_executed_at":  formatOptional(p.Stats.LastExecutedAt),
	}, nil
}

func fromProps(row map[string]any) (domain.Playbook, error) {
	node, _ := row["p"].(map[string]any)
	if node == nil {
		node = row
	}

	var steps []domain.PlaybookStep
	if raw, ok := node["steps"].(string); ok && raw != "" {
		_ = json.Unmarshal([]byte(raw), &steps)
	}

	var major, minor, patch int
	if v, ok := node["version"].(string); ok {
		fmt.Sscanf(v, "%d.%d.%d", &major, &minor, &patch)
	}

	return domain.Playbook{
		ID:                str(node["id"]),
		Title:             str(node["title"]),
		Description:       str(node["description"]),
		PatternType:       domain.CorrelationType(str(node["pattern_type"])),
		ServicePattern:    str(node["service_pattern"]),
		Steps:             steps,
		EstimatedMinutes:  num(node["estimated_minutes"]),
		Automation:        domain.AutomationLevel(str(node["automation"])),
		Risk:              domain.RiskLevel(str(node["risk"])),
		Prerequisites:     strSlice(node["prerequisites"]),
		SuccessCriteria:   strSlice(node["success_criteria"]),
		RollbackProcedure: str(node["rollback"]),
		Source:            domain.PlaybookSource(str(node["source"])),
		Status:            domain.PlaybookStatus(str(node["status"])),
		Version:           domain.SemVer{Major: major, Minor: minor, Patch: patch},
		PreviousVersion:   str(node["previous_version"]),
		CreatedAt:         parseTime(node["created_at"]),
		CreatedBy:         str(node["created_by"]),
		UpdatedAt:         parseTime(node["updated_at"]),
		UpdatedBy:         str(node["updated_by"]),
		Stats: domain.PlaybookStats{
			TotalExecutions: int64(num(node["total_executions"])),
			SuccessCount:    int64(num(node["success_count"])),
			FailureCount:    int64(num(node["failure_count"])),
			MeanDuration:    num(node["mean_duration"]),
			M2Duration:      num(node["m2_duration"]),
			LastExecutedAt:  parseTime(node["last_executed_at"]),
		},
	}, nil
}

func formatOptional(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func parseTime(v any) time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}
	}
	t, err := utils.ParseRFC3339(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func strSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if text, ok := item.(string); ok {
				out = append(out, text)
			}
		}
		return out
	default:
		return nil
	}
}

func num(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}
