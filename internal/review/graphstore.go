package review

import (
	"context"
	"fmt"
	"time"

	"github.com/strands/strands/internal/adapters"
	"github.com/strands/strands/internal/domain"
)

// GraphStore persists ReviewRecords as ReviewRecord-labelled graph
// nodes keyed by decision id, flattening fields the same way
// playbook.Store flattens Playbook nodes.
type GraphStore struct {
	graph adapters.GraphStore
}

// NewGraphStore builds a graph-backed C9 Store.
func NewGraphStore(graph adapters.GraphStore) *GraphStore {
	return &GraphStore{graph: graph}
}

var _ Store = (*GraphStore)(nil)

// Get retrieves the review record for a decision, if one exists.
func (s *GraphStore) Get(ctx context.Context, decisionID string) (domain.ReviewRecord, bool, error) {
	rows, err := s.graph.Query(ctx, `MATCH (r:ReviewRecord {decision_id: $decision_id}) RETURN r`, map[string]any{
		"decision_id": decisionID,
	})
	if err != nil {
		return domain.ReviewRecord{}, false, err
	}
	if len(rows) == 0 {
		return domain.ReviewRecord{}, false, nil
	}
	record, err := reviewFromProps(rows[0])
	return record, err == nil, err
}

// Put upserts a review record, also writing the REVIEWED_BY relation
// back to the decision it resolves.
func (s *GraphStore) Put(ctx context.Context, record domain.ReviewRecord) error {
	if err := s.graph.UpsertNode(ctx, "ReviewRecord", reviewToProps(record)); err != nil {
		return err
	}
	return s.graph.UpsertRelation(ctx, record.ID, "REVIEWED_BY", record.DecisionID, nil)
}

func reviewToProps(r domain.ReviewRecord) map[string]any {
	return map[string]any{
		"id":                r.ID,
		"decision_id":       r.DecisionID,
		"state":             string(r.State),
		"reviewer_identity": r.ReviewerIdentity,
		"system_identity":   r.SystemIdentity,
		"timestamp":         r.Timestamp.Format(time.RFC3339),
		"notes":             r.Notes,
	}
}

func reviewFromProps(row map[string]any) (domain.ReviewRecord, error) {
	node, _ := row["r"].(map[string]any)
	if node == nil {
		node = row
	}
	ts, _ := node["timestamp"].(string)
	timestamp, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		timestamp = time.Time{}
	}
	id, _ := node["id"].(string)
	if id == "" {
		return domain.ReviewRecord{}, fmt.Errorf("review record missing id")
	}
	decisionID, _ := node["decision_id"].(string)
	state, _ := node["state"].(string)
	reviewer, _ := node["reviewer_identity"].(string)
	system, _ := node["system_identity"].(string)
	notes, _ := node["notes"].(string)
	return domain.ReviewRecord{
		ID:               id,
		DecisionID:       decisionID,
		State:            domain.ReviewState(state),
		ReviewerIdentity: reviewer,
		SystemIdentity:   system,
		Timestamp:        timestamp,
		Notes:            notes,
	}, nil
}
