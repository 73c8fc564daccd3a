package playbook

import (
	"context"
	"testing"
	"time"

	"github.com/strands/strands/internal/adapters"
	"github.com/strands/strands/internal/domain"
	"github.com/strands/strands/internal/recommend"
)

type fakeGraph struct {
	nodes map[string]map[string]any
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{nodes: map[string]map[string]any{}}
}

func (f *fakeGraph) UpsertNode(ctx context.Context, label string, props map[string]any) error {
	id, _ := props["id"].(string)
	merged := map[string]any{}
	for k, v := range f.nodes[id] {
		merged[k] = v
	}
	for k, v := range props {
		merged[k] = v
	}
	f.nodes[id] = merged
	return nil
}

func (f *fakeGraph) UpsertRelation(ctx context.Context, fromID, relType, toID string, props map[string]any) error {
	return nil
}

func (f *fakeGraph) Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	if id, ok := params["id"].(string); ok {
		if node, found := f.nodes[id]; found {
			return []map[string]any{{"p": node}}, nil
		}
		return nil, nil
	}

	rows := make([]map[string]any, 0)
	for _, node := range f.nodes {
		if patternType, ok := params["pattern_type"].(string); ok {
			if node["pattern_type"] != patternType {
				continue
			}
		}
		if servicePattern, ok := params["service_pattern"].(string); ok {
			if node["service_pattern"] != servicePattern {
				continue
			}
		}
		if node["status"] != "ACTIVE" && params["pattern_type"] != nil {
			continue
		}
		rows = append(rows, map[string]any{"p": node})
	}
	return rows, nil
}

func (f *fakeGraph) ServiceGraph(ctx context.Context, tenantID string) ([]adapters.ServiceGraphEdge, error) {
	return nil, nil
}

func (f *fakeGraph) Close(ctx context.Context) error { return nil }

func TestStoreRoundTripsPlaybook(t *testing.T) {
	graph := newFakeGraph()
	store := NewStore(graph)
	ctx := context.Background()

	p := domain.Playbook{
		ID:             "pb-1",
		Title:          "Restart pods",
		PatternType:    domain.CorrelationType("LOG_METRIC"),
		ServicePattern: "checkout",
		Status:         domain.PlaybookActive,
		Steps:          []domain.PlaybookStep{{Index: 0, Title: "kubectl rollout restart"}},
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}

	if err := store.Store(ctx, p); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, found, err := store.Get(ctx, "pb-1")
	if err != nil || !found {
		t.Fatalf("Get: found=%v err=%v", found, err)
	}
	if got.Title != "Restart pods" || len(got.Steps) != 1 {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestStoreActivePlaybooksForKeyFiltersByStatus(t *testing.T) {
	graph := newFakeGraph()
	store := NewStore(graph)
	ctx := context.Background()

	active := domain.Playbook{ID: "pb-active", PatternType: "LOG_METRIC", ServicePattern: "checkout", Status: domain.PlaybookActive}
	draft := domain.Playbook{ID: "pb-draft", PatternType: "LOG_METRIC", ServicePattern: "checkout", Status: domain.PlaybookDraft}
	_ = store.Store(ctx, active)
	_ = store.Store(ctx, draft)

	key := recommend.Key{PatternType: "LOG_METRIC", ServicePattern: "checkout"}
	results, err := store.ActivePlaybooksForKey(ctx, key)
	if err != nil {
		t.Fatalf("ActivePlaybooksForKey: %v", err)
	}
	if len(results) != 1 || results[0].ID != "pb-active" {
		t.Fatalf("expected only pb-active, got %+v", results)
	}
}
