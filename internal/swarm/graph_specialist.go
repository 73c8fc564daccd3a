package swarm

import (
	"context"
	"fmt"
	"sort"

	"github.com/strands/strands/internal/adapters"
	"github.com/strands/strands/internal/domain"
)

// GraphSpecialist inspects the service dependency graph around the
// cluster's canonical service, generalising the teacher's
// causality-engine topology lookup (engine.CausalityEngine.Evaluate)
// into a standalone specialist over adapters.GraphStore.
type GraphSpecialist struct {
	store    adapters.GraphStore
	tenantID string
}

// NewGraphSpecialist builds the graph-context specialist.
func NewGraphSpecialist(store adapters.GraphStore, tenantID string) *GraphSpecialist {
	return &GraphSpecialist{store: store, tenantID: tenantID}
}

func (s *GraphSpecialist) ID() string { return "graph-context" }

func (s *GraphSpecialist) Investigate(ctx context.Context, cluster *domain.AlertCluster) (domain.SpecialistResult, error) {
	edges, err := s.store.ServiceGraph(ctx, s.tenantID)
	if err != nil {
		return domain.SpecialistResult{}, err
	}

	upstream := make([]adapters.ServiceGraphEdge, 0)
	for _, e := range edges {
		if e.Target == cluster.CanonicalService {
			upstream = append(upstream, e)
		}
	}
	if len(upstream) == 0 {
		return domain.SpecialistResult{
			Hypothesis:     fmt.Sprintf("no known upstream dependencies for %s", cluster.CanonicalService),
			BaseConfidence: 0.15,
		}, nil
	}

	sort.Slice(upstream, func(i, j int) bool { return upstream[i].ErrorRate > upstream[j].ErrorRate })
	top := upstream[0]

	evidence := make([]domain.EvidenceItem, 0, len(upstream))
	for _, e := range upstream {
		evidence = append(evidence, domain.EvidenceItem{
			Kind:        domain.EvidenceGraphRelation,
			Source:      e.Source,
			Description: fmt.Sprintf("%s -> %s call_rate=%.2f error_rate=%.2f", e.Source, e.Target, e.CallRate, e.ErrorRate),
			Quality:     clampUnit(e.ErrorRate),
		})
	}

	return domain.SpecialistResult{
		Hypothesis:       fmt.Sprintf("upstream dependency %s shows elevated error rate %.2f", top.Source, top.ErrorRate),
		BaseConfidence:    clampUnit(top.ErrorRate),
		Evidence:         evidence,
		SuggestedActions: []string{"check health of upstream service " + top.Source},
	}, nil
}
