package swarm

import (
	"context"
	"fmt"

	"github.com/strands/strands/internal/adapters"
	"github.com/strands/strands/internal/domain"
)

// EmbeddingSpecialist recalls historically similar incidents by
// embedding the cluster's description text and searching the vector
// store, generalising the teacher's WeaviateClient.SimilarIncidents
// call onto the pgvector-backed adapters.VectorStore.
type EmbeddingSpecialist struct {
	generator adapters.TextGenerator
	store     adapters.VectorStore
	topK      int
	minScore  float64
}

// NewEmbeddingSpecialist builds the embedding-similarity specialist.
func NewEmbeddingSpecialist(generator adapters.TextGenerator, store adapters.VectorStore, topK int, minScore float64) *EmbeddingSpecialist {
	if topK <= 0 {
		topK = 5
	}
	return &EmbeddingSpecialist{generator: generator, store: store, topK: topK, minScore: minScore}
}

func (s *EmbeddingSpecialist) ID() string { return "embedding-similarity" }

func (s *EmbeddingSpecialist) Investigate(ctx context.Context, cluster *domain.AlertCluster) (domain.SpecialistResult, error) {
	text := clusterSummaryText(cluster)
	vector, err := s.generator.Embed(ctx, text)
	if err != nil {
		return domain.SpecialistResult{}, err
	}

	matches, err := s.store.Search(ctx, vector, s.topK, s.minScore)
	if err != nil {
		return domain.SpecialistResult{}, err
	}
	if len(matches) == 0 {
		return domain.SpecialistResult{
			Hypothesis:     "no similar historical incidents found",
			BaseConfidence: 0.1,
		}, nil
	}

	evidence := make([]domain.EvidenceItem, 0, len(matches))
	for _, m := range matches {
		desc := fmt.Sprintf("match %s (score %.2f)", m.ID, m.Score)
		if summary, ok := m.Payload["summary"].(string); ok && summary != "" {
			desc = summary
		}
		evidence = append(evidence, domain.EvidenceItem{
			Kind:        domain.EvidenceSimilarIncident,
			Source:      m.ID,
			Description: desc,
			Quality:     clampUnit(m.Score),
		})
	}

	best := matches[0]
	return domain.SpecialistResult{
		Hypothesis:       fmt.Sprintf("similar to prior incident %s (score %.2f)", best.ID, best.Score),
		BaseConfidence:    clampUnit(best.Score),
		Evidence:         evidence,
		SuggestedActions: []string{"review remediation used for " + best.ID},
	}, nil
}

func clusterSummaryText(cluster *domain.AlertCluster) string {
	descriptions := make([]string, 0, len(cluster.Members))
	for _, m := range cluster.Members {
		descriptions = append(descriptions, m.Description)
	}
	summary := cluster.CanonicalService
	for _, d := range descriptions {
		summary += ": " + d
	}
	return summary
}
