package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/strands/strands/internal/adapters"
	"github.com/strands/strands/internal/cache"
	"github.com/strands/strands/internal/domain"
)

// Status is the readiness a Recommendation carries, distinct from the
// underlying Playbook's own lifecycle Status.
type Status string

const (
	StatusReady            Status = "READY"
	StatusRequiresApproval Status = "REQUIRES_APPROVAL"
)

// Provenance distinguishes how a Recommendation was resolved, per
// spec.md section 4.7 steps 4-6. It is distinct from the underlying
// Playbook's own Source field (which records how the playbook's
// content was authored).
type Provenance string

const (
	ProvenanceKnown     Provenance = "KNOWN"
	ProvenanceGenerated Provenance = "GENERATED"
	ProvenanceFallback  Provenance = "FALLBACK"
)

// PlaybookLookup is the narrow C8 read contract this package needs:
// the active playbooks matching a key, ready for adaptive scoring.
type PlaybookLookup interface {
	ActivePlaybooksForKey(ctx context.Context, key Key) ([]domain.Playbook, error)
	Store(ctx context.Context, playbook domain.Playbook) error
}

// Recommendation is C7's output: a resolved (or synthetic) playbook
// plus its readiness and provenance.
type Recommendation struct {
	Playbook domain.Playbook
	Source   Provenance
	Status   Status
}

// Recommender resolves decisions to playbooks through the
// known -> generated -> fallback chain.
type Recommender struct {
	lookup    PlaybookLookup
	generator adapters.TextGenerator
	cache     cache.Provider
	cacheTTL  time.Duration
}

// NewRecommender builds a C7 recommender. cacheProvider may be
// cache.NoopProvider{} to disable the cache-aside lookup entirely.
func NewRecommender(lookup PlaybookLookup, generator adapters.TextGenerator, cacheProvider cache.Provider, cacheTTL time.Duration) *Recommender {
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	return &Recommender{lookup: lookup, generator: generator, cache: cacheProvider, cacheTTL: cacheTTL}
}

// Recommend implements recommend(decision): lookup active playbooks by
// key, rank by adaptive score, and on a miss fall through to
// generation, then to a synthetic fallback built from the decision's
// own suggested actions.
func (r *Recommender) Recommend(ctx context.Context, cluster *domain.AlertCluster, decision domain.DecisionCandidate, key Key) (Recommendation, error) {
	candidates, err := r.activePlaybooksForKey(ctx, key)
	if err == nil && len(candidates) > 0 {
		ranked := Rank(candidates, decision.Confidence)
		return Recommendation{Playbook: ranked[0], Source: ProvenanceKnown, Status: StatusReady}, nil
	}

	generated, genErr := r.generate(ctx, cluster, decision, key)
	if genErr == nil {
		if storeErr := r.lookup.Store(ctx, generated); storeErr != nil {
			return Recommendation{}, storeErr
		}
		_ = r.cache.Del(ctx, cache.PlaybookLookupKey(key.String()))
		return Recommendation{Playbook: generated, Source: ProvenanceGenerated, Status: StatusRequiresApproval}, nil
	}

	return Recommendation{Playbook: fallbackPlaybook(cluster, decision, key), Source: ProvenanceFallback, Status: StatusRequiresApproval}, nil
}

// activePlaybooksForKey implements C7's cache-aside lookup, following
// the teacher's weaviate_repo.go read pattern: check the cache, fall
// through to C8 on a miss, and write back with a TTL on that hit so
// the next cluster sharing this key within the window skips the graph
// round-trip.
func (r *Recommender) activePlaybooksForKey(ctx context.Context, key Key) ([]domain.Playbook, error) {
	cacheKey := cache.PlaybookLookupKey(key.String())

	var cached []domain.Playbook
	if err := cache.GetJSON(ctx, r.cache, cacheKey, &cached); err == nil {
		return cached, nil
	}

	playbooks, err := r.lookup.ActivePlaybooksForKey(ctx, key)
	if err != nil {
		return nil, err
	}
	cache.SetJSON(ctx, r.cache, cacheKey, playbooks, r.cacheTTL)
	return playbooks, nil
}

// generate drafts a playbook from the decision's hypothesis and
// evidence via the text generator, persisted by the caller as
// PENDING_REVIEW (spec.md section 4.7 step 5).
func (r *Recommender) generate(ctx context.Context, cluster *domain.AlertCluster, decision domain.DecisionCandidate, key Key) (domain.Playbook, error) {
	if r.generator == nil {
		return domain.Playbook{}, fmt.Errorf("no text generator configured")
	}

	prompt := buildPrompt(cluster, decision)
	text, err := r.generator.Generate(ctx, prompt, adapters.GenerateOptions{MaxTokens: 800, Temperature: 0.2})
	if err != nil {
		return domain.Playbook{}, err
	}

	steps := parseGeneratedSteps(text)
	now := time.Now().UTC()
	return domain.Playbook{
		ID:             uuid.NewString(),
		Title:          "Generated remediation for " + cluster.CanonicalService,
		Description:    decision.Hypothesis,
		PatternType:    key.PatternType,
		ServicePattern: key.ServicePattern,
		Steps:          steps,
		Automation:     domain.AutomationAssisted,
		Risk:           decision.Risk,
		Source:         domain.SourceLLMGenerated,
		Status:         domain.PlaybookPendingReview,
		Version:        domain.SemVer{Major: 0, Minor: 1, Patch: 0},
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// fallbackPlaybook builds a synthetic, unpersisted playbook from the
// decision's own suggested actions when generation fails (spec.md
// section 4.7 step 6).
func fallbackPlaybook(cluster *domain.AlertCluster, decision domain.DecisionCandidate, key Key) domain.Playbook {
	steps := make([]domain.PlaybookStep, 0, len(decision.SuggestedActions))
	for i, action := range decision.SuggestedActions {
		steps = append(steps, domain.PlaybookStep{Index: i, Title: action, Description: action})
	}
	now := time.Now().UTC()
	return domain.Playbook{
		ID:             "fallback-" + uuid.NewString(),
		Title:          "Ad-hoc response for " + cluster.CanonicalService,
		Description:    decision.Hypothesis,
		PatternType:    key.PatternType,
		ServicePattern: key.ServicePattern,
		Steps:          steps,
		Automation:     domain.AutomationManual,
		Risk:           decision.Risk,
		Source:         domain.SourceHumanWritten,
		Status:         domain.PlaybookDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func buildPrompt(cluster *domain.AlertCluster, decision domain.DecisionCandidate) string {
	var b strings.Builder
	b.WriteString("Draft a step-by-step remediation playbook.\n")
	b.WriteString("Service: " + cluster.CanonicalService + "\n")
	b.WriteString("Hypothesis: " + decision.Hypothesis + "\n")
	b.WriteString("Evidence:\n")
	for _, e := range decision.Evidence {
		b.WriteString("- " + e.Description + "\n")
	}
	return b.String()
}

// parseGeneratedSteps splits the generator's free text into one step
// per non-empty line; a richer structured-output contract is left to
// the generator adapter's caller if the model supports it.
func parseGeneratedSteps(text string) []domain.PlaybookStep {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	steps := make([]domain.PlaybookStep, 0, len(lines))
	idx := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		steps = append(steps, domain.PlaybookStep{Index: idx, Title: trimmed, Description: trimmed})
		idx++
	}
	return steps
}
