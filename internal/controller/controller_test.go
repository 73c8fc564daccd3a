package controller

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/strands/strands/internal/adapters"
	"github.com/strands/strands/internal/decision"
	"github.com/strands/strands/internal/domain"
	"github.com/strands/strands/internal/ingest"
	"github.com/strands/strands/internal/playbook"
	"github.com/strands/strands/internal/recommend"
	"github.com/strands/strands/internal/review"
	"github.com/strands/strands/internal/swarm"
)

type fakeMetricsSource struct {
	alerts []adapters.RawAlert
}

func (f *fakeMetricsSource) QueryInstant(ctx context.Context, expr string, at time.Time) (adapters.MetricPoint, error) {
	return adapters.MetricPoint{}, nil
}
func (f *fakeMetricsSource) QueryRange(ctx context.Context, expr string, start, end time.Time, step time.Duration) ([]adapters.MetricPoint, error) {
	return nil, nil
}
func (f *fakeMetricsSource) ListActiveAlerts(ctx context.Context) ([]adapters.RawAlert, error) {
	return f.alerts, nil
}

type fakeSpecialist struct {
	id     string
	result domain.SpecialistResult
}

func (f *fakeSpecialist) ID() string { return f.id }
func (f *fakeSpecialist) Investigate(ctx context.Context, cluster *domain.AlertCluster) (domain.SpecialistResult, error) {
	return f.result, nil
}

type fakeGraph struct {
	nodes map[string]map[string]map[string]any
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{nodes: map[string]map[string]map[string]any{}}
}

func (f *fakeGraph) UpsertNode(ctx context.Context, label string, props map[string]any) error {
	if f.nodes[label] == nil {
		f.nodes[label] = map[string]map[string]any{}
	}
	id, _ := props["id"].(string)
	f.nodes[label][id] = props
	return nil
}
func (f *fakeGraph) UpsertRelation(ctx context.Context, fromID, relType, toID string, props map[string]any) error {
	return nil
}
func (f *fakeGraph) Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	return nil, nil
}
func (f *fakeGraph) ServiceGraph(ctx context.Context, tenantID string) ([]adapters.ServiceGraphEdge, error) {
	return nil, nil
}
func (f *fakeGraph) Close(ctx context.Context) error { return nil }

type fakeReviewStore struct {
	records map[string]domain.ReviewRecord
}

func (f *fakeReviewStore) Get(ctx context.Context, decisionID string) (domain.ReviewRecord, bool, error) {
	r, ok := f.records[decisionID]
	return r, ok, nil
}
func (f *fakeReviewStore) Put(ctx context.Context, record domain.ReviewRecord) error {
	f.records[record.DecisionID] = record
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTickPersistsClusterAndDecision(t *testing.T) {
	now := time.Now()
	source := &fakeMetricsSource{alerts: []adapters.RawAlert{
		{
			Provider: "prometheus", Fingerprint: "fp-1", Service: "checkout",
			Severity: "critical", Status: "firing", StartsAt: now,
			Labels: map[string]string{"service": "checkout"},
		},
	}}
	collector := ingest.NewCollector([]ingest.Provider{{Name: "prometheus", Priority: 10, Source: source}})
	normaliser := ingest.NewNormaliser(map[string]ingest.SeverityMap{
		"prometheus": {"critical": domain.SeverityWarning},
	}, nil)
	dedup := ingest.NewDeduplicator(time.Minute)
	pipeline := ingest.NewPipeline(collector, normaliser, dedup)

	coordinator := swarm.NewCoordinator([]swarm.Specialist{
		&fakeSpecialist{id: "metrics-analyst", result: domain.SpecialistResult{
			BaseConfidence: 0.95,
			Evidence:       []domain.EvidenceItem{{Kind: domain.EvidenceMetric, Quality: 0.9}},
		}},
	})

	graph := newFakeGraph()
	store := playbook.NewStore(graph)
	recommender := recommend.NewRecommender(store, nil, nil, 0)
	gate := review.NewGate(&fakeReviewStore{records: map[string]domain.ReviewRecord{}})

	cfg := Config{
		TickInterval:   time.Second,
		GlobalDeadline: 5 * time.Second,
		SystemIdentity: "strands-system",
		DecisionConfig: decision.DefaultConfig(),
		AutoApprove:    true,
	}
	cfg.DecisionConfig.DefaultAutomation = domain.AutomationFull
	cfg.DecisionConfig.Policy = decision.PolicyPermissive

	ctrl := New(pipeline, coordinator, recommender, graph, gate, store, &LoggingExecutor{Logger: testLogger()}, testLogger(), cfg)

	if err := ctrl.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if len(graph.nodes["AlertCluster"]) != 1 {
		t.Fatalf("expected 1 persisted cluster, got %d", len(graph.nodes["AlertCluster"]))
	}
	if len(graph.nodes["DecisionCandidate"]) != 1 {
		t.Fatalf("expected 1 persisted decision, got %d", len(graph.nodes["DecisionCandidate"]))
	}
}

type fakeLookup struct {
	playbook domain.Playbook
}

func (f *fakeLookup) ActivePlaybooksForKey(ctx context.Context, key recommend.Key) ([]domain.Playbook, error) {
	return []domain.Playbook{f.playbook}, nil
}
func (f *fakeLookup) Store(ctx context.Context, p domain.Playbook) error { return nil }

type fakePromoter struct {
	approvedIDs []string
}

func (f *fakePromoter) Approve(ctx context.Context, id, approvedBy string) error {
	f.approvedIDs = append(f.approvedIDs, id)
	return nil
}
func (f *fakePromoter) Reject(ctx context.Context, id, rejectedBy, reason string) error { return nil }

type recordingExecutor struct {
	calls int
}

func (r *recordingExecutor) Execute(ctx context.Context, decision domain.DecisionCandidate, playbook domain.Playbook) error {
	r.calls++
	return nil
}

func TestTickAutoApprovesKnownReadyPlaybook(t *testing.T) {
	now := time.Now()
	source := &fakeMetricsSource{alerts: []adapters.RawAlert{
		{
			Provider: "prometheus", Fingerprint: "fp-2", Service: "checkout",
			Severity: "critical", Status: "firing", StartsAt: now,
			Labels: map[string]string{"service": "checkout"},
		},
	}}
	collector := ingest.NewCollector([]ingest.Provider{{Name: "prometheus", Priority: 10, Source: source}})
	normaliser := ingest.NewNormaliser(map[string]ingest.SeverityMap{
		"prometheus": {"critical": domain.SeverityWarning},
	}, nil)
	dedup := ingest.NewDeduplicator(time.Minute)
	pipeline := ingest.NewPipeline(collector, normaliser, dedup)

	coordinator := swarm.NewCoordinator([]swarm.Specialist{
		&fakeSpecialist{id: "metrics-analyst", result: domain.SpecialistResult{
			BaseConfidence: 0.95,
			Evidence:       []domain.EvidenceItem{{Kind: domain.EvidenceMetric, Quality: 0.9}},
		}},
	})

	graph := newFakeGraph()
	lookup := &fakeLookup{playbook: domain.Playbook{ID: "pb-1", Title: "restart pods", Status: domain.PlaybookActive}}
	recommender := recommend.NewRecommender(lookup, nil, nil, 0)
	gate := review.NewGate(&fakeReviewStore{records: map[string]domain.ReviewRecord{}})
	promoter := &fakePromoter{}
	executor := &recordingExecutor{}

	cfg := Config{
		TickInterval:   time.Second,
		GlobalDeadline: 5 * time.Second,
		SystemIdentity: "strands-system",
		DecisionConfig: decision.DefaultConfig(),
		AutoApprove:    true,
	}
	cfg.DecisionConfig.DefaultAutomation = domain.AutomationFull
	cfg.DecisionConfig.Policy = decision.PolicyPermissive

	ctrl := New(pipeline, coordinator, recommender, graph, gate, promoter, executor, testLogger(), cfg)

	if err := ctrl.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if executor.calls != 1 {
		t.Fatalf("expected executor invoked once, got %d", executor.calls)
	}
	if len(promoter.approvedIDs) != 1 || promoter.approvedIDs[0] != "pb-1" {
		t.Fatalf("expected playbook pb-1 approved, got %v", promoter.approvedIDs)
	}
}

func TestTickSkipsOnNoProvider(t *testing.T) {
	collector := ingest.NewCollector(nil)
	normaliser := ingest.NewNormaliser(nil, nil)
	dedup := ingest.NewDeduplicator(time.Minute)
	pipeline := ingest.NewPipeline(collector, normaliser, dedup)

	coordinator := swarm.NewCoordinator([]swarm.Specialist{&fakeSpecialist{id: "metrics-analyst"}})
	graph := newFakeGraph()
	store := playbook.NewStore(graph)
	recommender := recommend.NewRecommender(store, nil, nil, 0)
	gate := review.NewGate(&fakeReviewStore{records: map[string]domain.ReviewRecord{}})

	cfg := Config{TickInterval: time.Second, GlobalDeadline: time.Second, SystemIdentity: "strands-system", DecisionConfig: decision.DefaultConfig()}
	ctrl := New(pipeline, coordinator, recommender, graph, gate, store, &LoggingExecutor{Logger: testLogger()}, testLogger(), cfg)

	err := ctrl.Tick(context.Background())
	if err == nil {
		t.Fatalf("expected NO_PROVIDER_AVAILABLE error")
	}
}
