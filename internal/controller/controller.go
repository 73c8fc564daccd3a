// Package controller implements C11: the steady-state tick loop that
// drives one ingestion cycle through investigation, fusion,
// recommendation, persistence and the human-review gate, never
// blocking a tick on a pending review.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/strands/strands/internal/adapters"
	"github.com/strands/strands/internal/decision"
	"github.com/strands/strands/internal/domain"
	"github.com/strands/strands/internal/errs"
	"github.com/strands/strands/internal/ingest"
	"github.com/strands/strands/internal/metrics"
	"github.com/strands/strands/internal/recommend"
	"github.com/strands/strands/internal/review"
	"github.com/strands/strands/internal/swarm"
)

// Config bundles the per-tick tunables spec.md section 4.11 and 5 name:
// the tick interval itself and the global per-investigation deadline
// budget it carves out of.
type Config struct {
	TickInterval   time.Duration
	GlobalDeadline time.Duration
	SystemIdentity string
	DecisionConfig decision.Config
	AutoApprove    bool
}

// Controller wires C3 (ingest), C5 (swarm), C6 (fuse), C7 (recommend),
// C8 (playbook persistence) and C9 (review) into the tick loop C11
// describes.
type Controller struct {
	pipeline    *ingest.Pipeline
	coordinator *swarm.Coordinator
	recommender *recommend.Recommender
	graph       adapters.GraphStore
	gate        *review.Gate
	promoter    review.PlaybookPromoter
	executor    Executor
	logger      *slog.Logger
	cfg         Config
}

// New builds a C11 controller from its component dependencies.
func New(
	pipeline *ingest.Pipeline,
	coordinator *swarm.Coordinator,
	recommender *recommend.Recommender,
	graph adapters.GraphStore,
	gate *review.Gate,
	promoter review.PlaybookPromoter,
	executor Executor,
	logger *slog.Logger,
	cfg Config,
) *Controller {
	return &Controller{
		pipeline:    pipeline,
		coordinator: coordinator,
		recommender: recommender,
		graph:       graph,
		gate:        gate,
		promoter:    promoter,
		executor:    executor,
		logger:      logger,
		cfg:         cfg,
	}
}

// Run blocks, ticking every cfg.TickInterval until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.Tick(ctx); err != nil && !errs.Is(err, errs.NoProviderAvailable) {
				c.logger.ErrorContext(ctx, "tick failed", "error", err)
			}
		}
	}
}

// Tick runs exactly one steady-state cycle: collect, cluster,
// investigate and decide on every cluster, in deterministic cluster-id
// order, persisting as it goes. A NO_PROVIDER_AVAILABLE error is
// returned unchanged so the caller can record TICK_SKIPPED and emit
// metrics without treating it as a fatal failure.
func (c *Controller) Tick(ctx context.Context) error {
	tickStart := time.Now()
	deadline := c.cfg.GlobalDeadline
	if deadline <= 0 {
		deadline = swarm.DefaultGlobalDeadline
	}

	cycle, err := c.pipeline.Run(ctx)
	if err != nil {
		if errs.Is(err, errs.NoProviderAvailable) {
			c.logger.WarnContext(ctx, "TICK_SKIPPED", "reason", "NO_PROVIDER_AVAILABLE")
		}
		return err
	}

	clusters := make([]*domain.AlertCluster, len(cycle.Clusters))
	copy(clusters, cycle.Clusters)
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].ID < clusters[j].ID })

	for _, cluster := range clusters {
		elapsed := time.Since(tickStart)
		remaining := deadline - elapsed
		if remaining <= 0 {
			c.logger.WarnContext(ctx, "tick budget exhausted before cluster processed", "cluster_id", cluster.ID)
			remaining = time.Millisecond
		}
		if err := c.processCluster(ctx, cluster, remaining); err != nil {
			c.logger.ErrorContext(ctx, "cluster processing failed", "cluster_id", cluster.ID, "error", err)
		}
	}

	return nil
}

// processCluster implements spec.md section 4.11 steps 2a-2e for one
// cluster.
func (c *Controller) processCluster(ctx context.Context, cluster *domain.AlertCluster, deadline time.Duration) error {
	investigateStart := time.Now()
	results, err := c.coordinator.Investigate(ctx, cluster, deadline)
	investigateOutcome := metrics.OutcomeSuccess
	if err != nil {
		if !errs.Is(err, errs.InvestigationDegraded) {
			metrics.ObserveInvestigation(time.Since(investigateStart), metrics.OutcomeError)
			return err
		}
		investigateOutcome = metrics.OutcomeError
	}
	metrics.ObserveInvestigation(time.Since(investigateStart), investigateOutcome)

	candidate := decision.Fuse(cluster, results, c.cfg.DecisionConfig)

	if err := persistCluster(ctx, c.graph, cluster); err != nil {
		return err
	}
	if err := persistDecision(ctx, c.graph, candidate); err != nil {
		return err
	}

	key := recommend.KeyFor(cluster, recommend.DominantPattern(results))
	rec, err := c.recommender.Recommend(ctx, cluster, candidate, key)
	if err != nil {
		return err
	}
	if err := persistRecommendation(ctx, c.graph, candidate.ID, rec); err != nil {
		return err
	}

	if _, err := c.gate.Request(ctx, candidate, c.cfg.SystemIdentity); err != nil {
		return err
	}

	readyForAutoApprove := c.cfg.AutoApprove &&
		rec.Status == recommend.StatusReady &&
		candidate.Type == domain.DecisionAutoApprove &&
		candidate.Automation == domain.AutomationFull

	if !readyForAutoApprove {
		c.logger.InfoContext(ctx, "decision awaiting human review",
			"decision_id", candidate.ID, "cluster_id", cluster.ID, "status", rec.Status)
		return nil
	}

	approved, outcome, err := c.gate.Approve(ctx, candidate.ID, c.cfg.SystemIdentity+"-auto", "auto-approved: AUTO_APPROVE decision under FULL automation")
	if err != nil {
		var ge *errs.Error
		if errors.As(err, &ge) {
			c.logger.WarnContext(ctx, "auto-approval rejected", "decision_id", candidate.ID, "kind", ge.Kind)
			return nil
		}
		return err
	}

	wasGenerated := rec.Source != recommend.ProvenanceKnown
	if sideErr := review.ApplyPlaybookSideEffect(ctx, c.promoter, approved, rec.Playbook.ID, wasGenerated); sideErr != nil {
		c.logger.ErrorContext(ctx, "playbook side effect failed", "decision_id", candidate.ID, "error", sideErr)
	}

	if outcome == review.OutcomeExecuteRequest {
		if execErr := c.executor.Execute(ctx, candidate, rec.Playbook); execErr != nil {
			c.logger.ErrorContext(ctx, "execute request failed", "decision_id", candidate.ID, "error", execErr)
		}
	}

	return nil
}

// ApproveReview drives a human approval arriving over HTTP through the
// same C9 transition and playbook side effect the auto-approval path
// in processCluster uses, so the two entry points never diverge on
// what "approved" actually does.
func (c *Controller) ApproveReview(ctx context.Context, decisionID, reviewerIdentity, notes string) (domain.ReviewRecord, error) {
	approved, outcome, err := c.gate.Approve(ctx, decisionID, reviewerIdentity, notes)
	if err != nil {
		return domain.ReviewRecord{}, err
	}

	playbookID, wasGenerated, found, err := recommendationFor(ctx, c.graph, decisionID)
	if err != nil {
		return approved, err
	}
	if !found {
		c.logger.WarnContext(ctx, "no recommendation on record for approved decision", "decision_id", decisionID)
		return approved, nil
	}

	if sideErr := review.ApplyPlaybookSideEffect(ctx, c.promoter, approved, playbookID, wasGenerated); sideErr != nil {
		return approved, sideErr
	}

	if outcome == review.OutcomeExecuteRequest {
		playbook, pbFound, pbErr := c.lookupPlaybook(ctx, playbookID)
		if pbErr != nil {
			return approved, pbErr
		}
		candidate, candFound, candErr := decisionCandidateFor(ctx, c.graph, decisionID)
		if candErr != nil {
			return approved, candErr
		}
		if !candFound {
			candidate = domain.DecisionCandidate{ID: decisionID}
		}
		if pbFound {
			if execErr := c.executor.Execute(ctx, candidate, playbook); execErr != nil {
				c.logger.ErrorContext(ctx, "execute request failed", "decision_id", decisionID, "error", execErr)
			}
		}
	}
	return approved, nil
}

// RejectReview drives a human rejection arriving over HTTP through C9.
func (c *Controller) RejectReview(ctx context.Context, decisionID, reviewerIdentity, notes string) (domain.ReviewRecord, error) {
	rejected, _, err := c.gate.Reject(ctx, decisionID, reviewerIdentity, notes)
	if err != nil {
		return domain.ReviewRecord{}, err
	}

	playbookID, wasGenerated, found, err := recommendationFor(ctx, c.graph, decisionID)
	if err != nil {
		return rejected, err
	}
	if found {
		if sideErr := review.ApplyPlaybookSideEffect(ctx, c.promoter, rejected, playbookID, wasGenerated); sideErr != nil {
			return rejected, sideErr
		}
	}
	return rejected, nil
}

func (c *Controller) lookupPlaybook(ctx context.Context, playbookID string) (domain.Playbook, bool, error) {
	type playbookGetter interface {
		Get(ctx context.Context, id string) (domain.Playbook, bool, error)
	}
	getter, ok := c.promoter.(playbookGetter)
	if !ok {
		return domain.Playbook{}, false, nil
	}
	return getter.Get(ctx, playbookID)
}
