package controller

import (
	"context"
	"log/slog"

	"github.com/strands/strands/internal/domain"
)

// Executor is the boundary the controller calls across once a decision
// clears C9 (auto-approved or human-approved): triggering the
// playbook's steps against the target cluster. Actually carrying out
// remediation commands against a Kubernetes cluster is outside this
// system's core (spec.md section 1 scopes THE CORE to investigation,
// decisioning and the learning loop) — Executor is the seam a
// deployment wires a real command runner into.
type Executor interface {
	Execute(ctx context.Context, decision domain.DecisionCandidate, playbook domain.Playbook) error
}

// LoggingExecutor is the default Executor: it records an EXECUTE_REQUEST
// audit line and does nothing else, so a deployment without a wired
// remediation runner still produces a complete audit trail instead of
// silently dropping the request.
type LoggingExecutor struct {
	Logger *slog.Logger
}

// Execute logs the execution request.
func (e *LoggingExecutor) Execute(ctx context.Context, decision domain.DecisionCandidate, playbook domain.Playbook) error {
	e.Logger.InfoContext(ctx, "EXECUTE_REQUEST",
		"decision_id", decision.ID,
		"cluster_id", decision.ClusterID,
		"playbook_id", playbook.ID,
		"playbook_title", playbook.Title,
	)
	return nil
}
