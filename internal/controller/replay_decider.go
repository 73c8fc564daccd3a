package controller

import (
	"context"

	"github.com/strands/strands/internal/decision"
	"github.com/strands/strands/internal/domain"
	"github.com/strands/strands/internal/replay"
	"github.com/strands/strands/internal/swarm"
)

// ReplayDecider drives C10 over the same investigate-then-fuse path the
// live tick loop runs (C5 then C6), so replay exercises production
// decisioning code rather than a parallel reimplementation. The
// snapshot's ModelVersion/WeightsVersion override whatever the live
// decision.Config carries, freezing replay to the configuration in
// effect at the original decision time.
type ReplayDecider struct {
	coordinator *swarm.Coordinator
	cfg         decision.Config
}

// NewReplayDecider builds a C10 decider around the live swarm
// coordinator and a base decision.Config (weights/policy); per-event
// model/weights version are overridden from the Snapshot at Decide
// time.
func NewReplayDecider(coordinator *swarm.Coordinator, cfg decision.Config) *ReplayDecider {
	return &ReplayDecider{coordinator: coordinator, cfg: cfg}
}

var _ replay.Decider = (*ReplayDecider)(nil)

// Decide reconstructs a single-alert cluster from the event's original
// alert, investigates it, and fuses a fresh DecisionCandidate under the
// frozen snapshot.
func (d *ReplayDecider) Decide(ctx context.Context, event domain.ReplayEvent, snapshot replay.Snapshot) (domain.DecisionCandidate, error) {
	cluster := &domain.AlertCluster{
		ID:               "replay-" + event.OriginalAlert.Fingerprint,
		CanonicalService: event.OriginalAlert.Service,
		ClusterType:      "replay",
		Earliest:         event.OriginalTimestamp,
		Latest:           event.OriginalTimestamp,
	}
	cluster.AddMember(domain.NormalisedAlert{Alert: event.OriginalAlert, Validation: domain.Valid()})

	results, err := d.coordinator.Investigate(ctx, cluster, swarm.DefaultGlobalDeadline)
	if err != nil {
		return domain.DecisionCandidate{}, err
	}

	cfg := d.cfg
	if snapshot.ModelVersion != "" {
		cfg.ModelVersion = snapshot.ModelVersion
	}
	if snapshot.WeightsVersion != "" {
		cfg.WeightsVersion = snapshot.WeightsVersion
	}

	candidate := decision.Fuse(cluster, results, cfg)
	return candidate, nil
}
