package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/strands/strands/internal/controller"
	"github.com/strands/strands/internal/domain"
	"github.com/strands/strands/internal/metrics"
	"github.com/strands/strands/internal/replay"
)

var (
	replayMode string
)

func init() {
	replayCmd.Flags().StringVar(&replayMode, "mode", string(domain.ReplayValidation), "replay mode: VALIDATION, TRAINING, SIMULATION or AUDIT")
}

// replayUnsafeBypassError is spec.md section 9's "replay aggregate
// marks FAIL -> CLI exits 2" rule, expressed as its own sentinel error
// so exitCodeFor routes it like any other runtime failure.
type replayUnsafeBypassError struct {
	aggregate replay.Aggregate
}

func (e *replayUnsafeBypassError) Error() string {
	return fmt.Sprintf("replay FAILED: %d unsafe bypass(es) out of %d events", e.aggregate.UnsafeBypassCount, e.aggregate.Total)
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read events file: %w", err)
	}
	var events []domain.ReplayEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		return fmt.Errorf("parse events file: %w", err)
	}

	ctx := context.Background()
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	decider := controller.NewReplayDecider(a.coordinator, a.decisionConfig())
	snapshot := replay.Snapshot{
		ModelVersion:   cfg.Controller.ModelVersion,
		WeightsVersion: "",
	}

	results, aggregate := replay.Run(ctx, decider, events, domain.ReplayMode(replayMode), snapshot)
	metrics.ObserveReplayAlignment(aggregate.AlignmentRate)

	for _, r := range results {
		if r.Err != nil {
			a.logger.Warn("replay event failed", "fingerprint", r.Event.OriginalAlert.Fingerprint, "error", r.Err)
			continue
		}
		a.logger.Info("replay event classified",
			"fingerprint", r.Event.OriginalAlert.Fingerprint,
			"classification", r.Classification,
		)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "total=%d matches=%d divergence_safe=%d divergence_unsafe=%d alignment_rate=%.3f pass=%v\n",
		aggregate.Total, aggregate.Matches, aggregate.DivergenceSafe, aggregate.DivergenceUnsafe, aggregate.AlignmentRate, aggregate.Pass)

	if !aggregate.Pass {
		return &replayUnsafeBypassError{aggregate: aggregate}
	}
	return nil
}
