package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/strands/strands/internal/utils"
)

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}

var playbookListLimit int

func init() {
	playbookListCmd.Flags().IntVar(&playbookListLimit, "limit", 20, "maximum playbooks to list")
}

func runPlaybookList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	ctx := context.Background()
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	playbooks, err := a.store.PendingReview(ctx, playbookListLimit)
	if err != nil {
		return fmt.Errorf("list pending playbooks: %w", err)
	}
	for _, p := range playbooks {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", p.ID, p.Title, p.PatternType, p.Status)
	}
	return nil
}

func runPlaybookShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	ctx := context.Background()
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	p, found, err := a.store.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get playbook: %w", err)
	}
	if !found {
		return fmt.Errorf("playbook %s not found", args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "id: %s\ntitle: %s\nstatus: %s\npattern: %s\nservice_pattern: %s\nrisk: %s\nautomation: %s\nsteps: %d\n",
		p.ID, p.Title, p.Status, p.PatternType, p.ServicePattern, p.Risk, p.Automation, len(p.Steps))
	fmt.Fprintf(cmd.OutOrStdout(), "executions: %d\nsuccesses: %d\nfailures: %d\nsuccess_rate: %.3f\nmean_duration_s: %.2f\nvariance: %.2f\nlast_executed_at: %s\n",
		p.Stats.TotalExecutions, p.Stats.SuccessCount, p.Stats.FailureCount, p.Stats.SuccessRate(),
		p.Stats.MeanDuration, p.Stats.Variance(), formatTimestamp(p.Stats.LastExecutedAt))
	if !p.Stats.LastExecutedAt.IsZero() {
		fmt.Fprintf(cmd.OutOrStdout(), "last_executed_minutes_ago: %.1f\n", utils.DurationMinutes(p.Stats.LastExecutedAt, time.Now().UTC()))
	}
	return nil
}

func runPlaybookApprove(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	ctx := context.Background()
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	if err := a.store.Approve(ctx, args[0], cfg.Controller.SystemIdentity+"-operator"); err != nil {
		return fmt.Errorf("approve playbook: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "playbook %s approved\n", args[0])
	return nil
}

func runPlaybookReject(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	ctx := context.Background()
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	if err := a.store.Reject(ctx, args[0], cfg.Controller.SystemIdentity+"-operator", args[1]); err != nil {
		return fmt.Errorf("reject playbook: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "playbook %s rejected\n", args[0])
	return nil
}
