package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/strands/strands/internal/api"
	"github.com/strands/strands/internal/metrics"
)

// --- Global Command Variables ---
var (
	configPath string

	rootCmd = &cobra.Command{
		Use:   "strands",
		Short: "Strands autonomous incident-response controller",
		Long: `Strands ingests alerts from Kubernetes/SRE monitoring providers,
investigates incident clusters with a specialist swarm, fuses their
findings into a decision, and routes it through automated or
human-reviewed remediation.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Start the controller's tick loop and serve HTTP",
		RunE:  runController,
	}

	replayCmd = &cobra.Command{
		Use:   "replay [events-file]",
		Short: "Replay a recorded events file against the live decisioning path",
		Args:  cobra.ExactArgs(1),
		RunE:  runReplay,
	}

	validateConfigCmd = &cobra.Command{
		Use:   "validate-config",
		Short: "Load and validate the configuration file without starting anything",
		RunE:  runValidateConfig,
	}

	healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Check connectivity to the graph store and configured providers",
		RunE:  runHealth,
	}

	playbookCmd = &cobra.Command{
		Use:   "playbook",
		Short: "Inspect and curate stored playbooks",
	}

	playbookListCmd = &cobra.Command{
		Use:   "list",
		Short: "List playbooks pending human review",
		RunE:  runPlaybookList,
	}

	playbookShowCmd = &cobra.Command{
		Use:   "show [playbook-id]",
		Short: "Show one playbook's full record",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlaybookShow,
	}

	playbookApproveCmd = &cobra.Command{
		Use:   "approve [playbook-id]",
		Short: "Promote a PENDING_REVIEW playbook to ACTIVE",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlaybookApprove,
	}

	playbookRejectCmd = &cobra.Command{
		Use:   "reject [playbook-id] [reason]",
		Short: "Archive a PENDING_REVIEW playbook",
		Args:  cobra.ExactArgs(2),
		RunE:  runPlaybookReject,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config YAML (defaults to STRANDS_CONFIG)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(validateConfigCmd)
	rootCmd.AddCommand(healthCmd)

	rootCmd.AddCommand(playbookCmd)
	playbookCmd.AddCommand(playbookListCmd)
	playbookCmd.AddCommand(playbookShowCmd)
	playbookCmd.AddCommand(playbookApproveCmd)
	playbookCmd.AddCommand(playbookRejectCmd)
}

// runController loads config, wires the app, and blocks running the
// tick loop and the HTTP/JSON API concurrently until SIGINT/SIGTERM,
// following the teacher's graceful shutdown shape: cancel the context,
// let the in-flight tick and in-flight requests finish within
// Server.GracefulTimeout.
func runController(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	ctrl := a.newController()
	a.logger.Info("strands controller starting",
		"tick_interval", cfg.Controller.TickInterval,
		"global_deadline", cfg.Controller.GlobalDeadline,
	)

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	httpServer := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: api.NewRouter(a.newServer(ctrl), cfg.Auth.JWTSecret),
	}

	metricsServer := &http.Server{
		Addr:    cfg.Server.MetricsAddress,
		Handler: promhttp.Handler(),
	}

	serveErrCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "address", cfg.Server.Address)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErrCh <- err
			return
		}
		serveErrCh <- nil
	}()

	metricsErrCh := make(chan error, 1)
	go func() {
		a.logger.Info("metrics server listening", "address", cfg.Server.MetricsAddress)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			metricsErrCh <- err
			return
		}
		metricsErrCh <- nil
	}()

	tickErrCh := make(chan error, 1)
	go func() {
		tickErrCh <- ctrl.Run(runCtx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErrCh:
		if err != nil {
			runErr = err
		}
	case err := <-metricsErrCh:
		if err != nil {
			runErr = err
		}
	}
	cancelRun()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Warn("http server shutdown error", "error", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Warn("metrics server shutdown error", "error", err)
	}

	if err := <-tickErrCh; err != nil && err != context.Canceled {
		runErr = err
	}

	a.logger.Info("strands controller stopped")
	return runErr
}

func runValidateConfig(cmd *cobra.Command, args []string) error {
	_, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "config OK")
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
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

	if _, err := a.graph.Query(ctx, "RETURN 1", nil); err != nil {
		return fmt.Errorf("graph store unreachable: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "healthy")
	return nil
}
