package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/trainingdesk/internal/api"
	"github.com/shaharia-lab/trainingdesk/internal/build"
	"github.com/shaharia-lab/trainingdesk/internal/config"
	"github.com/shaharia-lab/trainingdesk/internal/scheduler"
	"github.com/shaharia-lab/trainingdesk/internal/server"
)

// NewServeCmd returns the "serve" subcommand: it retries failed mail on a
// schedule and serves the JSON API, /health and /metrics until interrupted.
func NewServeCmd(cfg *config.AppConfig, opts *globalOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the outbox retry scheduler and the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				cfg.MetricsPort = port
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return withApp(cfg, opts, func(a *app) error {
				fmt.Fprintf(cmd.OutOrStdout(), "%s serving on :%d (logs: %s)\n", build.String(), cfg.MetricsPort, cfg.LogDir())
				return runServe(ctx, a)
			})
		},
	}
	cmd.Flags().IntVar(&port, "port", cfg.MetricsPort, "HTTP port (overrides METRICS_PORT)")
	return cmd
}

func runServe(ctx context.Context, a *app) error {
	sched, err := scheduler.New(scheduler.Config{
		Retrier:     a.dispatcher,
		Logger:      a.logger,
		Interval:    time.Duration(a.cfg.OutboxRetryMinutes) * time.Minute,
		MaxAttempts: a.cfg.OutboxMaxAttempts,
	})
	if err != nil {
		return err
	}
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := sched.Stop(); err != nil {
			a.logger.Warn("scheduler shutdown", "error", err)
		}
	}()

	a.logger.Info("trainingdesk serving", build.LogAttrs(), "port", a.cfg.MetricsPort)
	routes := api.New(a.trainingSvc, a.notificationSvc, a.settingsSvc, a.logger)
	return server.New(a.db, a.metrics.Handler(), routes, a.cfg.MetricsPort, a.logger).Run(ctx)
}

// NewVersionCmd returns the "version" subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), build.String())
		},
	}
}
