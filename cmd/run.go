package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/folio/internal/app"
	"github.com/zjrosen/folio/internal/log"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a headless session service for the current project",
	Long: `Run starts the session service: it restores the last snapshot for
the project, watches open documents for external changes, and persists
session state until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cfg, app.Options{})
		if err != nil {
			return fmt.Errorf("starting session service: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := a.Start(ctx); err != nil {
			_ = a.Shutdown(context.Background())
			return fmt.Errorf("starting session service: %w", err)
		}
		log.Info(log.CatApp, "Session service running", "project", cfg.Project)

		<-ctx.Done()
		stop()

		return a.Shutdown(context.Background())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
