package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/oktabridge/oktabridge/internal/config"
	"github.com/oktabridge/oktabridge/internal/jobs"
	"github.com/oktabridge/oktabridge/internal/reconcile"
)

var (
	syncDryRun bool
	syncCursor string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one batch sync pass against Okta.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync()
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "report planned changes without writing")
	syncCmd.Flags().StringVar(&syncCursor, "cursor", "", "start from this pagination cursor instead of the persisted one")
}

func runSync() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	a, err := newApp(cfg, pool)
	if err != nil {
		return err
	}
	engine, err := a.batchEngine(syncDryRun)
	if err != nil {
		return err
	}

	var inner jobs.Runner = a.batchJob(engine)
	if syncCursor != "" || syncDryRun {
		// An explicit cursor or a dry run must not disturb the worker's
		// persisted pagination position.
		inner = jobs.RunnerFunc(func(ctx context.Context) error {
			page := reconcile.PageOptions{Limit: cfg.SyncPageSize, After: syncCursor}
			_, err := engine.Run(ctx, page, cfg.UnlinkBatchLimit)
			return err
		})
	}
	runner := jobs.NewBlockingLockRunner(pool, jobs.BatchJobName, inner)

	syncErr := runner.RunOnce(ctx)
	if syncErr == nil {
		if syncDryRun {
			for _, line := range engine.Report().Lines() {
				fmt.Fprintln(os.Stdout, line)
			}
		}
		return nil
	}
	if errors.Is(syncErr, context.Canceled) {
		return &exitError{code: 130, err: syncErr, silent: true}
	}
	return &exitError{code: 1, err: syncErr, silent: false}
}
