package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/oktabridge/oktabridge/internal/config"
	"github.com/oktabridge/oktabridge/internal/jobs"
	"github.com/oktabridge/oktabridge/internal/metrics"
)

const retentionInterval = 24 * time.Hour

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the background sync and retention loops.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorker()
	},
}

func runWorker() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.SyncInterval <= 0 {
		return errors.New("SYNC_INTERVAL must be > 0 to run the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	a, err := newApp(cfg, pool)
	if err != nil {
		return err
	}
	engine, err := a.batchEngine(false)
	if err != nil {
		return err
	}

	batch := jobs.NewTryLockRunner(pool, jobs.BatchJobName, a.batchJob(engine))
	retention := jobs.NewTryLockRunner(pool, "retention", a.retentionJob())

	_, metricsErrCh := metrics.StartServer(ctx, cfg.MetricsAddr)

	slog.Info("worker started", "interval", cfg.SyncInterval)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s := jobs.Scheduler{Name: "batch-sync", Runner: batch, Interval: cfg.SyncInterval}
		s.Run(ctx)
		return nil
	})
	g.Go(func() error {
		s := jobs.Scheduler{Name: "retention", Runner: retention, Interval: retentionInterval}
		s.Run(ctx)
		return nil
	})
	if metricsErrCh != nil {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return nil
			case err := <-metricsErrCh:
				return err
			}
		})
	}
	return g.Wait()
}
