package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/oktabridge/oktabridge/internal/config"
	"github.com/oktabridge/oktabridge/internal/httpapi"
	"github.com/oktabridge/oktabridge/internal/jobs"
	"github.com/oktabridge/oktabridge/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, metrics listener and background sync loop.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
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

	srv := httpapi.NewServer(a.login, cfg.Provider)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}
	_, metricsErrCh := metrics.StartServer(ctx, cfg.MetricsAddr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s := jobs.Scheduler{Name: "batch-sync", Runner: batch, Interval: cfg.SyncInterval}
		s.Run(ctx)
		return nil
	})
	g.Go(func() error {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
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
