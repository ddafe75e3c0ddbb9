package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/oktabridge/oktabridge/internal/config"
)

var purgeLogsCmd = &cobra.Command{
	Use:   "purge-logs",
	Short: "Delete reconciliation failure logs past the retention window.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOptionalOkta()
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
		return a.retentionJob().RunOnce(ctx)
	},
}
