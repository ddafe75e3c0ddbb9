package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/oktabridge/oktabridge/internal/config"
	"github.com/oktabridge/oktabridge/internal/store"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Inspect reconciliation failure logs.",
}

var logsLookupCmd = &cobra.Command{
	Use:   "lookup <reference>",
	Short: "Resolve a support reference quoted by an end user.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := strings.TrimPrefix(strings.TrimSpace(args[0]), "#")
		messageID, err := strconv.Atoi(ref)
		if err != nil {
			return fmt.Errorf("reference must be numeric, got %q", args[0])
		}

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

		st, err := store.New(pool)
		if err != nil {
			return err
		}
		entries, err := st.SyncLogs().FindByMessageID(ctx, messageID)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "no log entries for reference #%d\n", messageID)
			return nil
		}
		for _, entry := range entries {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  code=%d  %s  provider=%s  subject=%s\n",
				entry.CreatedAt.Format("2006-01-02 15:04:05"), int(entry.Code), entry.Code.Message(), entry.Provider, entry.Identifier)
		}
		return nil
	},
}

func init() {
	logsCmd.AddCommand(logsLookupCmd)
}
