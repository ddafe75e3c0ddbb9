package main

import (
	"github.com/spf13/cobra"

	"github.com/oktabridge/oktabridge/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "oktabridge",
	Short:         "Oktabridge reconciles an Okta user population into the local identity store.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		structured := commandUsesStructuredLogging(cmd)
		setCommandExecutionContext(commandExecutionContext{
			CommandPath:       cmd.CommandPath(),
			UsesStructuredLog: structured,
		})
		if !structured {
			return nil
		}
		_, err := logging.BootstrapFromEnv(logging.BootstrapOptions{Command: cmd.CommandPath()})
		return err
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd, workerCmd, syncCmd, migrateCmd, purgeLogsCmd, logsCmd)
}
