// Package commands implements the streamq CLI.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/streamq-io/streamq/cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "streamq",
	Short: "Inspect and run streaming-SQL queries",
	Long: `streamq compiles typed query graphs to streaming SQL and runs
statements against a streaming engine for debugging.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		if endpoint, _ := cmd.Flags().GetString("endpoint"); endpoint != "" {
			cfg.Endpoint = endpoint
		}
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("endpoint", "", "engine HTTP endpoint (overrides config)")
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(runCmd)
}
