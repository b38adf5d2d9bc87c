// Package commands provides the CLI commands for agentgate.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	logLevel   string
	prettyLogs bool
)

var rootCmd = &cobra.Command{
	Use:   "agentgate",
	Short: "agentgate - approval gateway for coding assistant CLIs",
	Long: `agentgate supervises an interactive coding-assistant CLI and gates every
privileged action it attempts - shell commands, file writes and edits,
URL fetches, extension tools - through a rule-based approval engine.

Run 'agentgate serve' to start the supervisor and its HTTP API.`,
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&prettyLogs, "pretty-logs", false, "Human-readable log output")

	rootCmd.SetVersionTemplate(fmt.Sprintf("agentgate %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(rulesCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
