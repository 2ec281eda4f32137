package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chat-cli",
	Short: "Inspect a gobychat deployment",
	Long: `chat-cli is a command-line companion to the gobychat server.

Available commands:
  topics     Explore the event bus topics the server publishes on
  history    Read stored conversations from a badger data directory
  groups     List the groups in a badger data directory

Use "chat-cli [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
