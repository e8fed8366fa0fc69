// Package cli holds the portfolio-chat command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit string) {
	appVersion = version
	appCommit = commit
}

var configFile string

var rootCmd = &cobra.Command{
	Use:   "portfolio-chat",
	Short: "Chat backend for a personal portfolio site",
	Long: `portfolio-chat answers visitor questions about the portfolio owner's
projects, media appearances and career. Off-topic and private questions are
refused locally; everything else is answered by a completion model grounded
in the knowledge base under the data directory.

Run without a subcommand to start the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "portfolio-chat %s\ncommit: %s\n", appVersion, appCommit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./config.yaml if present)")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
