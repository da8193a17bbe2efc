// Package main provides the entry point for the hotspots CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Stephen-Collins-tech/hotspots/cmd/hotspots/commands"
	"github.com/Stephen-Collins-tech/hotspots/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "hotspots",
		Short: "Hotspots - function-level risk and churn analysis",
		Long: `Hotspots computes a per-function Local Risk Score from static complexity
and git history, tracks it commit over commit, and enforces CI policy on
regressions.

Commands:
  analyze         Analyze the repository at HEAD and persist a snapshot
  delta           Show the risk delta between two persisted snapshots
  rebuild-index   Rebuild the snapshot index from the store on disk`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewDeltaCommand())
	rootCmd.AddCommand(commands.NewRebuildIndexCommand())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "hotspots %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
