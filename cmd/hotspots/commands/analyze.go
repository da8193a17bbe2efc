// Package commands implements CLI command handlers for hotspots.
package commands

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Stephen-Collins-tech/hotspots/internal/config"
	"github.com/Stephen-Collins-tech/hotspots/internal/observability"
	"github.com/Stephen-Collins-tech/hotspots/internal/report"
	"github.com/Stephen-Collins-tech/hotspots/pkg/pipeline"
)

// ErrBlockingPolicyFailures is returned (as a non-zero exit) when
// --check is set and the computed delta triggers a blocking policy.
var ErrBlockingPolicyFailures = errors.New("analyze: blocking policy failures")

// AnalyzeCommand holds the flags for the analyze command.
type AnalyzeCommand struct {
	path       string
	configFile string
	workers    int
	force      bool
	quiet      bool
	topN       int
	check      bool
	format     string
}

// NewAnalyzeCommand creates and configures the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	ac := &AnalyzeCommand{}

	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Analyze the repository at HEAD and persist a snapshot",
		Long:  "Parses every supported file, scores each function's risk, enriches it with git history and call-graph signals, and persists the result under .hotspots/.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  ac.run,
	}

	cmd.Flags().StringVar(&ac.configFile, "config", "", "Configuration file path (default: .hotspots.yaml in CWD or $HOME)")
	cmd.Flags().IntVar(&ac.workers, "workers", 0, "Number of parallel file workers (0 = CPU count)")
	cmd.Flags().BoolVar(&ac.force, "force", false, "Overwrite a differing persisted snapshot for this commit")
	cmd.Flags().BoolVarP(&ac.quiet, "quiet", "q", false, "Suppress the top-functions table")
	cmd.Flags().IntVar(&ac.topN, "top", 20, "Number of riskiest functions to display (0 = all)")
	cmd.Flags().BoolVar(&ac.check, "check", false, "Exit non-zero if the delta against the parent commit triggers a blocking policy")
	cmd.Flags().StringVar(&ac.format, "format", "table", "Output format: table, json, or yaml")

	return cmd
}

func (ac *AnalyzeCommand) run(cmd *cobra.Command, args []string) error {
	ac.path = "."
	if len(args) == 1 {
		ac.path = args[0]
	}

	outputFormat, err := report.ParseFormat(ac.format)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resolved, err := config.Load(ac.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.DefaultConfig())
	metrics := observability.NewPipelineMetrics()

	result, err := pipeline.Run(ctx, pipeline.Options{
		RepoRoot: ac.path,
		Config:   resolved,
		Workers:  ac.workers,
		Force:    ac.force,
		Metrics:  metrics,
	})
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	logger.Info("analyzed commit", "sha", result.Snapshot.Commit.SHA, "functions", len(result.Snapshot.Functions))

	if outputFormat != report.FormatTable {
		return report.WriteSnapshot(cmd.OutOrStdout(), result.Snapshot, outputFormat)
	}

	if !ac.quiet {
		report.WriteTopFunctions(cmd.OutOrStdout(), result.Snapshot, ac.topN)

		if result.Delta != nil {
			report.WritePolicyResults(cmd.OutOrStdout(), result.Delta, result.PolicyResults)
		}
	}

	if ac.check && result.PolicyResults != nil && result.PolicyResults.HasBlockingFailures() {
		return ErrBlockingPolicyFailures
	}

	return nil
}
