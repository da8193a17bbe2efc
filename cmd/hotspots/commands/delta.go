package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Stephen-Collins-tech/hotspots/internal/config"
	"github.com/Stephen-Collins-tech/hotspots/internal/report"
	"github.com/Stephen-Collins-tech/hotspots/pkg/delta"
	"github.com/Stephen-Collins-tech/hotspots/pkg/policy"
	"github.com/Stephen-Collins-tech/hotspots/pkg/store"
)

// DeltaCommand holds the flags for the delta command.
type DeltaCommand struct {
	path       string
	from       string
	to         string
	configFile string
}

// NewDeltaCommand creates and configures the delta command.
func NewDeltaCommand() *cobra.Command {
	dc := &DeltaCommand{}

	cmd := &cobra.Command{
		Use:   "delta --from <sha> --to <sha> [path]",
		Short: "Show the risk delta between two persisted snapshots",
		Long:  "Loads two previously persisted snapshots from .hotspots/ and reports the per-function risk delta and any triggered policy.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  dc.run,
	}

	cmd.Flags().StringVar(&dc.from, "from", "", "Parent commit SHA (required)")
	cmd.Flags().StringVar(&dc.to, "to", "", "Current commit SHA (required)")
	cmd.Flags().StringVar(&dc.configFile, "config", "", "Configuration file path (default: .hotspots.yaml in CWD or $HOME)")

	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func (dc *DeltaCommand) run(cmd *cobra.Command, args []string) error {
	dc.path = "."
	if len(args) == 1 {
		dc.path = args[0]
	}

	resolved, err := config.Load(dc.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st := store.Open(filepath.Join(dc.path, ".hotspots"))

	current, err := st.LoadSnapshot(dc.to)
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", dc.to, err)
	}

	parent, err := st.LoadSnapshot(dc.from)
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", dc.from, err)
	}

	d, err := delta.New(current, &parent)
	if err != nil {
		return fmt.Errorf("compute delta: %w", err)
	}

	policyResults := policy.Evaluate(d, current, &parent, resolved.WarningThresholds)

	report.WritePolicyResults(cmd.OutOrStdout(), &d, policyResults)

	if policyResults != nil && policyResults.HasBlockingFailures() {
		return fmt.Errorf("delta: %d blocking policy failure(s)", len(policyResults.Failed))
	}

	return nil
}
