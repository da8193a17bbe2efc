package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Stephen-Collins-tech/hotspots/pkg/store"
)

// NewRebuildIndexCommand creates and configures the rebuild-index command.
func NewRebuildIndexCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild-index [path]",
		Short: "Rebuild the snapshot index from the store on disk",
		Long:  "Scans .hotspots/snapshots/ and rewrites index.json from scratch, skipping any snapshot files that fail to parse.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}

			st := store.Open(filepath.Join(path, ".hotspots"))

			skipped, err := st.RebuildIndex()
			if err != nil {
				return fmt.Errorf("rebuild index: %w", err)
			}

			for _, name := range skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped corrupt snapshot: %s\n", name)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "index rebuilt, %d snapshot(s) skipped\n", len(skipped))

			return nil
		},
	}

	return cmd
}
