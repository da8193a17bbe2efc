// Package report renders snapshots, deltas, and policy results as
// human-readable terminal output: a go-pretty table of the riskiest
// functions plus fatih/color-highlighted policy verdicts. Grounded on
// the teacher's internal/analyzers/common/formatter.go table idiom
// (table.NewWriter/StyleLight/SeparateRows/AppendHeader/AppendFooter).
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Stephen-Collins-tech/hotspots/pkg/delta"
	"github.com/Stephen-Collins-tech/hotspots/pkg/policy"
	"github.com/Stephen-Collins-tech/hotspots/pkg/snapshot"
)

// WriteTopFunctions renders the top-N riskiest functions from snap as a
// table, sorted by descending LRS.
func WriteTopFunctions(w io.Writer, snap snapshot.Snapshot, topN int) {
	functions := make([]snapshot.FunctionSnapshot, len(snap.Functions))
	copy(functions, snap.Functions)

	sort.Slice(functions, func(i, j int) bool { return functions[i].LRS > functions[j].LRS })

	if topN > 0 && topN < len(functions) {
		functions = functions[:topN]
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	tbl.AppendHeader(table.Row{"Function", "File", "Band", "LRS", "Quadrant", "Last touched"})

	for _, fn := range functions {
		tbl.AppendRow(table.Row{fn.FunctionID, fn.File, fn.Band, fmt.Sprintf("%.2f", fn.LRS), fn.Quadrant, lastTouched(fn)})
	}

	tbl.AppendFooter(table.Row{"", "", "", "", "", fmt.Sprintf("%d functions", len(snap.Functions))})

	tbl.Render()
}

// lastTouched renders a function's DaysSinceChange as a relative time
// string ("3 days ago"), the same idiom dashboards use for recency.
func lastTouched(fn snapshot.FunctionSnapshot) string {
	if fn.DaysSinceChange == nil {
		return "-"
	}

	since := time.Duration(*fn.DaysSinceChange * float64(24*time.Hour))

	return humanize.Time(time.Now().Add(-since))
}

// WritePolicyResults renders a delta's policy verdicts, coloring
// blocking failures red and warnings yellow.
func WritePolicyResults(w io.Writer, d *delta.Delta, results *policy.Results) {
	if d.Baseline {
		fmt.Fprintln(w, "baseline commit, no parent to diff policy against")

		return
	}

	if results == nil || (len(results.Failed) == 0 && len(results.Warnings) == 0) {
		color.New(color.FgGreen).Fprintln(w, "no policy violations")

		return
	}

	for _, f := range results.Failed {
		color.New(color.FgRed, color.Bold).Fprintf(w, "[FAIL] %s: %s\n", f.ID, f.Message)
	}

	for _, warn := range results.Warnings {
		color.New(color.FgYellow).Fprintf(w, "[WARN] %s: %s\n", warn.ID, warn.Message)
	}
}
