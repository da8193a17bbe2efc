// Package aggregate computes derived file/directory rollups from a
// snapshot and per-file rollups from a delta, without modifying either.
// Aggregates are always computed fresh, never persisted alongside the
// data they summarize. Ported from
// original_source/hotspots-core/src/aggregates.rs.
package aggregate

import (
	"path"
	"sort"
	"strings"

	"github.com/Stephen-Collins-tech/hotspots/pkg/delta"
	"github.com/Stephen-Collins-tech/hotspots/pkg/gitrepo"
	"github.com/Stephen-Collins-tech/hotspots/pkg/snapshot"
)

// FileAggregates is one file's rolled-up LRS/band statistics within a
// snapshot.
type FileAggregates struct {
	File          string  `json:"file"`
	SumLRS        float64 `json:"sum_lrs"`
	MaxLRS        float64 `json:"max_lrs"`
	HighPlusCount int     `json:"high_plus_count"`
}

// DirectoryAggregates is one directory's recursive rollup: every file
// aggregate under it and under its subdirectories, summed/maxed.
type DirectoryAggregates struct {
	Directory     string  `json:"directory"`
	SumLRS        float64 `json:"sum_lrs"`
	MaxLRS        float64 `json:"max_lrs"`
	HighPlusCount int     `json:"high_plus_count"`
}

// SnapshotAggregates is the complete set of file and directory rollups
// for one snapshot.
type SnapshotAggregates struct {
	Files       []FileAggregates       `json:"files,omitempty"`
	Directories []DirectoryAggregates  `json:"directories,omitempty"`
	CoChange    []gitrepo.CoChangePair `json:"co_change,omitempty"`
}

// FileDeltaAggregates is one file's net LRS change and regression
// count across a delta.
type FileDeltaAggregates struct {
	File            string  `json:"file"`
	NetLRSDelta     float64 `json:"net_lrs_delta"`
	RegressionCount int     `json:"regression_count"`
}

// DeltaAggregates is the complete set of per-file rollups for one
// delta.
type DeltaAggregates struct {
	Files []FileDeltaAggregates `json:"files,omitempty"`
}

func isHighPlus(band string) bool {
	return band == "high" || band == "critical"
}

// ComputeFileAggregates rolls a snapshot's functions up by file,
// sorted by file path ASCII.
func ComputeFileAggregates(functions []snapshot.FunctionSnapshot) []FileAggregates {
	type acc struct {
		sumLRS        float64
		maxLRS        float64
		highPlusCount int
	}

	byFile := make(map[string]*acc)

	for _, f := range functions {
		a, ok := byFile[f.File]
		if !ok {
			a = &acc{}
			byFile[f.File] = a
		}

		a.sumLRS += f.LRS
		if f.LRS > a.maxLRS {
			a.maxLRS = f.LRS
		}

		if isHighPlus(f.Band) {
			a.highPlusCount++
		}
	}

	out := make([]FileAggregates, 0, len(byFile))
	for file, a := range byFile {
		out = append(out, FileAggregates{File: file, SumLRS: a.sumLRS, MaxLRS: a.maxLRS, HighPlusCount: a.highPlusCount})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })

	return out
}

// extractDirectory returns the parent directory of a forward-slash
// relative path, or "." for a path with no slash.
func extractDirectory(filePath string) string {
	if idx := strings.LastIndexByte(filePath, '/'); idx >= 0 {
		return filePath[:idx]
	}

	return "."
}

// ComputeDirectoryAggregates rolls file aggregates up into every
// ancestor directory (recursive rollup: "src/api/x.go" contributes to
// both "src/api" and "src"), sorted by directory path ASCII.
func ComputeDirectoryAggregates(fileAggregates []FileAggregates) []DirectoryAggregates {
	type acc struct {
		sumLRS        float64
		maxLRS        float64
		highPlusCount int
	}

	byDir := make(map[string]*acc)

	for _, fa := range fileAggregates {
		current := path.Clean(fa.File)

		for {
			dir := extractDirectory(current)
			if dir == current || dir == "" {
				break
			}

			a, ok := byDir[dir]
			if !ok {
				a = &acc{}
				byDir[dir] = a
			}

			a.sumLRS += fa.SumLRS
			if fa.MaxLRS > a.maxLRS {
				a.maxLRS = fa.MaxLRS
			}

			a.highPlusCount += fa.HighPlusCount

			current = dir
		}
	}

	out := make([]DirectoryAggregates, 0, len(byDir))
	for dir, a := range byDir {
		out = append(out, DirectoryAggregates{Directory: dir, SumLRS: a.sumLRS, MaxLRS: a.maxLRS, HighPlusCount: a.highPlusCount})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Directory < out[j].Directory })

	return out
}

// ComputeSnapshotAggregates is the convenience entry point combining
// file and directory rollups for a whole snapshot, plus whatever
// co-change pairs the caller has already extracted from history (nil
// when co-change detection is disabled or config.CoChange is unset).
func ComputeSnapshotAggregates(snap snapshot.Snapshot, coChange []gitrepo.CoChangePair) SnapshotAggregates {
	files := ComputeFileAggregates(snap.Functions)
	directories := ComputeDirectoryAggregates(files)

	return SnapshotAggregates{Files: files, Directories: directories, CoChange: coChange}
}

// ComputeDeltaAggregates rolls a delta's function entries up by file
// (parsed from the "<file>::<symbol>" function ID), sorted by file
// path ASCII. New/Deleted entries without a numeric Delta contribute
// their After/Before LRS directly.
func ComputeDeltaAggregates(d delta.Delta) DeltaAggregates {
	type acc struct {
		netLRSDelta     float64
		regressionCount int
	}

	byFile := make(map[string]*acc)

	for _, entry := range d.Deltas {
		sep := strings.LastIndex(entry.FunctionID, "::")
		if sep < 0 {
			continue
		}

		file := entry.FunctionID[:sep]

		a, ok := byFile[file]
		if !ok {
			a = &acc{}
			byFile[file] = a
		}

		switch {
		case entry.Delta != nil:
			a.netLRSDelta += entry.Delta.LRS
			if entry.Delta.LRS > 0.0 {
				a.regressionCount++
			}
		case entry.Status == delta.StatusNew && entry.After != nil:
			a.netLRSDelta += entry.After.LRS
		case entry.Status == delta.StatusDeleted && entry.Before != nil:
			a.netLRSDelta -= entry.Before.LRS
		}
	}

	out := make([]FileDeltaAggregates, 0, len(byFile))
	for file, a := range byFile {
		out = append(out, FileDeltaAggregates{File: file, NetLRSDelta: a.netLRSDelta, RegressionCount: a.regressionCount})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })

	return DeltaAggregates{Files: out}
}
