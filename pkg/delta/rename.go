package delta

import (
	"strings"

	"github.com/Stephen-Collins-tech/hotspots/pkg/snapshot"
)

// applyRenameHints is the second pass: fuzzy-matches Deleted entries
// against New entries as likely renames or moves, in two cases applied
// in order (first match wins):
//  1. Same symbol name, different file — a file rename.
//  2. Same file, start line within ±10 — a function moved within the
//     file.
//
// Only sets RenameHint on the Deleted entry; Status never changes. A
// New entry is claimed by at most one Deleted entry.
func applyRenameHints(entries []FunctionDeltaEntry, parentByID, currentByID map[string]snapshot.FunctionSnapshot) {
	var deletedIDs, newIDs []string

	for _, e := range entries {
		switch e.Status {
		case StatusDeleted:
			deletedIDs = append(deletedIDs, e.FunctionID)
		case StatusNew:
			newIDs = append(newIDs, e.FunctionID)
		case StatusModified, StatusUnchanged:
			// no-op: rename hints only link deleted<->new pairs
		}
	}

	if len(deletedIDs) == 0 || len(newIDs) == 0 {
		return
	}

	matchedNew := make(map[string]bool, len(newIDs))
	hints := make(map[string]string, len(deletedIDs))

	for _, delID := range deletedIDs {
		delFunc, ok := parentByID[delID]
		if !ok {
			continue
		}

		delName := symbolName(delID, delFunc.File)

		for _, newID := range newIDs {
			if matchedNew[newID] {
				continue
			}

			newFunc, ok := currentByID[newID]
			if !ok {
				continue
			}

			newName := symbolName(newID, newFunc.File)

			renamed := delName == newName && delFunc.File != newFunc.File
			moved := delFunc.File == newFunc.File && absDiff(delFunc.Line, newFunc.Line) <= 10

			if renamed || moved {
				hints[delID] = newID
				matchedNew[newID] = true

				break
			}
		}
	}

	for i := range entries {
		if hint, ok := hints[entries[i].FunctionID]; ok {
			entries[i].RenameHint = hint
		}
	}
}

// symbolName strips the "<file>::" prefix a FunctionId carries, leaving
// the bare symbol for name-based rename comparison.
func symbolName(functionID, file string) string {
	prefix := file + "::"
	if name, ok := strings.CutPrefix(functionID, prefix); ok {
		return name
	}

	return functionID
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}

	return b - a
}
