package gitrepo

import (
	"fmt"
	"time"

	git2go "github.com/libgit2/git2go/v34"

	"github.com/Stephen-Collins-tech/hotspots/pkg/gitlib"
)

// TouchKey identifies one cached per-function touch lookup:
// (commit_sha, file, start_line, end_line).
type TouchKey struct {
	SHA       string
	File      string
	StartLine int
	EndLine   int
}

// TouchMetrics is the count of distinct commits that touched a
// function's line range, and how long ago the most recent one was.
type TouchMetrics struct {
	Count     int
	DaysSince *float64
}

// BatchedTouchMetrics scans the blame of a single file once and buckets
// the result by the caller-supplied line ranges, so a file with many
// functions pays for one libgit2 blame call rather than one per
// function. Ranges are 1-based and inclusive, matching tree-sitter's
// reported function spans.
func BatchedTouchMetrics(repo *gitlib.Repository, atCommit gitlib.Hash, path string, ranges []TouchKey) (map[TouchKey]TouchMetrics, error) {
	native := repo.Native()

	commit, err := native.LookupCommit(atCommit.ToOid())
	if err != nil {
		return nil, fmt.Errorf("lookup commit %s: %w", atCommit, err)
	}
	defer commit.Free()

	opts, err := git2go.DefaultBlameOptions()
	if err != nil {
		return nil, fmt.Errorf("default blame options: %w", err)
	}

	opts.NewestCommit = *commit.Id()

	blame, err := native.BlameFile(path, &opts)
	if err != nil {
		return nil, fmt.Errorf("blame %s: %w", path, err)
	}
	defer blame.Free()

	now := commit.Author().When

	result := make(map[TouchKey]TouchMetrics, len(ranges))
	for _, k := range ranges {
		result[k] = touchMetricsForRange(blame, k.StartLine, k.EndLine, now)
	}

	return result, nil
}

func touchMetricsForRange(blame *git2go.Blame, startLine, endLine int, now time.Time) TouchMetrics {
	seen := make(map[git2go.Oid]struct{})

	var latest time.Time

	hunkCount := blame.HunkCount()
	for i := uint32(0); i < hunkCount; i++ {
		hunk, err := blame.HunkByIndex(i)
		if err != nil {
			continue
		}

		hunkStart := int(hunk.FinalStartLineNumber)
		hunkEnd := hunkStart + int(hunk.LinesInHunk) - 1

		if hunkEnd < startLine || hunkStart > endLine {
			continue
		}

		seen[hunk.FinalCommitId] = struct{}{}

		if when := hunkCommitTime(hunk); when.After(latest) {
			latest = when
		}
	}

	if len(seen) == 0 {
		return TouchMetrics{Count: 0, DaysSince: nil}
	}

	days := now.Sub(latest).Hours() / 24

	return TouchMetrics{Count: len(seen), DaysSince: &days}
}

// hunkCommitTime extracts the authoring time of a blame hunk's final
// commit. BlameHunk does not carry the timestamp directly, so the
// signature attached to the hunk's final commit is used when present.
func hunkCommitTime(hunk git2go.BlameHunk) time.Time {
	if hunk.FinalSignature == nil {
		return time.Time{}
	}

	return hunk.FinalSignature.When
}
