package gitrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/Stephen-Collins-tech/hotspots/pkg/gitlib"
)

// FileChurn accumulates a single file's added/deleted line counts and
// last-touch commit across one revwalk.
type FileChurn struct {
	Path          string
	LinesAdded    int
	LinesDeleted  int
	Commits       int
	LastTouchSHA  string
	LastTouchWhen time.Time
}

// ChurnMap maps a repository-relative path to its accumulated churn.
type ChurnMap map[string]*FileChurn

// ComputeChurn walks the commit history reachable from HEAD, diffing
// each commit against its first parent (the initial commit is diffed
// against an empty tree), and accumulates per-file added/deleted line
// counts. One batched revwalk, matching the teacher's gitlib.Repository.Log
// shape rather than one diff-per-file lookup.
func ComputeChurn(ctx context.Context, repo *gitlib.Repository, since *time.Time) (ChurnMap, error) {
	iter, err := repo.Log(&gitlib.LogOptions{Since: since, FirstParent: true})
	if err != nil {
		return nil, fmt.Errorf("open commit log: %w", err)
	}
	defer iter.Close()

	result := make(ChurnMap)

	walkErr := iter.ForEach(func(commit *gitlib.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		return accumulateCommit(repo, commit, result)
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk commit history: %w", walkErr)
	}

	return result, nil
}

func accumulateCommit(repo *gitlib.Repository, commit *gitlib.Commit, result ChurnMap) error {
	newTree, err := commit.Tree()
	if err != nil {
		return fmt.Errorf("load tree for %s: %w", commit.Hash(), err)
	}
	defer newTree.Free()

	var oldTree *gitlib.Tree

	if commit.NumParents() > 0 {
		parent, parentErr := commit.Parent(0)
		if parentErr != nil {
			return fmt.Errorf("load parent of %s: %w", commit.Hash(), parentErr)
		}
		defer parent.Free()

		oldTree, err = parent.Tree()
		if err != nil {
			return fmt.Errorf("load parent tree for %s: %w", commit.Hash(), err)
		}
		defer oldTree.Free()
	}

	changes, err := gitlib.TreeDiff(repo, oldTree, newTree)
	if err != nil {
		return fmt.Errorf("diff commit %s: %w", commit.Hash(), err)
	}

	when := commit.Author().When
	sha := commit.Hash().String()

	for _, change := range changes {
		path := changePath(change)
		if path == "" {
			continue
		}

		added, deleted, diffErr := lineDelta(repo, change)
		if diffErr != nil {
			continue
		}

		entry, ok := result[path]
		if !ok {
			entry = &FileChurn{Path: path}
			result[path] = entry
		}

		entry.LinesAdded += added
		entry.LinesDeleted += deleted
		entry.Commits++

		if when.After(entry.LastTouchWhen) {
			entry.LastTouchWhen = when
			entry.LastTouchSHA = sha
		}
	}

	return nil
}

func changePath(change *gitlib.Change) string {
	if change.To.Name != "" {
		return change.To.Name
	}

	return change.From.Name
}

func lineDelta(repo *gitlib.Repository, change *gitlib.Change) (added, deleted int, err error) {
	var oldBlob, newBlob *gitlib.Blob

	ctx := context.Background()

	if !change.From.Hash.IsZero() {
		oldBlob, err = repo.LookupBlob(ctx, change.From.Hash)
		if err != nil {
			return 0, 0, fmt.Errorf("lookup old blob: %w", err)
		}
		defer oldBlob.Free()
	}

	if !change.To.Hash.IsZero() {
		newBlob, err = repo.LookupBlob(ctx, change.To.Hash)
		if err != nil {
			return 0, 0, fmt.Errorf("lookup new blob: %w", err)
		}
		defer newBlob.Free()
	}

	result, err := gitlib.DiffBlobs(oldBlob, newBlob, change.From.Name, change.To.Name)
	if err != nil {
		return 0, 0, fmt.Errorf("diff blobs: %w", err)
	}

	for _, d := range result.Diffs {
		switch d.Type {
		case gitlib.LineDiffInsert:
			added += d.LineCount
		case gitlib.LineDiffDelete:
			deleted += d.LineCount
		case gitlib.LineDiffEqual:
		}
	}

	return added, deleted, nil
}

// MergeBaseRecency computes the merge-base commit between the
// repository's current HEAD and a target branch/commit, returning its
// SHA and author timestamp. Used for the branch-aware recency
// adjustment: a file last touched before the merge base predates the
// current branch's divergence point and should not be scored as if it
// were just edited on this branch.
func MergeBaseRecency(repo *gitlib.Repository, targetRef string) (sha string, when time.Time, err error) {
	native := repo.Native()

	head, err := native.Head()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("resolve HEAD: %w", err)
	}
	defer head.Free()

	targetObj, err := native.RevparseSingle(targetRef)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("resolve %s: %w", targetRef, err)
	}
	defer targetObj.Free()

	base, err := native.MergeBase(head.Target(), targetObj.Id())
	if err != nil {
		return "", time.Time{}, fmt.Errorf("merge-base HEAD with %s: %w", targetRef, err)
	}

	baseCommit, err := native.LookupCommit(base)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("lookup merge-base commit: %w", err)
	}
	defer baseCommit.Free()

	return gitlib.HashFromOid(base).String(), baseCommit.Author().When, nil
}
