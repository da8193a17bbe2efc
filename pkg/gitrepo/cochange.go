package gitrepo

import (
	"fmt"
	"sort"
	"time"

	"github.com/Stephen-Collins-tech/hotspots/pkg/gitlib"
)

// CoChangePair is one unordered pair of files observed changing together
// in the same commit at least Minimum times within the configured
// window, the count of commits both appeared in. FileA/FileB are always
// stored in ascending order so a pair has a single canonical identity.
type CoChangePair struct {
	FileA string `json:"file_a"`
	FileB string `json:"file_b"`
	Count int    `json:"count"`
}

// ExtractCoChangePairs walks commits reachable from HEAD within the last
// windowDays, counts how often every pair of files appears together in
// the same commit's changeset, and returns the pairs that co-occurred at
// least minCount times, sorted by descending count then ascending
// FileA/FileB. git.rs's own extract_co_change_pairs was not retrieved
// into this module's reference material; the window/minimum-count
// parameters and CoChangePair shape are ported from
// hotspots-cli/src/main.rs's call site, and the per-commit pairing walk
// below follows ComputeChurn's revwalk-and-diff shape in this package.
func ExtractCoChangePairs(repo *gitlib.Repository, windowDays, minCount int) ([]CoChangePair, error) {
	if windowDays <= 0 || minCount <= 0 {
		return nil, nil
	}

	since := time.Now().AddDate(0, 0, -windowDays)

	iter, err := repo.Log(&gitlib.LogOptions{Since: &since, FirstParent: true})
	if err != nil {
		return nil, fmt.Errorf("open commit log: %w", err)
	}
	defer iter.Close()

	counts := make(map[[2]string]int)

	walkErr := iter.ForEach(func(commit *gitlib.Commit) error {
		files, filesErr := changedFiles(repo, commit)
		if filesErr != nil {
			return filesErr
		}

		for i := range files {
			for j := i + 1; j < len(files); j++ {
				counts[pairKey(files[i], files[j])]++
			}
		}

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk commit history: %w", walkErr)
	}

	out := make([]CoChangePair, 0, len(counts))

	for key, count := range counts {
		if count < minCount {
			continue
		}

		out = append(out, CoChangePair{FileA: key[0], FileB: key[1], Count: count})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}

		if out[i].FileA != out[j].FileA {
			return out[i].FileA < out[j].FileA
		}

		return out[i].FileB < out[j].FileB
	})

	return out, nil
}

func changedFiles(repo *gitlib.Repository, commit *gitlib.Commit) ([]string, error) {
	newTree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("load tree for %s: %w", commit.Hash(), err)
	}
	defer newTree.Free()

	var oldTree *gitlib.Tree

	if commit.NumParents() > 0 {
		parent, parentErr := commit.Parent(0)
		if parentErr != nil {
			return nil, fmt.Errorf("load parent of %s: %w", commit.Hash(), parentErr)
		}
		defer parent.Free()

		oldTree, err = parent.Tree()
		if err != nil {
			return nil, fmt.Errorf("load parent tree for %s: %w", commit.Hash(), err)
		}
		defer oldTree.Free()
	}

	changes, err := gitlib.TreeDiff(repo, oldTree, newTree)
	if err != nil {
		return nil, fmt.Errorf("diff commit %s: %w", commit.Hash(), err)
	}

	var files []string

	for _, change := range changes {
		if p := changePath(change); p != "" {
			files = append(files, p)
		}
	}

	sort.Strings(files)

	return files, nil
}

func pairKey(a, b string) [2]string {
	if a < b {
		return [2]string{a, b}
	}

	return [2]string{b, a}
}
