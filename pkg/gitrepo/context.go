// Package gitrepo is the narrow, domain-facing git access layer the
// pipeline's history signals (component F) run on. It wraps the
// teacher's libgit2/git2go bindings in pkg/gitlib rather than shelling
// out to the git CLI, sized to exactly what churn, last-touch, and
// merge-base recency extraction need.
package gitrepo

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Stephen-Collins-tech/hotspots/pkg/gitlib"
)

// Context is the GitContext consumed by the rest of the pipeline: the
// commit identity and classification the activity-risk composer and
// policy engine read (fix/revert flags, ticket references).
type Context struct {
	HeadSHA        string
	ParentSHAs     []string
	Timestamp      time.Time
	Branch         string
	IsDetached     bool
	Message        string
	Author         string
	IsFixCommit    bool
	IsRevertCommit bool
	TicketIDs      []string
}

// fixPrefix matches a conventional-commit "fix" or "fix(scope):" subject,
// or a bare "Fix ..." / "fixed ..." first word, case-insensitively.
var fixPrefix = regexp.MustCompile(`(?i)^(fix(\([^)]*\))?:|fix(es|ed)?\b)`)

// revertPrefix matches git's own auto-generated revert subject
// ("Revert \"...\"") as well as a conventional-commit "revert:" subject.
var revertPrefix = regexp.MustCompile(`(?i)^(revert(\([^)]*\))?:|revert\s+")`)

// ticketID matches an uppercase project-key ticket reference such as
// JIRA-123 or HOTSPOTS-42: an uppercase letter followed by one or more
// uppercase letters or digits, a hyphen, digits.
var ticketID = regexp.MustCompile(`\b[A-Z][A-Z0-9]+-\d+\b`)

// classify derives the fix/revert flags and ticket IDs from a commit
// message. Grounded on conventional-commit and git's own "Revert"
// subject conventions; the Rust original's git.rs (which held the
// canonical classifier) was not retrieved, so this is authored fresh —
// see DESIGN.md.
func classify(message string) (isFix, isRevert bool, tickets []string) {
	subject := message
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		subject = message[:idx]
	}

	isFix = fixPrefix.MatchString(subject)
	isRevert = revertPrefix.MatchString(subject)

	matches := ticketID.FindAllString(message, -1)
	if len(matches) == 0 {
		return isFix, isRevert, nil
	}

	seen := make(map[string]struct{}, len(matches))
	tickets = make([]string, 0, len(matches))

	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}

		seen[m] = struct{}{}
		tickets = append(tickets, m)
	}

	return isFix, isRevert, tickets
}

// HeadContext extracts a Context for the repository's current HEAD.
func HeadContext(repo *gitlib.Repository) (Context, error) {
	headHash, err := repo.Head()
	if err != nil {
		return Context{}, fmt.Errorf("resolve HEAD: %w", err)
	}

	return CommitContext(repo, headHash)
}

// CommitContext extracts a Context for an arbitrary commit.
func CommitContext(repo *gitlib.Repository, hash gitlib.Hash) (Context, error) {
	commit, err := repo.LookupCommit(context.Background(), hash)
	if err != nil {
		return Context{}, fmt.Errorf("lookup commit %s: %w", hash, err)
	}
	defer commit.Free()

	parents := make([]string, 0, commit.NumParents())
	for i := range commit.NumParents() {
		parents = append(parents, commit.ParentHash(i).String())
	}

	author := commit.Author()
	message := commit.Message()
	isFix, isRevert, tickets := classify(message)

	branch, detached := currentBranch(repo)

	return Context{
		HeadSHA:        hash.String(),
		ParentSHAs:     parents,
		Timestamp:      author.When,
		Branch:         branch,
		IsDetached:     detached,
		Message:        message,
		Author:         author.Name,
		IsFixCommit:    isFix,
		IsRevertCommit: isRevert,
		TicketIDs:      tickets,
	}, nil
}

// currentBranch reports the repository's current branch name, or
// ("", true) when HEAD does not point at a branch (detached HEAD,
// e.g. a CI checkout of a specific SHA).
func currentBranch(repo *gitlib.Repository) (string, bool) {
	native := repo.Native()
	if native == nil {
		return "", true
	}

	head, err := native.Head()
	if err != nil {
		return "", true
	}
	defer head.Free()

	if !head.IsBranch() {
		return "", true
	}

	name, err := head.Branch().Name()
	if err != nil {
		return "", true
	}

	return name, false
}
