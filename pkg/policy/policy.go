// Package policy evaluates built-in CI-enforcement policies against a
// delta: which function changes should block a merge, which should
// only warn, and a repo-wide net-regression check. Ported from
// original_source/hotspots-core/src/policy.rs.
//
// Evaluation never performs IO: callers supply the parent snapshot
// directly rather than this package loading it from a store, keeping
// the package's own "no IO, no CLI logic" invariant.
package policy

import (
	"sort"
)

// ID identifies one of the seven built-in policies.
type ID string

const (
	IDCriticalIntroduction     ID = "critical-introduction"
	IDExcessiveRiskRegression  ID = "excessive-risk-regression"
	IDNetRepoRegression        ID = "net-repo-regression"
	IDWatchThreshold           ID = "watch-threshold"
	IDAttentionThreshold       ID = "attention-threshold"
	IDRapidGrowth              ID = "rapid-growth"
	IDSuppressionMissingReason ID = "suppression-missing-reason"
)

// idRank fixes the deterministic primary sort order: CriticalIntroduction
// -> ExcessiveRiskRegression -> WatchThreshold -> AttentionThreshold ->
// RapidGrowth -> SuppressionMissingReason -> NetRepoRegression. This is
// not alphabetical and not declaration order; it mirrors the original's
// hand-written comparator exactly.
var idRank = map[ID]int{
	IDCriticalIntroduction:     0,
	IDExcessiveRiskRegression:  1,
	IDWatchThreshold:           2,
	IDAttentionThreshold:       3,
	IDRapidGrowth:              4,
	IDSuppressionMissingReason: 5,
	IDNetRepoRegression:        6,
}

// Severity classifies whether a triggered policy blocks a merge.
type Severity string

const (
	SeverityBlocking Severity = "blocking"
	SeverityWarning  Severity = "warning"
)

// Metadata carries the numeric values behind a triggered policy.
// Exactly the fields a given policy sets are non-nil; the rest are
// omitted from JSON.
type Metadata struct {
	DeltaLRS      *float64 `json:"delta_lrs,omitempty"`
	TotalDelta    *float64 `json:"total_delta,omitempty"`
	GrowthPercent *float64 `json:"growth_percent,omitempty"`
}

// Result is one triggered policy instance.
type Result struct {
	ID         ID        `json:"id"`
	Severity   Severity  `json:"severity"`
	FunctionID *string   `json:"function_id,omitempty"`
	Message    string    `json:"message"`
	Metadata   *Metadata `json:"metadata,omitempty"`
}

// Results collects every triggered policy from one evaluation run,
// split by severity.
type Results struct {
	Failed   []Result `json:"failed"`
	Warnings []Result `json:"warnings"`
}

// HasBlockingFailures reports whether any blocking policy triggered.
func (r *Results) HasBlockingFailures() bool {
	return len(r.Failed) > 0
}

// Sort orders Failed and Warnings deterministically: primary by ID's
// fixed rank, secondary by FunctionID ASCII with a nil FunctionID
// (repo-level results) sorting last.
func (r *Results) Sort() {
	sort.SliceStable(r.Failed, func(i, j int) bool { return less(r.Failed[i], r.Failed[j]) })
	sort.SliceStable(r.Warnings, func(i, j int) bool { return less(r.Warnings[i], r.Warnings[j]) })
}

func less(a, b Result) bool {
	if ra, rb := idRank[a.ID], idRank[b.ID]; ra != rb {
		return ra < rb
	}

	switch {
	case a.FunctionID == nil && b.FunctionID == nil:
		return false
	case a.FunctionID == nil:
		return false
	case b.FunctionID == nil:
		return true
	default:
		return *a.FunctionID < *b.FunctionID
	}
}
