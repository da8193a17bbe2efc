package policy

import (
	"fmt"

	"github.com/Stephen-Collins-tech/hotspots/internal/config"
	"github.com/Stephen-Collins-tech/hotspots/pkg/delta"
	"github.com/Stephen-Collins-tech/hotspots/pkg/snapshot"
)

const (
	criticalBand        = "critical"
	excessiveRegression = 1.0
	// float64Epsilon matches Rust's f64::EPSILON, used to guard the
	// rapid-growth ratio against division by a near-zero baseline.
	float64Epsilon = 2.220446049250313e-16
)

// Evaluate runs every policy against delta in fixed order — blocking
// function-level, then warning function-level, then repo-level — and
// returns the sorted results. A baseline delta skips evaluation
// entirely and returns nil.
//
// parentSnapshot is the snapshot delta.commit.parent was computed from,
// or nil if there is none (used only by the repo-level policy); it is
// the caller's responsibility to load it, keeping this package IO-free.
func Evaluate(d delta.Delta, current snapshot.Snapshot, parent *snapshot.Snapshot, wt config.WarningThresholds) *Results {
	if d.Baseline {
		return nil
	}

	results := &Results{}

	evaluateCriticalIntroduction(d.Deltas, results)
	evaluateExcessiveRiskRegression(d.Deltas, results)

	evaluateWatchThreshold(d.Deltas, wt, results)
	evaluateAttentionThreshold(d.Deltas, wt, results)
	evaluateRapidGrowth(d.Deltas, wt, results)
	evaluateSuppressionMissingReason(d.Deltas, results)

	evaluateNetRepoRegression(current, parent, results)

	results.Sort()

	return results
}

// isSuppressed reports whether an entry carries any suppression
// marker at all, empty-reason or not. The five function-level policies
// below all skip suppressed entries regardless of whether a reason was
// given.
func isSuppressed(e delta.FunctionDeltaEntry) bool {
	return e.SuppressionReason != nil
}

func evaluateCriticalIntroduction(deltas []delta.FunctionDeltaEntry, results *Results) {
	for _, entry := range deltas {
		if isSuppressed(entry) {
			continue
		}

		becomesCritical := entry.After != nil && entry.After.Band == criticalBand
		if !becomesCritical {
			continue
		}

		wasCriticalBefore := entry.Before != nil && entry.Before.Band == criticalBand
		if wasCriticalBefore {
			continue
		}

		functionID := entry.FunctionID
		results.Failed = append(results.Failed, Result{
			ID:         IDCriticalIntroduction,
			Severity:   SeverityBlocking,
			FunctionID: &functionID,
			Message:    fmt.Sprintf("Function %s introduced as Critical", entry.FunctionID),
		})
	}
}

func evaluateExcessiveRiskRegression(deltas []delta.FunctionDeltaEntry, results *Results) {
	for _, entry := range deltas {
		if isSuppressed(entry) {
			continue
		}

		if entry.Status != delta.StatusModified || entry.Delta == nil {
			continue
		}

		if entry.Delta.LRS < excessiveRegression {
			continue
		}

		functionID := entry.FunctionID
		deltaLRS := entry.Delta.LRS

		results.Failed = append(results.Failed, Result{
			ID:         IDExcessiveRiskRegression,
			Severity:   SeverityBlocking,
			FunctionID: &functionID,
			Message:    fmt.Sprintf("Function %s regressed by %.2f LRS", entry.FunctionID, entry.Delta.LRS),
			Metadata:   &Metadata{DeltaLRS: &deltaLRS},
		})
	}
}

func evaluateWatchThreshold(deltas []delta.FunctionDeltaEntry, wt config.WarningThresholds, results *Results) {
	for _, entry := range deltas {
		if isSuppressed(entry) {
			continue
		}

		if entry.Status != delta.StatusNew && entry.Status != delta.StatusModified {
			continue
		}

		if entry.After == nil {
			continue
		}

		afterLRS := entry.After.LRS
		if afterLRS < wt.WatchMin || afterLRS >= wt.WatchMax {
			continue
		}

		enteringWatch := entry.Before == nil || entry.Before.LRS < wt.WatchMin
		if !enteringWatch {
			continue
		}

		functionID := entry.FunctionID

		var meta *Metadata
		if entry.Delta != nil {
			deltaLRS := entry.Delta.LRS
			meta = &Metadata{DeltaLRS: &deltaLRS}
		}

		results.Warnings = append(results.Warnings, Result{
			ID:         IDWatchThreshold,
			Severity:   SeverityWarning,
			FunctionID: &functionID,
			Message:    fmt.Sprintf("Function %s approaching moderate threshold (LRS: %.2f)", entry.FunctionID, afterLRS),
			Metadata:   meta,
		})
	}
}

func evaluateAttentionThreshold(deltas []delta.FunctionDeltaEntry, wt config.WarningThresholds, results *Results) {
	for _, entry := range deltas {
		if isSuppressed(entry) {
			continue
		}

		if entry.Status != delta.StatusNew && entry.Status != delta.StatusModified {
			continue
		}

		if entry.After == nil {
			continue
		}

		afterLRS := entry.After.LRS
		if afterLRS < wt.AttentionMin || afterLRS >= wt.AttentionMax {
			continue
		}

		enteringAttention := entry.Before == nil || entry.Before.LRS < wt.AttentionMin
		if !enteringAttention {
			continue
		}

		functionID := entry.FunctionID

		var meta *Metadata
		if entry.Delta != nil {
			deltaLRS := entry.Delta.LRS
			meta = &Metadata{DeltaLRS: &deltaLRS}
		}

		results.Warnings = append(results.Warnings, Result{
			ID:         IDAttentionThreshold,
			Severity:   SeverityWarning,
			FunctionID: &functionID,
			Message:    fmt.Sprintf("Function %s approaching high threshold (LRS: %.2f)", entry.FunctionID, afterLRS),
			Metadata:   meta,
		})
	}
}

func evaluateRapidGrowth(deltas []delta.FunctionDeltaEntry, wt config.WarningThresholds, results *Results) {
	for _, entry := range deltas {
		if isSuppressed(entry) {
			continue
		}

		if entry.Status != delta.StatusModified || entry.Before == nil || entry.After == nil {
			continue
		}

		beforeLRS, afterLRS := entry.Before.LRS, entry.After.LRS
		if beforeLRS <= float64Epsilon {
			continue
		}

		deltaLRS := afterLRS - beforeLRS
		growthPercent := (deltaLRS / beforeLRS) * 100.0

		if growthPercent < wt.RapidGrowthPercent {
			continue
		}

		functionID := entry.FunctionID

		results.Warnings = append(results.Warnings, Result{
			ID:         IDRapidGrowth,
			Severity:   SeverityWarning,
			FunctionID: &functionID,
			Message: fmt.Sprintf("Function %s LRS increased by %.1f%% (%.2f -> %.2f)",
				entry.FunctionID, growthPercent, beforeLRS, afterLRS),
			Metadata: &Metadata{DeltaLRS: &deltaLRS, GrowthPercent: &growthPercent},
		})
	}
}

// evaluateSuppressionMissingReason triggers only on "present but
// empty" (a pointer to ""), never on "absent" (nil) — the opposite
// selection from isSuppressed above.
func evaluateSuppressionMissingReason(deltas []delta.FunctionDeltaEntry, results *Results) {
	for _, entry := range deltas {
		if entry.SuppressionReason == nil || *entry.SuppressionReason != "" {
			continue
		}

		functionID := entry.FunctionID

		results.Warnings = append(results.Warnings, Result{
			ID:         IDSuppressionMissingReason,
			Severity:   SeverityWarning,
			FunctionID: &functionID,
			Message:    fmt.Sprintf("Function %s suppressed without reason", entry.FunctionID),
		})
	}
}

func evaluateNetRepoRegression(current snapshot.Snapshot, parent *snapshot.Snapshot, results *Results) {
	var beforeTotal float64
	if parent != nil {
		for _, f := range parent.Functions {
			beforeTotal += f.LRS
		}
	}

	var afterTotal float64
	for _, f := range current.Functions {
		afterTotal += f.LRS
	}

	totalDelta := afterTotal - beforeTotal
	if totalDelta <= 0.0 {
		return
	}

	results.Warnings = append(results.Warnings, Result{
		ID:       IDNetRepoRegression,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("Repository total LRS increased by %.2f", totalDelta),
		Metadata: &Metadata{TotalDelta: &totalDelta},
	})
}
