package activity

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Stephen-Collins-tech/hotspots/pkg/snapshot"
)

// DimensionThresholds are percentile-derived cut points for the
// driving-dimension heuristic, computed once per snapshot from the
// distribution of all its functions.
type DimensionThresholds struct {
	CCHigh     int // Pth percentile of cc — "high_complexity" gate
	CCMed      int // 50th percentile of cc — floor for "high_fanin_complex"
	CCLow      int // (100-P)th percentile of cc — "low cc" in "high_churn_low_cc"
	NDHigh     int // Pth percentile of nd — "deep_nesting" gate
	FanOutHigh int // Pth percentile of fan_out — "high_fanout_churning" gate
	FanInHigh  int // Pth percentile of fan_in — "high_fanin_complex" gate
	TouchHigh  int // Pth percentile of touch_count — "high churn" gate
	TouchMed   int // 50th percentile of touch_count — floor for "high_fanout_churning"
}

// ComputeDimensionThresholds derives DimensionThresholds from a
// snapshot's functions at the given percentile (typically
// config.DriverPercentile, default 75).
func ComputeDimensionThresholds(functions []snapshot.FunctionSnapshot, percentile int) DimensionThresholds {
	n := len(functions)
	if n == 0 {
		return DimensionThresholds{}
	}

	antiP := 100 - percentile

	idx := func(pct int) int { return (pct * (n - 1)) / 100 }

	cc := sortedInts(functions, func(f snapshot.FunctionSnapshot) int { return f.Metrics.CC })
	nd := sortedInts(functions, func(f snapshot.FunctionSnapshot) int { return f.Metrics.ND })
	fo := sortedInts(functions, func(f snapshot.FunctionSnapshot) int { return callGraphFanOut(f) })
	fi := sortedInts(functions, func(f snapshot.FunctionSnapshot) int { return callGraphFanIn(f) })
	touch := sortedInts(functions, func(f snapshot.FunctionSnapshot) int { return touchCount(f) })

	return DimensionThresholds{
		CCHigh:     cc[idx(percentile)],
		CCMed:      cc[idx(50)],
		CCLow:      cc[idx(antiP)],
		NDHigh:     nd[idx(percentile)],
		FanOutHigh: fo[idx(percentile)],
		FanInHigh:  fi[idx(percentile)],
		TouchHigh:  touch[idx(percentile)],
		TouchMed:   touch[idx(50)],
	}
}

func sortedInts(functions []snapshot.FunctionSnapshot, extract func(snapshot.FunctionSnapshot) int) []int {
	vals := make([]int, len(functions))
	for i, f := range functions {
		vals[i] = extract(f)
	}

	sort.Ints(vals)

	return vals
}

func callGraphFanOut(f snapshot.FunctionSnapshot) int {
	if f.CallGraph == nil {
		return 0
	}

	return f.CallGraph.FanOut
}

func callGraphFanIn(f snapshot.FunctionSnapshot) int {
	if f.CallGraph == nil {
		return 0
	}

	return f.CallGraph.FanIn
}

func touchCount(f snapshot.FunctionSnapshot) int {
	if f.TouchCount30d == nil {
		return 0
	}

	return *f.TouchCount30d
}

func inCycle(f snapshot.FunctionSnapshot) bool {
	return f.CallGraph != nil && f.CallGraph.SCCSize > 1
}

// DrivingDimensionLabel identifies the primary driving dimension for a
// function's risk: one of "cyclic_dep", "high_complexity",
// "high_churn_low_cc", "high_fanout_churning", "deep_nesting",
// "high_fanin_complex", or "composite". Uses percentile-relative
// thresholds derived from the snapshot's own distribution; cyclic_dep
// stays absolute.
func DrivingDimensionLabel(f snapshot.FunctionSnapshot, th DimensionThresholds) string {
	fanOut := callGraphFanOut(f)
	fanIn := callGraphFanIn(f)
	touch := touchCount(f)
	cc := f.Metrics.CC
	nd := f.Metrics.ND

	switch {
	case inCycle(f):
		return "cyclic_dep"
	case cc > th.CCHigh:
		return "high_complexity"
	case touch > th.TouchHigh && cc < th.CCLow:
		return "high_churn_low_cc"
	case fanOut > th.FanOutHigh && touch > th.TouchMed:
		return "high_fanout_churning"
	case nd > th.NDHigh:
		return "deep_nesting"
	case fanIn > th.FanInHigh && cc > th.CCMed:
		return "high_fanin_complex"
	default:
		return "composite"
	}
}

// dimensionRank is one near-miss candidate: a dimension name and its
// percentile rank within the snapshot.
type dimensionRank struct {
	name string
	rank int
}

// pctRank computes what percentile of sorted v falls at value, via the
// count of elements strictly less than it (a "partition point").
func pctRank(value int, sorted []int) int {
	if len(sorted) == 0 {
		return 0
	}

	lo, hi := 0, len(sorted)
	for lo < hi {
		mid := (lo + hi) / 2
		if sorted[mid] < value {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	return (lo * 100) / len(sorted)
}

// ComputeNearMissDetail returns a string like "cc (P72), nd (P68)"
// listing up to 3 dimensions at or above the 40th percentile (elevated,
// but not firing), for functions labeled "composite". Returns
// "" when no dimension is notable.
func ComputeNearMissDetail(f snapshot.FunctionSnapshot, sortedCC, sortedND, sortedFO, sortedFI, sortedTouch []int) string {
	candidates := []dimensionRank{
		{"cc", pctRank(f.Metrics.CC, sortedCC)},
		{"nd", pctRank(f.Metrics.ND, sortedND)},
		{"fan_out", pctRank(callGraphFanOut(f), sortedFO)},
		{"fan_in", pctRank(callGraphFanIn(f), sortedFI)},
		{"touch", pctRank(touchCount(f), sortedTouch)},
	}

	near := make([]dimensionRank, 0, len(candidates))

	for _, c := range candidates {
		if c.rank >= 40 {
			near = append(near, c)
		}
	}

	sort.SliceStable(near, func(i, j int) bool { return near[i].rank > near[j].rank })

	if len(near) > 3 {
		near = near[:3]
	}

	if len(near) == 0 {
		return ""
	}

	parts := make([]string, len(near))
	for i, n := range near {
		parts[i] = fmt.Sprintf("%s (P%d)", n.name, n.rank)
	}

	return strings.Join(parts, ", ")
}

// PopulateDriverLabels sets Driver and, for composite labels,
// DriverDetail on every function in the snapshot. Must be called after
// EnrichActivityRisk and call-graph population.
func PopulateDriverLabels(snap *snapshot.Snapshot, percentile int) {
	thresholds := ComputeDimensionThresholds(snap.Functions, percentile)

	sortedCC := sortedInts(snap.Functions, func(f snapshot.FunctionSnapshot) int { return f.Metrics.CC })
	sortedND := sortedInts(snap.Functions, func(f snapshot.FunctionSnapshot) int { return f.Metrics.ND })
	sortedFO := sortedInts(snap.Functions, func(f snapshot.FunctionSnapshot) int { return callGraphFanOut(f) })
	sortedFI := sortedInts(snap.Functions, func(f snapshot.FunctionSnapshot) int { return callGraphFanIn(f) })
	sortedTouch := sortedInts(snap.Functions, func(f snapshot.FunctionSnapshot) int { return touchCount(f) })

	for i := range snap.Functions {
		fn := &snap.Functions[i]

		label := DrivingDimensionLabel(*fn, thresholds)
		fn.Driver = label

		if label == "composite" {
			fn.DriverDetail = ComputeNearMissDetail(*fn, sortedCC, sortedND, sortedFO, sortedFI, sortedTouch)
		} else {
			fn.DriverDetail = ""
		}
	}
}

// ComputeQuadrants sets the triage Quadrant ("fire", "debt", "watch",
// "ok") for every function: fire/debt split high-risk bands by
// activity (touch count above the median, or changed within 30 days);
// watch/ok split the remainder the same way. Must be called after
// PopulateDriverLabels.
func ComputeQuadrants(snap *snapshot.Snapshot, driverThresholdPercentile int) {
	if len(snap.Functions) == 0 {
		return
	}

	thresholds := ComputeDimensionThresholds(snap.Functions, driverThresholdPercentile)
	touchP50 := thresholds.TouchMed

	for i := range snap.Functions {
		fn := &snap.Functions[i]

		touchAboveP50 := touchCount(*fn) > touchP50
		recentlyChanged := fn.DaysSinceChange != nil && *fn.DaysSinceChange <= 30
		isActive := touchAboveP50 || recentlyChanged
		isHighRisk := fn.Band == "critical" || fn.Band == "high"

		switch {
		case isHighRisk && isActive:
			fn.Quadrant = "fire"
		case isHighRisk && !isActive:
			fn.Quadrant = "debt"
		case !isHighRisk && isActive:
			fn.Quadrant = "watch"
		default:
			fn.Quadrant = "ok"
		}
	}
}
