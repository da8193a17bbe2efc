package activity

import (
	"sort"

	"github.com/Stephen-Collins-tech/hotspots/pkg/snapshot"
)

// ComputePercentiles populates PercentileFlags (top 10/5/1 percent) on
// every function, scored by ActivityRisk falling back to LRS. Must be
// called after EnrichActivityRisk.
func ComputePercentiles(snap *snapshot.Snapshot) {
	n := len(snap.Functions)
	if n == 0 {
		return
	}

	scores := make([]float64, n)
	for i, f := range snap.Functions {
		scores[i] = activityScore(f)
	}

	sort.Float64s(scores)

	threshold10 := scores[quantileIndex(n, 90)]
	threshold5 := scores[quantileIndex(n, 95)]
	threshold1 := scores[quantileIndex(n, 99)]

	for i := range snap.Functions {
		score := activityScore(snap.Functions[i])
		snap.Functions[i].Percentile = &snapshot.PercentileFlags{
			IsTop10Pct: score >= threshold10,
			IsTop5Pct:  score >= threshold5,
			IsTop1Pct:  score >= threshold1,
		}
	}
}

// activityScore returns a function's activity risk, falling back to
// its base LRS when activity risk has not been computed.
func activityScore(f snapshot.FunctionSnapshot) float64 {
	if f.ActivityRisk != nil {
		return *f.ActivityRisk
	}

	return f.LRS
}

// quantileIndex mirrors the Rust original's `(n-1)*pct/100` index
// arithmetic exactly, including its floor-division rounding.
func quantileIndex(n, pct int) int {
	if n == 0 {
		return 0
	}

	return (n - 1) * pct / 100
}

