// Package activity composes the activity-risk score, percentile flags,
// driving-dimension labels, near-miss detail, and triage quadrants for
// a snapshot's functions. Ported field-for-field from
// original_source/hotspots-core/src/snapshot.rs's Snapshot methods; the
// per-signal weight split inside ComputeActivityRisk is an authored
// resolution of an Open Question — see DESIGN.md.
package activity

import (
	"math"

	"github.com/Stephen-Collins-tech/hotspots/pkg/snapshot"
)

// Weights controls the relative contribution of each activity-risk
// signal. EnrichActivityRisk uses DefaultWeights when passed nil; a
// non-nil Weights is used as given, so a zero field switches its signal off.
type Weights struct {
	Complexity       float64
	Churn            float64
	RecentActivity   float64
	FanIn            float64
	CyclicDependency float64
	Depth            float64
	NeighborChurn    float64
}

// DefaultWeights mirrors risk.go's own log-dampen-then-weight shape:
// complexity (the base LRS) dominates, with the remaining signals
// contributing smaller, capped adjustments on top.
func DefaultWeights() Weights {
	return Weights{
		Complexity:       1.0,
		Churn:            0.5,
		RecentActivity:   0.3,
		FanIn:            0.3,
		CyclicDependency: 0.8,
		Depth:            0.2,
		NeighborChurn:    0.2,
	}
}

// Input is the per-function signal bundle ComputeActivityRisk reads,
// mirroring the Rust original's ActivityRiskInput.
type Input struct {
	LRS                 float64
	LinesAdded          *int
	LinesDeleted        *int
	TouchCount30d       *int
	DaysSinceLastChange *float64
	FanIn               *int
	SCCSize             *int
	DependencyDepth     *int
	NeighborChurn       *int
}

// churnSignal clips accumulated line churn into [0,1] via the same
// log2-dampening risk.go uses for complexity, so a 1,000-line file
// doesn't dominate a 10-line one by three orders of magnitude.
func churnSignal(added, deleted int) float64 {
	total := float64(added + deleted)
	if total <= 0 {
		return 0
	}

	return math.Min(math.Log2(total+1)/10.0, 1.0)
}

// recencySignal scores more recent changes higher, decaying to 0 by
// 90 days out.
func recencySignal(daysSince float64) float64 {
	if daysSince < 0 {
		daysSince = 0
	}

	const horizon = 90.0

	if daysSince >= horizon {
		return 0
	}

	return (horizon - daysSince) / horizon
}

// fanInSignal clips caller count the same way risk.go clips fan-out.
func fanInSignal(fanIn int) float64 {
	return math.Min(math.Log2(float64(fanIn)+1)/6.0, 1.0)
}

// depthSignal clips dependency depth (BFS distance from an entry
// point) into [0,1], saturating at depth 10.
func depthSignal(depth int) float64 {
	return math.Min(float64(depth)/10.0, 1.0)
}

// neighborChurnSignal clips the number of recently-changed neighbors
// in the call graph.
func neighborChurnSignal(n int) float64 {
	return math.Min(float64(n)/10.0, 1.0)
}

// ComputeActivityRisk combines a function's base LRS with its churn,
// recency, call-graph, and neighbor-churn signals into a single
// activity-risk score, returning the weighted per-signal breakdown
// alongside it.
func ComputeActivityRisk(in Input, w Weights) (float64, snapshot.RiskFactors) {
	factors := snapshot.RiskFactors{}

	// Complexity contributes the base LRS score directly, already on
	// risk.go's own scale rather than clipped to [0,1].
	factors.Complexity = w.Complexity * in.LRS

	if in.LinesAdded != nil && in.LinesDeleted != nil {
		factors.Churn = w.Churn * churnSignal(*in.LinesAdded, *in.LinesDeleted)
	}

	if in.DaysSinceLastChange != nil {
		factors.RecentActivity = w.RecentActivity * recencySignal(*in.DaysSinceLastChange)
	}

	if in.FanIn != nil {
		factors.FanIn = w.FanIn * fanInSignal(*in.FanIn)
	}

	if in.SCCSize != nil && *in.SCCSize > 1 {
		factors.CyclicDependency = w.CyclicDependency
	}

	if in.DependencyDepth != nil {
		factors.Depth = w.Depth * depthSignal(*in.DependencyDepth)
	}

	if in.NeighborChurn != nil {
		factors.NeighborChurn = w.NeighborChurn * neighborChurnSignal(*in.NeighborChurn)
	}

	total := factors.Complexity + factors.Churn + factors.RecentActivity +
		factors.FanIn + factors.CyclicDependency + factors.Depth + factors.NeighborChurn

	return total, factors
}

// EnrichActivityRisk computes and populates ActivityRisk/RiskFactors
// for every function in the snapshot. Only set when activity risk
// exceeds the base LRS or churn contributed, matching the Rust
// original's "don't populate redundant fields" rule. Must be called
// after churn, touch-metric, and call-graph population.
func EnrichActivityRisk(snap *snapshot.Snapshot, weights *Weights) {
	w := DefaultWeights()
	if weights != nil {
		w = *weights
	}

	for i := range snap.Functions {
		fn := &snap.Functions[i]

		in := Input{LRS: fn.LRS}

		if fn.Churn != nil {
			added, deleted := fn.Churn.LinesAdded, fn.Churn.LinesDeleted
			in.LinesAdded = &added
			in.LinesDeleted = &deleted
		}

		in.TouchCount30d = fn.TouchCount30d
		in.DaysSinceLastChange = fn.DaysSinceChange

		if fn.CallGraph != nil {
			fanIn := fn.CallGraph.FanIn
			sccSize := fn.CallGraph.SCCSize
			in.FanIn = &fanIn
			in.SCCSize = &sccSize
			in.DependencyDepth = fn.CallGraph.DependencyDepth
			in.NeighborChurn = fn.CallGraph.NeighborChurn
		}

		score, factors := ComputeActivityRisk(in, w)

		if score > fn.LRS || factors.Churn > 0 {
			fn.ActivityRisk = &score
			fn.RiskFactors = &factors
		}
	}
}
