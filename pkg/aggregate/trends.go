package aggregate

import (
	"sort"

	"github.com/Stephen-Collins-tech/hotspots/pkg/snapshot"
)

const (
	flatVelocityEpsilon          = 1e-9
	refactorImprovementThreshold = -1.0
	refactorReboundThreshold     = 0.5
)

// VelocityDirection classifies the sign of a function's risk velocity.
type VelocityDirection string

const (
	VelocityPositive VelocityDirection = "positive"
	VelocityNegative VelocityDirection = "negative"
	VelocityFlat     VelocityDirection = "flat"
)

// RiskVelocity is one function's LRS rate of change across a snapshot
// window.
type RiskVelocity struct {
	FunctionID  string            `json:"function_id"`
	Velocity    float64           `json:"velocity"`
	Direction   VelocityDirection `json:"direction"`
	FirstLRS    float64           `json:"first_lrs"`
	LastLRS     float64           `json:"last_lrs"`
	CommitCount int               `json:"commit_count"`
}

// HotspotStability classifies how consistently a function ranks among
// the top-K riskiest across a window.
type HotspotStability string

const (
	StabilityStable   HotspotStability = "stable"
	StabilityEmerging HotspotStability = "emerging"
	StabilityVolatile HotspotStability = "volatile"
)

// HotspotAnalysis is one function's top-K appearance record across a
// window.
type HotspotAnalysis struct {
	FunctionID        string           `json:"function_id"`
	Stability         HotspotStability `json:"stability"`
	OverlapRatio      float64          `json:"overlap_ratio"`
	AppearancesInTopK int              `json:"appearances_in_top_k"`
	TotalSnapshots    int              `json:"total_snapshots"`
}

// RefactorOutcome classifies whether a detected LRS improvement held.
type RefactorOutcome string

const (
	RefactorSuccessful RefactorOutcome = "successful"
	RefactorPartial    RefactorOutcome = "partial"
	RefactorCosmetic   RefactorOutcome = "cosmetic"
)

// RefactorAnalysis is one function's sustained-improvement record
// across a window.
type RefactorAnalysis struct {
	FunctionID       string          `json:"function_id"`
	Outcome          RefactorOutcome `json:"outcome"`
	ImprovementDelta float64         `json:"improvement_delta"`
	SustainedCommits int             `json:"sustained_commits"`
	ReboundDetected  bool            `json:"rebound_detected"`
}

// TrendsAnalysis is the complete velocity/stability/refactor view over
// a snapshot window.
type TrendsAnalysis struct {
	Velocities []RiskVelocity     `json:"velocities"`
	Hotspots   []HotspotAnalysis  `json:"hotspots"`
	Refactors  []RefactorAnalysis `json:"refactors"`
}

// AnalyzeTrends computes the complete trends view over snapshots,
// which callers are responsible for loading (via pkg/store) in
// ascending-timestamp-then-SHA order and truncating to the desired
// window size — this package performs no IO.
func AnalyzeTrends(snapshots []snapshot.Snapshot, topK int) TrendsAnalysis {
	return TrendsAnalysis{
		Velocities: ComputeRiskVelocities(snapshots),
		Hotspots:   ComputeHotspotStability(snapshots, topK),
		Refactors:  ComputeRefactorEffectiveness(snapshots),
	}
}

type lrsPoint struct {
	index int
	lrs   float64
}

// ComputeRiskVelocities computes (LRS_last - LRS_first)/(commitCount-1)
// for every function that appears in at least two snapshots of the
// window. A function appearing only in the first snapshot (baseline-
// only) is excluded. Requires at least two snapshots.
func ComputeRiskVelocities(snapshots []snapshot.Snapshot) []RiskVelocity {
	if len(snapshots) < 2 {
		return nil
	}

	byFunction := make(map[string][]lrsPoint)

	for idx, snap := range snapshots {
		for _, f := range snap.Functions {
			byFunction[f.FunctionID] = append(byFunction[f.FunctionID], lrsPoint{index: idx, lrs: f.LRS})
		}
	}

	velocities := make([]RiskVelocity, 0, len(byFunction))

	for functionID, points := range byFunction {
		if len(points) < 2 {
			continue
		}

		sort.Slice(points, func(i, j int) bool { return points[i].index < points[j].index })

		firstLRS := points[0].lrs
		lastLRS := points[len(points)-1].lrs
		commitCount := len(points)

		velocity := (lastLRS - firstLRS) / float64(commitCount-1)

		direction := VelocityPositive

		switch {
		case absFloat(velocity) < flatVelocityEpsilon:
			direction = VelocityFlat
		case velocity < 0.0:
			direction = VelocityNegative
		}

		velocities = append(velocities, RiskVelocity{
			FunctionID:  functionID,
			Velocity:    velocity,
			Direction:   direction,
			FirstLRS:    firstLRS,
			LastLRS:     lastLRS,
			CommitCount: commitCount,
		})
	}

	sort.Slice(velocities, func(i, j int) bool { return velocities[i].FunctionID < velocities[j].FunctionID })

	return velocities
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}

	return v
}

func topKFunctionIDs(snap snapshot.Snapshot, k int) map[string]bool {
	functions := make([]snapshot.FunctionSnapshot, len(snap.Functions))
	copy(functions, snap.Functions)

	sort.Slice(functions, func(i, j int) bool { return functions[i].LRS > functions[j].LRS })

	if k < len(functions) {
		functions = functions[:k]
	}

	ids := make(map[string]bool, len(functions))
	for _, f := range functions {
		ids[f.FunctionID] = true
	}

	return ids
}

// ComputeHotspotStability classifies each function that ever appears
// in the top-K of any snapshot in the window by how often it recurs
// there: >=0.8 overlap is Stable, >=0.5 is Emerging, else Volatile.
func ComputeHotspotStability(snapshots []snapshot.Snapshot, topK int) []HotspotAnalysis {
	if len(snapshots) == 0 {
		return nil
	}

	topKPerSnapshot := make([]map[string]bool, len(snapshots))
	allTopK := make(map[string]bool)

	for i, snap := range snapshots {
		ids := topKFunctionIDs(snap, topK)
		topKPerSnapshot[i] = ids

		for id := range ids {
			allTopK[id] = true
		}
	}

	analyses := make([]HotspotAnalysis, 0, len(allTopK))

	for functionID := range allTopK {
		appearances := 0

		for _, ids := range topKPerSnapshot {
			if ids[functionID] {
				appearances++
			}
		}

		total := len(snapshots)
		overlapRatio := float64(appearances) / float64(total)

		stability := StabilityVolatile

		switch {
		case overlapRatio >= 0.8:
			stability = StabilityStable
		case overlapRatio >= 0.5:
			stability = StabilityEmerging
		}

		analyses = append(analyses, HotspotAnalysis{
			FunctionID:        functionID,
			Stability:         stability,
			OverlapRatio:      overlapRatio,
			AppearancesInTopK: appearances,
			TotalSnapshots:    total,
		})
	}

	sort.Slice(analyses, func(i, j int) bool { return analyses[i].FunctionID < analyses[j].FunctionID })

	return analyses
}

type indexedDelta struct {
	index int
	delta float64
}

// ComputeRefactorEffectiveness detects functions with a significant
// LRS drop (<= -1.0) somewhere in the window and classifies whether
// the improvement held: Successful (sustained >=2 commits, no
// rebound), Partial (sustained but a later rebound >= +0.5 occurred),
// or Cosmetic (not sustained).
func ComputeRefactorEffectiveness(snapshots []snapshot.Snapshot) []RefactorAnalysis {
	if len(snapshots) < 2 {
		return nil
	}

	byFunction := make(map[string][]indexedDelta)

	for i := 1; i < len(snapshots); i++ {
		prevByID := indexByID(snapshots[i-1].Functions)
		currByID := indexByID(snapshots[i].Functions)

		for functionID, curr := range currByID {
			prev, ok := prevByID[functionID]
			if !ok {
				continue
			}

			byFunction[functionID] = append(byFunction[functionID], indexedDelta{index: i, delta: curr.LRS - prev.LRS})
		}
	}

	analyses := make([]RefactorAnalysis, 0, len(byFunction))

	for functionID, deltas := range byFunction {
		var improvements []indexedDelta

		for _, d := range deltas {
			if d.delta <= refactorImprovementThreshold {
				improvements = append(improvements, d)
			}
		}

		if len(improvements) == 0 {
			continue
		}

		firstImprovementIdx := improvements[0].index
		improvementDelta := improvements[0].delta

		sustainedCommits := 1
		reboundDetected := false

		limit := firstImprovementIdx + 4
		if limit > len(snapshots) {
			limit = len(snapshots)
		}

		for i := firstImprovementIdx + 1; i < limit; i++ {
			d, ok := findDelta(deltas, i)
			if !ok {
				continue
			}

			switch {
			case d <= refactorImprovementThreshold:
				sustainedCommits++
			case d >= refactorReboundThreshold:
				reboundDetected = true
			}

			if reboundDetected {
				break
			}
		}

		outcome := RefactorCosmetic

		switch {
		case sustainedCommits >= 2 && !reboundDetected:
			outcome = RefactorSuccessful
		case sustainedCommits >= 2 && reboundDetected:
			outcome = RefactorPartial
		}

		analyses = append(analyses, RefactorAnalysis{
			FunctionID:       functionID,
			Outcome:          outcome,
			ImprovementDelta: improvementDelta,
			SustainedCommits: sustainedCommits,
			ReboundDetected:  reboundDetected,
		})
	}

	sort.Slice(analyses, func(i, j int) bool { return analyses[i].FunctionID < analyses[j].FunctionID })

	return analyses
}

func indexByID(functions []snapshot.FunctionSnapshot) map[string]snapshot.FunctionSnapshot {
	m := make(map[string]snapshot.FunctionSnapshot, len(functions))
	for _, f := range functions {
		m[f.FunctionID] = f
	}

	return m
}

func findDelta(deltas []indexedDelta, index int) (float64, bool) {
	for _, d := range deltas {
		if d.index == index {
			return d.delta, true
		}
	}

	return 0, false
}
