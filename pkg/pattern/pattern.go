// Package pattern classifies a function's metrics into named structural
// and historical patterns (god_function, hub_function, stale_complex, and
// so on). Classification is a pure function of its inputs — no I/O, no
// snapshot mutation — ported from
// original_source/hotspots-core/src/patterns.rs's Tier1/Tier2 model.
package pattern

// Tier1Input is the structural input available from pkg/metrics.RawMetrics
// alone, for every function regardless of analysis mode.
type Tier1Input struct {
	CC  int
	ND  int
	FO  int
	NS  int
	LOC int
}

// Tier2Input is the enriched input available only once a function's
// snapshot has call-graph and churn signals attached. A nil field means
// the signal was not computed for this function and every Tier 2 pattern
// reading it is skipped, matching the original's Option<T> semantics.
type Tier2Input struct {
	FanIn           *int
	SCCSize         *int
	ChurnLines      *int
	DaysSinceChange *int
	NeighborChurn   *int
	IsEntrypoint    bool
}

// Thresholds holds the fixed cutpoints every pattern check compares
// against. Values match the original's Thresholds::default() — see
// DESIGN.md for why these are not user-configurable in this pass.
type Thresholds struct {
	ComplexBranchingCC  int
	ComplexBranchingND  int
	DeeplyNestedND      int
	ExitHeavyNS         int
	GodFunctionLOC      int
	GodFunctionFO       int
	LongFunctionLOC     int
	ChurnMagnetChurn    int
	ChurnMagnetCC       int
	CyclicHubSCC        int
	CyclicHubFanIn      int
	HubFunctionFanIn    int
	HubFunctionCC       int
	MiddleManFanIn      int
	MiddleManFO         int
	MiddleManCCMax      int
	NeighborRiskChurn   int
	NeighborRiskFO      int
	ShotgunTargetFanIn  int
	ShotgunTargetChurn  int
	StaleComplexCC      int
	StaleComplexLOC     int
	StaleComplexDays    int
}

// DefaultThresholds returns the fixed cutpoints the original ships as
// Thresholds::default().
func DefaultThresholds() Thresholds {
	return Thresholds{
		ComplexBranchingCC: 10,
		ComplexBranchingND: 4,
		DeeplyNestedND:     5,
		ExitHeavyNS:        5,
		GodFunctionLOC:     60,
		GodFunctionFO:      10,
		LongFunctionLOC:    80,
		ChurnMagnetChurn:   200,
		ChurnMagnetCC:      8,
		CyclicHubSCC:       2,
		CyclicHubFanIn:     6,
		HubFunctionFanIn:   10,
		HubFunctionCC:      8,
		MiddleManFanIn:     8,
		MiddleManFO:        8,
		MiddleManCCMax:     4,
		NeighborRiskChurn:  400,
		NeighborRiskFO:     8,
		ShotgunTargetFanIn: 8,
		ShotgunTargetChurn: 150,
		StaleComplexCC:     10,
		StaleComplexLOC:    60,
		StaleComplexDays:   180,
	}
}

// TriggeredBy is a single metric condition that caused a pattern to fire.
type TriggeredBy struct {
	Metric    string `json:"metric"`
	Op        string `json:"op"`
	Value     int    `json:"value"`
	Threshold int    `json:"threshold"`
}

// Detail is the full explainable record for one fired pattern.
type Detail struct {
	ID          string        `json:"id"`
	Tier        int           `json:"tier"`
	Kind        string        `json:"kind"` // "primitive" or "derived"
	TriggeredBy []TriggeredBy `json:"triggered_by"`
}

// Classify returns the sorted pattern IDs that fire for t1/t2 under th:
// Tier 1 alphabetically, then Tier 2 alphabetically, with the derived
// volatile_god pattern appended last.
func Classify(t1 Tier1Input, t2 Tier2Input, th Thresholds) []string {
	details := ClassifyDetailed(t1, t2, th)

	ids := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
	}

	return ids
}

// ClassifyDetailed is the canonical implementation; Classify delegates to
// it and discards everything but the IDs.
func ClassifyDetailed(t1 Tier1Input, t2 Tier2Input, th Thresholds) []Detail {
	var results []Detail

	god := checkGodFunction(t1, th)
	churn := checkChurnMagnet(t1, t2, th)

	// Tier 1 — alphabetical.
	appendIfFired(&results, checkComplexBranching(t1, th))
	appendIfFired(&results, checkDeeplyNested(t1, th))
	appendIfFired(&results, checkExitHeavy(t1, th))
	appendIfFired(&results, god)
	appendIfFired(&results, checkLongFunction(t1, th))

	// Tier 2 — alphabetical.
	appendIfFired(&results, churn)
	appendIfFired(&results, checkCyclicHub(t2, th))
	appendIfFired(&results, checkHubFunction(t1, t2, th))
	appendIfFired(&results, checkMiddleMan(t1, t2, th))
	appendIfFired(&results, checkNeighborRisk(t1, t2, th))
	appendIfFired(&results, checkShotgunTarget(t2, th))
	appendIfFired(&results, checkStaleComplex(t1, t2, th))

	// volatile_god: derived — fires iff both god_function and
	// churn_magnet fired. triggered_by is the union of both; no raw
	// thresholds are re-evaluated here.
	if god != nil && churn != nil {
		triggeredBy := make([]TriggeredBy, 0, len(god.TriggeredBy)+len(churn.TriggeredBy))
		triggeredBy = append(triggeredBy, god.TriggeredBy...)
		triggeredBy = append(triggeredBy, churn.TriggeredBy...)

		results = append(results, Detail{
			ID:          "volatile_god",
			Tier:        2,
			Kind:        "derived",
			TriggeredBy: triggeredBy,
		})
	}

	return results
}

func appendIfFired(results *[]Detail, d *Detail) {
	if d != nil {
		*results = append(*results, *d)
	}
}

// ---------- Tier 1 checks ----------

func checkComplexBranching(t Tier1Input, th Thresholds) *Detail {
	if t.CC >= th.ComplexBranchingCC && t.ND >= th.ComplexBranchingND {
		return &Detail{
			ID:   "complex_branching",
			Tier: 1,
			Kind: "primitive",
			TriggeredBy: []TriggeredBy{
				tb("CC", ">=", t.CC, th.ComplexBranchingCC),
				tb("ND", ">=", t.ND, th.ComplexBranchingND),
			},
		}
	}

	return nil
}

func checkDeeplyNested(t Tier1Input, th Thresholds) *Detail {
	if t.ND >= th.DeeplyNestedND {
		return &Detail{
			ID:          "deeply_nested",
			Tier:        1,
			Kind:        "primitive",
			TriggeredBy: []TriggeredBy{tb("ND", ">=", t.ND, th.DeeplyNestedND)},
		}
	}

	return nil
}

func checkExitHeavy(t Tier1Input, th Thresholds) *Detail {
	if t.NS >= th.ExitHeavyNS {
		return &Detail{
			ID:          "exit_heavy",
			Tier:        1,
			Kind:        "primitive",
			TriggeredBy: []TriggeredBy{tb("NS", ">=", t.NS, th.ExitHeavyNS)},
		}
	}

	return nil
}

func checkGodFunction(t Tier1Input, th Thresholds) *Detail {
	if t.LOC >= th.GodFunctionLOC && t.FO >= th.GodFunctionFO {
		return &Detail{
			ID:   "god_function",
			Tier: 1,
			Kind: "primitive",
			TriggeredBy: []TriggeredBy{
				tb("LOC", ">=", t.LOC, th.GodFunctionLOC),
				tb("FO", ">=", t.FO, th.GodFunctionFO),
			},
		}
	}

	return nil
}

func checkLongFunction(t Tier1Input, th Thresholds) *Detail {
	if t.LOC >= th.LongFunctionLOC {
		return &Detail{
			ID:          "long_function",
			Tier:        1,
			Kind:        "primitive",
			TriggeredBy: []TriggeredBy{tb("LOC", ">=", t.LOC, th.LongFunctionLOC)},
		}
	}

	return nil
}

// ---------- Tier 2 checks ----------

func checkChurnMagnet(t1 Tier1Input, t2 Tier2Input, th Thresholds) *Detail {
	if t2.ChurnLines == nil {
		return nil
	}

	churn := *t2.ChurnLines
	if churn >= th.ChurnMagnetChurn && t1.CC >= th.ChurnMagnetCC {
		return &Detail{
			ID:   "churn_magnet",
			Tier: 2,
			Kind: "primitive",
			TriggeredBy: []TriggeredBy{
				tb("churn_lines", ">=", churn, th.ChurnMagnetChurn),
				tb("CC", ">=", t1.CC, th.ChurnMagnetCC),
			},
		}
	}

	return nil
}

func checkCyclicHub(t2 Tier2Input, th Thresholds) *Detail {
	if t2.SCCSize == nil || t2.FanIn == nil {
		return nil
	}

	scc, fanIn := *t2.SCCSize, *t2.FanIn
	if scc >= th.CyclicHubSCC && fanIn >= th.CyclicHubFanIn {
		return &Detail{
			ID:   "cyclic_hub",
			Tier: 2,
			Kind: "primitive",
			TriggeredBy: []TriggeredBy{
				tb("scc_size", ">=", scc, th.CyclicHubSCC),
				tb("fan_in", ">=", fanIn, th.CyclicHubFanIn),
			},
		}
	}

	return nil
}

func checkHubFunction(t1 Tier1Input, t2 Tier2Input, th Thresholds) *Detail {
	if t2.FanIn == nil {
		return nil
	}

	fanIn := *t2.FanIn
	if fanIn >= th.HubFunctionFanIn && t1.CC >= th.HubFunctionCC {
		return &Detail{
			ID:   "hub_function",
			Tier: 2,
			Kind: "primitive",
			TriggeredBy: []TriggeredBy{
				tb("fan_in", ">=", fanIn, th.HubFunctionFanIn),
				tb("CC", ">=", t1.CC, th.HubFunctionCC),
			},
		}
	}

	return nil
}

func checkMiddleMan(t1 Tier1Input, t2 Tier2Input, th Thresholds) *Detail {
	if t2.IsEntrypoint || t2.FanIn == nil {
		return nil
	}

	fanIn := *t2.FanIn
	if fanIn >= th.MiddleManFanIn && t1.FO >= th.MiddleManFO && t1.CC <= th.MiddleManCCMax {
		return &Detail{
			ID:   "middle_man",
			Tier: 2,
			Kind: "primitive",
			TriggeredBy: []TriggeredBy{
				tb("fan_in", ">=", fanIn, th.MiddleManFanIn),
				tb("FO", ">=", t1.FO, th.MiddleManFO),
				tb("CC", "<=", t1.CC, th.MiddleManCCMax),
			},
		}
	}

	return nil
}

func checkNeighborRisk(t1 Tier1Input, t2 Tier2Input, th Thresholds) *Detail {
	if t2.IsEntrypoint || t2.NeighborChurn == nil {
		return nil
	}

	nc := *t2.NeighborChurn
	if nc >= th.NeighborRiskChurn && t1.FO >= th.NeighborRiskFO {
		return &Detail{
			ID:   "neighbor_risk",
			Tier: 2,
			Kind: "primitive",
			TriggeredBy: []TriggeredBy{
				tb("neighbor_churn", ">=", nc, th.NeighborRiskChurn),
				tb("FO", ">=", t1.FO, th.NeighborRiskFO),
			},
		}
	}

	return nil
}

func checkShotgunTarget(t2 Tier2Input, th Thresholds) *Detail {
	if t2.FanIn == nil || t2.ChurnLines == nil {
		return nil
	}

	fanIn, churn := *t2.FanIn, *t2.ChurnLines
	if fanIn >= th.ShotgunTargetFanIn && churn >= th.ShotgunTargetChurn {
		return &Detail{
			ID:   "shotgun_target",
			Tier: 2,
			Kind: "primitive",
			TriggeredBy: []TriggeredBy{
				tb("fan_in", ">=", fanIn, th.ShotgunTargetFanIn),
				tb("churn_lines", ">=", churn, th.ShotgunTargetChurn),
			},
		}
	}

	return nil
}

func checkStaleComplex(t1 Tier1Input, t2 Tier2Input, th Thresholds) *Detail {
	if t2.DaysSinceChange == nil {
		return nil
	}

	days := *t2.DaysSinceChange
	if t1.CC >= th.StaleComplexCC && t1.LOC >= th.StaleComplexLOC && days >= th.StaleComplexDays {
		return &Detail{
			ID:   "stale_complex",
			Tier: 2,
			Kind: "primitive",
			TriggeredBy: []TriggeredBy{
				tb("CC", ">=", t1.CC, th.StaleComplexCC),
				tb("LOC", ">=", t1.LOC, th.StaleComplexLOC),
				tb("days_since_last_change", ">=", days, th.StaleComplexDays),
			},
		}
	}

	return nil
}

func tb(metric, op string, value, threshold int) TriggeredBy {
	return TriggeredBy{Metric: metric, Op: op, Value: value, Threshold: threshold}
}
