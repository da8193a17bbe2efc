package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnsupportedSchemaVersion is returned when a persisted snapshot's
// schema_version falls outside [SchemaVersionMin, SchemaVersionCurrent].
var ErrUnsupportedSchemaVersion = errors.New("unsupported snapshot schema version")

// activityScore returns a function's activity risk, falling back to
// its base LRS when activity risk has not been computed.
func activityScore(f FunctionSnapshot) float64 {
	if f.ActivityRisk != nil {
		return *f.ActivityRisk
	}

	return f.LRS
}

// ComputeSummary recomputes the repo-level summary from the snapshot's
// current functions. Must be called after activity risk and call-graph
// enrichment for the top-K shares and call-graph stats to be meaningful.
func (s *Snapshot) ComputeSummary() {
	n := len(s.Functions)
	if n == 0 {
		s.Summary = &Summary{ByBand: map[string]BandStats{}}

		return
	}

	scores := make([]float64, n)
	for i, f := range s.Functions {
		scores[i] = activityScore(f)
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(scores)))

	var totalRisk float64
	for _, v := range scores {
		totalRisk += v
	}

	top1N := maxInt(n/100, 1)
	top5N := maxInt(n*5/100, 1)
	top10N := maxInt(n/10, 1)

	safeDiv := func(a, b float64) float64 {
		if b > 0 {
			return a / b
		}

		return 0
	}

	byBand := make(map[string]BandStats)

	for _, f := range s.Functions {
		entry := byBand[f.Band]
		entry.Count++
		entry.SumRisk += activityScore(f)
		byBand[f.Band] = entry
	}

	summary := &Summary{
		TotalFunctions: n,
		TotalActivity:  totalRisk,
		Top1PctShare:   safeDiv(sumN(scores, top1N), totalRisk),
		Top5PctShare:   safeDiv(sumN(scores, top5N), totalRisk),
		Top10PctShare:  safeDiv(sumN(scores, top10N), totalRisk),
		ByBand:         byBand,
		CallGraph:      computeCallGraphStats(s.Functions, n),
	}

	s.Summary = summary
}

func sumN(sorted []float64, k int) float64 {
	if k > len(sorted) {
		k = len(sorted)
	}

	var sum float64
	for _, v := range sorted[:k] {
		sum += v
	}

	return sum
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}

func computeCallGraphStats(functions []FunctionSnapshot, n int) *CallGraphStats {
	hasCallGraph := false

	var totalFanOut, totalFanIn int

	sccSizes := make(map[int]int)

	for _, f := range functions {
		if f.CallGraph == nil {
			continue
		}

		hasCallGraph = true
		totalFanOut += f.CallGraph.FanOut
		totalFanIn += f.CallGraph.FanIn

		if f.CallGraph.SCCSize > 1 {
			sccSizes[f.CallGraph.SCCID] = f.CallGraph.SCCSize
		}
	}

	if !hasCallGraph {
		return nil
	}

	largest := 0
	for _, size := range sccSizes {
		if size > largest {
			largest = size
		}
	}

	return &CallGraphStats{
		TotalEdges:     totalFanOut,
		AvgFanIn:       float64(totalFanIn) / float64(n),
		SCCCount:       len(sccSizes),
		LargestSCCSize: largest,
	}
}

// ToJSON serializes the snapshot as deterministic pretty JSON.
func (s *Snapshot) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	return data, nil
}

// ToJSONL serializes the snapshot as one JSON object per function line
// (no outer array), with the commit context embedded in each row, for
// streaming ingestion into row-oriented tools.
func (s *Snapshot) ToJSONL() ([]byte, error) {
	commitJSON, err := json.Marshal(s.Commit)
	if err != nil {
		return nil, fmt.Errorf("marshal commit: %w", err)
	}

	lines := make([]string, 0, len(s.Functions))

	for _, fn := range s.Functions {
		fnJSON, marshalErr := json.Marshal(fn)
		if marshalErr != nil {
			return nil, fmt.Errorf("marshal function %s: %w", fn.FunctionID, marshalErr)
		}

		var obj map[string]json.RawMessage
		if unmarshalErr := json.Unmarshal(fnJSON, &obj); unmarshalErr != nil {
			return nil, fmt.Errorf("decode function %s: %w", fn.FunctionID, unmarshalErr)
		}

		obj["commit"] = commitJSON

		merged, marshalErr := json.Marshal(obj)
		if marshalErr != nil {
			return nil, fmt.Errorf("remarshal function %s: %w", fn.FunctionID, marshalErr)
		}

		lines = append(lines, string(merged))
	}

	return []byte(strings.Join(lines, "\n")), nil
}

// FromJSON deserializes a Snapshot, rejecting a schema_version outside
// the accepted [SchemaVersionMin, SchemaVersionCurrent] range.
func FromJSON(data []byte) (Snapshot, error) {
	var s Snapshot

	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	if s.SchemaVersion < SchemaVersionMin || s.SchemaVersion > SchemaVersionCurrent {
		return Snapshot{}, fmt.Errorf("%w: got %d, supported range %d-%d",
			ErrUnsupportedSchemaVersion, s.SchemaVersion, SchemaVersionMin, SchemaVersionCurrent)
	}

	return s, nil
}
