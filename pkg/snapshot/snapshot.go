// Package snapshot is the commit-scoped, immutable data model the
// pipeline's earlier components (risk, call graph, history signals)
// feed into, plus the repo-level summary statistics computed from it.
// Field shapes are ported from
// original_source/hotspots-core/src/snapshot.rs's Snapshot family.
package snapshot

import (
	"path"
	"sort"

	"github.com/Stephen-Collins-tech/hotspots/pkg/callgraph"
	"github.com/Stephen-Collins-tech/hotspots/pkg/gitrepo"
	"github.com/Stephen-Collins-tech/hotspots/pkg/metrics"
	"github.com/Stephen-Collins-tech/hotspots/pkg/pattern"
	"github.com/Stephen-Collins-tech/hotspots/pkg/risk"
)

// SchemaVersionCurrent is the schema version this package writes.
// v1 was LRS + basic metrics only; v2 adds LOC, git churn/touch, call
// graph, activity risk, percentiles, and the summary block.
const SchemaVersionCurrent = 2

// SchemaVersionMin is the oldest schema version readers must accept.
const SchemaVersionMin = 1

// CommitInfo is the commit identity and classification embedded in a
// snapshot, derived from a gitrepo.Context.
type CommitInfo struct {
	SHA            string   `json:"sha"`
	Parents        []string `json:"parents"`
	Timestamp      int64    `json:"timestamp"`
	Branch         string   `json:"branch,omitempty"`
	Message        string   `json:"message,omitempty"`
	Author         string   `json:"author,omitempty"`
	IsFixCommit    *bool    `json:"is_fix_commit,omitempty"`
	IsRevertCommit *bool    `json:"is_revert_commit,omitempty"`
	TicketIDs      []string `json:"ticket_ids,omitempty"`
}

// CommitInfoFromContext converts a gitrepo.Context into the embedded
// commit identity a snapshot persists.
func CommitInfoFromContext(ctx gitrepo.Context) CommitInfo {
	isFix := ctx.IsFixCommit
	isRevert := ctx.IsRevertCommit

	return CommitInfo{
		SHA:            ctx.HeadSHA,
		Parents:        ctx.ParentSHAs,
		Timestamp:      ctx.Timestamp.Unix(),
		Branch:         ctx.Branch,
		Message:        ctx.Message,
		Author:         ctx.Author,
		IsFixCommit:    &isFix,
		IsRevertCommit: &isRevert,
		TicketIDs:      ctx.TicketIDs,
	}
}

// AnalysisInfo records the scope and tool version an analysis run used.
type AnalysisInfo struct {
	Scope       string `json:"scope"`
	ToolVersion string `json:"tool_version"`
}

// ChurnMetrics is the added/deleted/net line-count delta for a file
// across the history window considered.
type ChurnMetrics struct {
	LinesAdded   int   `json:"lines_added"`
	LinesDeleted int   `json:"lines_deleted"`
	NetChange    int64 `json:"net_change"`
}

// PercentileFlags marks whether a function's activity risk places it
// in the top 10/5/1 percent of the snapshot's distribution.
type PercentileFlags struct {
	IsTop10Pct bool `json:"is_top_10_pct"`
	IsTop5Pct  bool `json:"is_top_5_pct"`
	IsTop1Pct  bool `json:"is_top_1_pct"`
}

// CallGraphMetrics is the call-graph-derived measurements for one
// function, ported from pkg/callgraph.Metrics plus SCC identity.
type CallGraphMetrics struct {
	FanIn           int     `json:"fan_in"`
	FanOut          int     `json:"fan_out"`
	PageRank        float64 `json:"pagerank"`
	Betweenness     float64 `json:"betweenness"`
	SCCID           int     `json:"scc_id"`
	SCCSize         int     `json:"scc_size"`
	DependencyDepth *int    `json:"dependency_depth,omitempty"`
	NeighborChurn   *int    `json:"neighbor_churn,omitempty"`
}

// FunctionSnapshot is one function's complete analysis record within a
// commit's snapshot. Fields beyond FunctionID/File/Line/Language/
// Metrics/LRS/Band are populated progressively by the enrichment
// stages (churn, touch metrics, call graph, activity risk, percentiles,
// driver labels, quadrants) as pkg/activity runs over the snapshot.
type FunctionSnapshot struct {
	FunctionID        string             `json:"function_id"`
	File              string             `json:"file"`
	Line              int                `json:"line"`
	Language          string             `json:"language"`
	Metrics           metrics.RawMetrics `json:"metrics"`
	LRS               float64            `json:"lrs"`
	Band              string             `json:"band"`
	// SuppressionReason mirrors the frontend's marker: nil means no
	// marker, a pointer to "" means marker-without-reason, a pointer to
	// non-empty text means marker-with-reason. Downstream policy
	// evaluation depends on telling the empty-string case apart from nil.
	SuppressionReason *string           `json:"suppression_reason,omitempty"`
	Churn             *ChurnMetrics      `json:"churn,omitempty"`
	TouchCount30d     *int               `json:"touch_count_30d,omitempty"`
	DaysSinceChange   *float64           `json:"days_since_last_change,omitempty"`
	CallGraph         *CallGraphMetrics  `json:"callgraph,omitempty"`
	ActivityRisk      *float64           `json:"activity_risk,omitempty"`
	RiskFactors       *RiskFactors       `json:"risk_factors,omitempty"`
	Percentile        *PercentileFlags   `json:"percentile,omitempty"`
	Driver            string             `json:"driver,omitempty"`
	DriverDetail      string             `json:"driver_detail,omitempty"`
	Quadrant          string             `json:"quadrant,omitempty"`
	Patterns          []string           `json:"patterns,omitempty"`
	PatternDetails    []pattern.Detail   `json:"pattern_details,omitempty"`
}

// RiskFactors is the per-signal breakdown behind an ActivityRisk score.
// Shape is authored fresh — see DESIGN.md's pkg/activity entry.
type RiskFactors struct {
	Complexity       float64 `json:"complexity"`
	Churn            float64 `json:"churn"`
	RecentActivity   float64 `json:"recent_activity"`
	FanIn            float64 `json:"fan_in"`
	CyclicDependency float64 `json:"cyclic_dependency"`
	Depth            float64 `json:"depth"`
	NeighborChurn    float64 `json:"neighbor_churn"`
}

// BandStats is the count and summed risk for one risk band within a
// snapshot's function population.
type BandStats struct {
	Count   int     `json:"count"`
	SumRisk float64 `json:"sum_risk"`
}

// CallGraphStats is repo-wide call-graph aggregate statistics.
type CallGraphStats struct {
	TotalEdges     int     `json:"total_edges"`
	AvgFanIn       float64 `json:"avg_fan_in"`
	SCCCount       int     `json:"scc_count"`
	LargestSCCSize int     `json:"largest_scc_size"`
}

// Summary is the repo-level statistics computed over all functions in
// a snapshot.
type Summary struct {
	TotalFunctions  int                  `json:"total_functions"`
	TotalActivity   float64              `json:"total_activity_risk"`
	Top1PctShare    float64              `json:"top_1_pct_share"`
	Top5PctShare    float64              `json:"top_5_pct_share"`
	Top10PctShare   float64              `json:"top_10_pct_share"`
	ByBand        map[string]BandStats `json:"by_band"`
	CallGraph     *CallGraphStats      `json:"call_graph,omitempty"`
}

// Snapshot is the complete, immutable analysis record for one commit.
type Snapshot struct {
	SchemaVersion int                `json:"schema_version"`
	Commit        CommitInfo         `json:"commit"`
	Analysis      AnalysisInfo       `json:"analysis"`
	Functions     []FunctionSnapshot `json:"functions"`
	Summary       *Summary           `json:"summary,omitempty"`
}

// FunctionReport is one analyzed function's risk result plus the
// identity fields needed to place it in a snapshot. The pipeline
// assembles one per function before calling New.
type FunctionReport struct {
	FunctionID        string
	File              string
	Line              int
	Language          string
	Metrics           metrics.RawMetrics
	Risk              risk.Result
	SuppressionReason *string
}

// New builds a Snapshot from a commit's git context and its analyzed
// functions. Function IDs and files are taken as given; callers are
// responsible for the `<relative_file_path>::<symbol>` convention and
// forward-slash path normalization before calling New.
func New(ctx gitrepo.Context, toolVersion string, reports []FunctionReport) Snapshot {
	functions := make([]FunctionSnapshot, 0, len(reports))

	for _, r := range reports {
		functions = append(functions, FunctionSnapshot{
			FunctionID:        r.FunctionID,
			File:              path.Clean(r.File),
			Line:              r.Line,
			Language:          r.Language,
			Metrics:           r.Metrics,
			LRS:               r.Risk.LRS,
			Band:              r.Risk.Band.String(),
			SuppressionReason: r.SuppressionReason,
		})
	}

	sort.Slice(functions, func(i, j int) bool {
		return functions[i].FunctionID < functions[j].FunctionID
	})

	return Snapshot{
		SchemaVersion: SchemaVersionCurrent,
		Commit:        CommitInfoFromContext(ctx),
		Analysis:      AnalysisInfo{Scope: "repository", ToolVersion: toolVersion},
		Functions:     functions,
	}
}

// CallGraphMetricsFrom converts pkg/callgraph's per-node metrics plus
// SCC identity into the snapshot's embedded CallGraphMetrics.
func CallGraphMetricsFrom(m callgraph.Metrics, scc callgraph.SCC, depth *int) CallGraphMetrics {
	return CallGraphMetrics{
		FanIn:           m.FanIn,
		FanOut:          m.FanOut,
		PageRank:        m.PageRank,
		Betweenness:     m.Betweenness,
		SCCID:           scc.ID,
		SCCSize:         scc.Size,
		DependencyDepth: depth,
	}
}
