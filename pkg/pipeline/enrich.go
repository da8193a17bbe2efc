package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/Stephen-Collins-tech/hotspots/pkg/callgraph"
	"github.com/Stephen-Collins-tech/hotspots/pkg/gitlib"
	"github.com/Stephen-Collins-tech/hotspots/pkg/gitrepo"
	"github.com/Stephen-Collins-tech/hotspots/pkg/ir"
	"github.com/Stephen-Collins-tech/hotspots/pkg/pattern"
	"github.com/Stephen-Collins-tech/hotspots/pkg/snapshot"
	"github.com/Stephen-Collins-tech/hotspots/pkg/store"
)

// enrichHistory populates each function's Churn and TouchCount30d/
// DaysSinceChange from the repository's commit history: Churn comes
// directly from the per-file ChurnMap, while touch metrics are
// computed per file in one batched blame call covering every function
// span in that file, cached across runs via pkg/store's TouchCache.
func enrichHistory(repo *gitlib.Repository, headHash gitlib.Hash, snap *snapshot.Snapshot, churn gitrepo.ChurnMap, cache *store.TouchCache) error {
	byFile := make(map[string][]int)

	for i, fn := range snap.Functions {
		byFile[fn.File] = append(byFile[fn.File], i)
	}

	headSHA := headHash.String()

	for file, indices := range byFile {
		if fc, ok := churn[file]; ok {
			for _, idx := range indices {
				snap.Functions[idx].Churn = &snapshot.ChurnMetrics{
					LinesAdded:   fc.LinesAdded,
					LinesDeleted: fc.LinesDeleted,
					NetChange:    int64(fc.LinesAdded) - int64(fc.LinesDeleted),
				}
			}
		}

		var (
			keys    []gitrepo.TouchKey
			pending []int
		)

		for _, idx := range indices {
			line := snap.Functions[idx].Line
			key := gitrepo.TouchKey{SHA: headSHA, File: file, StartLine: line, EndLine: line}

			if cached, ok := cache.Get(key); ok {
				applyTouchMetrics(&snap.Functions[idx], cached)
				continue
			}

			keys = append(keys, key)
			pending = append(pending, idx)
		}

		if len(keys) == 0 {
			continue
		}

		results, err := gitrepo.BatchedTouchMetrics(repo, headHash, file, keys)
		if err != nil {
			continue // A file git can't blame (e.g. newly staged) keeps zero-value touch metrics.
		}

		for i, idx := range pending {
			tm := results[keys[i]]
			cache.Set(keys[i], tm)
			applyTouchMetrics(&snap.Functions[idx], tm)
		}
	}

	return nil
}

func applyTouchMetrics(fn *snapshot.FunctionSnapshot, tm gitrepo.TouchMetrics) {
	count := tm.Count
	fn.TouchCount30d = &count
	fn.DaysSinceChange = tm.DaysSince
}

func loadTouchCache(repoRoot string) (*store.TouchCache, error) {
	return store.Open(filepath.Join(repoRoot, ".hotspots")).LoadTouchCache()
}

func saveTouchCache(repoRoot string, cache *store.TouchCache) error {
	return store.Open(filepath.Join(repoRoot, ".hotspots")).SaveTouchCache(cache)
}

// enrichCallGraph builds the internal-calls-only call graph from every
// function's resolved callee names and populates each function's
// CallGraph field with fan-in/out, PageRank, betweenness, SCC
// membership, and BFS dependency depth. Callee-name-to-function-ID
// resolution (simple trailing-segment name match, case-insensitive,
// every same-named candidate linked) is authored fresh: neither
// callgraph.rs nor any other retrieved original_source file contains
// the resolution step itself (hotspots-cli/src/main.rs calls an
// unretrieved hotspots_core::build_call_graph helper) — see DESIGN.md.
func enrichCallGraph(functions []*ir.Function, snap *snapshot.Snapshot) *callgraph.Graph {
	g := callgraph.New()

	byName := make(map[string][]string)

	for _, fn := range functions {
		g.AddNode(fn.ID)
		byName[simpleName(fn.ID)] = append(byName[simpleName(fn.ID)], fn.ID)
	}

	neighbors := make(map[string]map[string]bool, len(functions))
	for _, fn := range functions {
		neighbors[fn.ID] = make(map[string]bool)
	}

	addEdge := func(caller, callee string) {
		g.AddEdge(caller, callee)
		neighbors[caller][callee] = true
		neighbors[callee][caller] = true
	}

	for _, fn := range functions {
		for _, callee := range collectCalls(fn.Body) {
			if callee == "<computed>" {
				continue
			}

			name := strings.ToLower(callee)
			if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
				name = name[idx+1:]
			}

			for _, targetID := range byName[name] {
				if targetID == fn.ID {
					continue
				}

				addEdge(fn.ID, targetID)
			}
		}
	}

	pagerank := g.PageRank(0.85, 30)
	betweenness := g.Betweenness()
	sccs := g.StronglyConnectedComponents()
	depths := g.DependencyDepth()

	neighborChurn := neighborChurnCounts(neighbors, snap)

	for i := range snap.Functions {
		fn := &snap.Functions[i]

		m := g.MetricsFor(fn.FunctionID, pagerank, betweenness)
		scc := sccs[fn.FunctionID]
		depth := depths[fn.FunctionID]

		cg := snapshot.CallGraphMetricsFrom(m, scc, depth)

		if nc, ok := neighborChurn[fn.FunctionID]; ok {
			cg.NeighborChurn = &nc
		}

		fn.CallGraph = &cg
	}

	return g
}

// enrichPatterns classifies every function's structural and historical
// pattern labels once call-graph and churn enrichment have both run,
// since Tier 2 inputs (fan-in, SCC size, neighbor churn, entry-point
// status) are only available afterward. Functions missing a given Tier
// 2 signal simply skip the patterns that read it, matching the
// original's Option<T> semantics.
func enrichPatterns(g *callgraph.Graph, snap *snapshot.Snapshot) {
	th := pattern.DefaultThresholds()

	for i := range snap.Functions {
		fn := &snap.Functions[i]

		t1 := pattern.Tier1Input{
			CC:  fn.Metrics.CC,
			ND:  fn.Metrics.ND,
			FO:  fn.Metrics.FO,
			NS:  fn.Metrics.NS,
			LOC: fn.Metrics.LOC,
		}

		t2 := pattern.Tier2Input{IsEntrypoint: g.IsEntryPoint(fn.FunctionID)}

		if fn.CallGraph != nil {
			fanIn := fn.CallGraph.FanIn
			t2.FanIn = &fanIn

			sccSize := fn.CallGraph.SCCSize
			t2.SCCSize = &sccSize

			t2.NeighborChurn = fn.CallGraph.NeighborChurn
		}

		if fn.Churn != nil {
			churnLines := fn.Churn.LinesAdded + fn.Churn.LinesDeleted
			t2.ChurnLines = &churnLines
		}

		if fn.DaysSinceChange != nil {
			days := int(*fn.DaysSinceChange)
			t2.DaysSinceChange = &days
		}

		details := pattern.ClassifyDetailed(t1, t2, th)
		if len(details) == 0 {
			continue
		}

		ids := make([]string, 0, len(details))
		for _, d := range details {
			ids = append(ids, d.ID)
		}

		fn.Patterns = ids
		fn.PatternDetails = details
	}
}

// neighborChurnCounts counts, for each function, how many of its direct
// call-graph neighbors (callers and callees, collected while the graph
// was built) have non-zero churn this snapshot — the "neighbor churn"
// activity-risk signal.
func neighborChurnCounts(neighbors map[string]map[string]bool, snap *snapshot.Snapshot) map[string]int {
	churned := make(map[string]bool, len(snap.Functions))

	for _, fn := range snap.Functions {
		if fn.Churn != nil && (fn.Churn.LinesAdded > 0 || fn.Churn.LinesDeleted > 0) {
			churned[fn.FunctionID] = true
		}
	}

	out := make(map[string]int, len(neighbors))

	for id, set := range neighbors {
		count := 0

		for n := range set {
			if churned[n] {
				count++
			}
		}

		out[id] = count
	}

	return out
}

func simpleName(functionID string) string {
	idx := strings.LastIndex(functionID, "::")
	if idx < 0 {
		return strings.ToLower(functionID)
	}

	return strings.ToLower(functionID[idx+2:])
}

// collectCalls walks a function body collecting every callee name
// appearing anywhere within it, mirroring pkg/metrics's own walker
// traversal shape but returning the names rather than just their count.
func collectCalls(n *ir.Node) []string {
	if n == nil {
		return nil
	}

	var out []string

	out = append(out, n.Calls...)

	switch n.Kind {
	case ir.KindBlock:
		for _, c := range n.Children {
			out = append(out, collectCalls(c)...)
		}
	case ir.KindIf:
		out = append(out, collectCalls(n.Then)...)
		out = append(out, collectCalls(n.Else)...)
	case ir.KindWhile, ir.KindDoWhile, ir.KindForIn:
		out = append(out, collectCalls(n.Body)...)
	case ir.KindForC:
		out = append(out, collectCalls(n.Init)...)
		out = append(out, collectCalls(n.Update)...)
		out = append(out, collectCalls(n.Body)...)
	case ir.KindSwitch:
		for _, c := range n.Cases {
			out = append(out, collectCalls(c.Body)...)
		}
	case ir.KindTryCatchFinally:
		out = append(out, collectCalls(n.Try)...)

		for _, c := range n.Catches {
			out = append(out, collectCalls(c.Body)...)
		}

		out = append(out, collectCalls(n.Finally)...)
	}

	return out
}
