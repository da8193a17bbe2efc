// Package callgraph builds an internal-calls-only call graph from resolved
// fan-out callee names and computes graph-level centrality metrics:
// fan-in/out, PageRank, Brandes betweenness, Tarjan SCCs, and BFS
// dependency depth from heuristically detected entry points.
//
// External calls (anything that doesn't resolve to a known function ID in
// the analyzed codebase) are excluded by construction: this keeps the
// graph internal-architecture-only, fast, and deterministic.
package callgraph

import "sort"

// Graph is a directed call graph over function IDs.
type Graph struct {
	edges map[string][]string
	nodes map[string]struct{}

	TotalCalleeNames    int
	ResolvedCalleeNames int
}

// New returns an empty call graph.
func New() *Graph {
	return &Graph{
		edges: make(map[string][]string),
		nodes: make(map[string]struct{}),
	}
}

// AddNode registers a function id in the graph even if it has no edges.
func (g *Graph) AddNode(id string) {
	g.nodes[id] = struct{}{}
}

// AddEdge records a call from caller to callee, registering both as nodes.
func (g *Graph) AddEdge(caller, callee string) {
	g.nodes[caller] = struct{}{}
	g.nodes[callee] = struct{}{}
	g.edges[caller] = append(g.edges[caller], callee)
}

// Nodes returns every function id, sorted for deterministic iteration.
func (g *Graph) Nodes() []string {
	out := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		out = append(out, n)
	}

	sort.Strings(out)

	return out
}

// FanIn counts distinct callers of id: a caller with several edges to id
// counts once.
func (g *Graph) FanIn(id string) int {
	count := 0

	for _, callees := range g.edges {
		for _, c := range callees {
			if c == id {
				count++

				break
			}
		}
	}

	return count
}

// FanOut counts id's outgoing call edges.
func (g *Graph) FanOut(id string) int {
	return len(g.edges[id])
}

// Metrics is the set of graph-derived measurements for one function.
type Metrics struct {
	FanIn       int
	FanOut      int
	PageRank    float64
	Betweenness float64
}

// MetricsFor assembles Metrics for id from precomputed PageRank and
// betweenness tables.
func (g *Graph) MetricsFor(id string, pagerank, betweenness map[string]float64) Metrics {
	return Metrics{
		FanIn:       g.FanIn(id),
		FanOut:      g.FanOut(id),
		PageRank:    pagerank[id],
		Betweenness: betweenness[id],
	}
}

// PageRank computes damped PageRank over the call graph, iterations times,
// seeding every node at 1/n and normalizing each node's contribution by its
// own fan-out (dangling contributions use fan-out floored at 1).
func (g *Graph) PageRank(damping float64, iterations int) map[string]float64 {
	nodes := g.Nodes()
	n := len(nodes)

	ranks := make(map[string]float64, n)

	if n == 0 {
		return ranks
	}

	initial := 1.0 / float64(n)
	for _, node := range nodes {
		ranks[node] = initial
	}

	reverse := make(map[string][]string)

	for caller, callees := range g.edges {
		for _, callee := range callees {
			reverse[callee] = append(reverse[callee], caller)
		}
	}

	for key := range reverse {
		sort.Strings(reverse[key])
	}

	for i := 0; i < iterations; i++ {
		next := make(map[string]float64, n)

		for _, node := range nodes {
			rank := (1.0 - damping) / float64(n)

			for _, caller := range reverse[node] {
				callerRank := ranks[caller]

				fanOut := g.FanOut(caller)
				if fanOut < 1 {
					fanOut = 1
				}

				rank += damping * (callerRank / float64(fanOut))
			}

			next[node] = rank
		}

		ranks = next
	}

	return ranks
}

// Betweenness computes Brandes' betweenness centrality over every node,
// normalized by 1/((n-1)(n-2)) for n > 2.
func (g *Graph) Betweenness() map[string]float64 {
	nodes := g.Nodes()

	betweenness := make(map[string]float64, len(nodes))
	for _, n := range nodes {
		betweenness[n] = 0
	}

	for _, source := range nodes {
		stack, predecessors, sigma := g.brandesBFS(source, nodes)
		delta := brandesAccumulate(stack, predecessors, sigma)

		for _, w := range stack {
			if w != source {
				betweenness[w] += delta[w]
			}
		}
	}

	n := len(nodes)
	if n > 2 {
		normalization := 1.0 / float64((n-1)*(n-2))
		for k := range betweenness {
			betweenness[k] *= normalization
		}
	}

	return betweenness
}

func (g *Graph) brandesBFS(source string, nodes []string) ([]string, map[string][]string, map[string]float64) {
	stack := make([]string, 0, len(nodes))
	predecessors := make(map[string][]string)
	distance := make(map[string]int, len(nodes))
	sigma := make(map[string]float64, len(nodes))

	for _, n := range nodes {
		distance[n] = -1
		sigma[n] = 0
	}

	distance[source] = 0
	sigma[source] = 1

	queue := []string{source}

	for len(queue) > 0 {
		v := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		stack = append(stack, v)

		neighbors := append([]string(nil), g.edges[v]...)
		sort.Strings(neighbors)

		for _, w := range neighbors {
			if distance[w] < 0 {
				queue = append([]string{w}, queue...)
				distance[w] = distance[v] + 1
			}

			if distance[w] == distance[v]+1 {
				sigma[w] += sigma[v]
				predecessors[w] = append(predecessors[w], v)
			}
		}
	}

	return stack, predecessors, sigma
}

func brandesAccumulate(stack []string, predecessors map[string][]string, sigma map[string]float64) map[string]float64 {
	delta := make(map[string]float64, len(stack))
	for _, n := range stack {
		delta[n] = 0
	}

	for i := len(stack) - 1; i >= 0; i-- {
		w := stack[i]

		for _, v := range predecessors[w] {
			sigmaW := sigma[w]
			if sigmaW < 1 {
				sigmaW = 1
			}

			contrib := (sigma[v] / sigmaW) * (1.0 + delta[w])
			delta[v] += contrib
		}
	}

	return delta
}

// SCC is a function's strongly connected component assignment.
type SCC struct {
	ID   int
	Size int
}

// StronglyConnectedComponents runs Tarjan's algorithm over the graph,
// visiting nodes and each node's successors in sorted order for
// deterministic SCC ids.
func (g *Graph) StronglyConnectedComponents() map[string]SCC {
	t := &tarjan{
		indices:  make(map[string]int),
		lowlinks: make(map[string]int),
		onStack:  make(map[string]bool),
		sccOf:    make(map[string]int),
		sccSize:  make(map[int]int),
	}

	for _, node := range g.Nodes() {
		if _, ok := t.indices[node]; !ok {
			g.strongconnect(node, t)
		}
	}

	out := make(map[string]SCC, len(t.sccOf))
	for node, id := range t.sccOf {
		out[node] = SCC{ID: id, Size: t.sccSize[id]}
	}

	return out
}

type tarjan struct {
	index    int
	stack    []string
	indices  map[string]int
	lowlinks map[string]int
	onStack  map[string]bool
	sccID    int
	sccOf    map[string]int
	sccSize  map[int]int
}

func (g *Graph) strongconnect(v string, t *tarjan) {
	t.indices[v] = t.index
	t.lowlinks[v] = t.index
	t.index++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	successors := append([]string(nil), g.edges[v]...)
	sort.Strings(successors)

	for _, w := range successors {
		if _, ok := t.indices[w]; !ok {
			g.strongconnect(w, t)
			if t.lowlinks[w] < t.lowlinks[v] {
				t.lowlinks[v] = t.lowlinks[w]
			}
		} else if t.onStack[w] {
			if t.indices[w] < t.lowlinks[v] {
				t.lowlinks[v] = t.indices[w]
			}
		}
	}

	if t.lowlinks[v] == t.indices[v] {
		var scc []string

		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStack[w] = false
			scc = append(scc, w)
			t.sccOf[w] = t.sccID

			if w == v {
				break
			}
		}

		t.sccSize[t.sccID] = len(scc)
		t.sccID++
	}
}

// entryPointNames are exact function-name matches treated as program entry
// points.
var entryPointNames = map[string]bool{
	"main": true, "start": true, "init": true, "initialize": true,
	"run": true, "execute": true, "bootstrap": true,
}

// handlerPatterns are substrings of a function name that mark it as a
// likely request/event handler, and therefore an entry point.
var handlerPatterns = []string{
	"handle", "handler", "onrequest", "onmessage", "onevent", "middleware", "controller",
}

// IsEntryPoint reports whether id is recognized as a program entry point
// or request/event handler, per the same rules DependencyDepth uses
// internally. Exported so callers outside this package (pattern
// classification's middle_man/neighbor_risk suppression) can reuse the
// detection without duplicating it.
func (g *Graph) IsEntryPoint(id string) bool {
	return isEntryPoint(id)
}

func isEntryPoint(id string) bool {
	name := functionNameOf(id)

	if entryPointNames[name] {
		return true
	}

	for _, pattern := range handlerPatterns {
		if containsFold(name, pattern) {
			return true
		}
	}

	return false
}

func functionNameOf(id string) string {
	idx := lastIndex(id, "::")
	if idx < 0 {
		return toLower(id)
	}

	return toLower(id[idx+2:])
}

func lastIndex(s, sep string) int {
	for i := len(s) - len(sep); i >= 0; i-- {
		if s[i:i+len(sep)] == sep {
			return i
		}
	}

	return -1
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}

	return string(b)
}

func containsFold(s, substr string) bool {
	if substr == "" {
		return true
	}

	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}

	return false
}

// DependencyDepth computes, for every node, the BFS shortest-path distance
// from the nearest detected entry point. Nodes unreachable from any entry
// point map to a nil depth. Entry points are functions whose name matches a
// well-known program-entry or handler pattern; if none match, every
// zero-fan-in function is treated as an entry point instead.
func (g *Graph) DependencyDepth() map[string]*int {
	nodes := g.Nodes()

	var entryPoints []string

	for _, n := range nodes {
		if isEntryPoint(n) {
			entryPoints = append(entryPoints, n)
		}
	}

	if len(entryPoints) == 0 {
		for _, n := range nodes {
			if g.FanIn(n) == 0 {
				entryPoints = append(entryPoints, n)
			}
		}
	}

	depths := make(map[string]*int, len(nodes))

	type item struct {
		node  string
		depth int
	}

	var queue []item

	for _, e := range entryPoints {
		d := 0
		depths[e] = &d
		queue = append(queue, item{node: e, depth: 0})
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, callee := range g.edges[cur.node] {
			next := cur.depth + 1

			existing := depths[callee]
			if existing == nil || *existing > next {
				d := next
				depths[callee] = &d
				queue = append(queue, item{node: callee, depth: next})
			}
		}
	}

	for _, n := range nodes {
		if _, ok := depths[n]; !ok {
			depths[n] = nil
		}
	}

	return depths
}
