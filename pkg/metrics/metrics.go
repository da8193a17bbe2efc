// Package metrics extracts RawMetrics (cc, nd, fo, ns, loc) from a
// function's IR and its already-built control-flow graph. Extraction is a
// pure function of the AST: formatting and comments never reach the IR,
// so results are stable under reformatting by construction.
package metrics

import (
	"github.com/Stephen-Collins-tech/hotspots/pkg/cfg"
	"github.com/Stephen-Collins-tech/hotspots/pkg/ir"
)

// RawMetrics is the set of structural measurements the risk scorer
// consumes.
type RawMetrics struct {
	CC  int
	ND  int
	FO  int
	NS  int
	LOC int
}

// Extract computes RawMetrics for fn given its control-flow graph g.
func Extract(fn *ir.Function, g *cfg.Cfg) RawMetrics {
	w := &walker{callees: make(map[string]struct{})}
	w.walk(fn.Body, 0)

	cc := baseCyclomatic(g) + w.boolOps + w.switchArms + w.catchClauses + w.ternaries + w.comprehensionFilters

	ns := w.earlyReturns + w.breaks + w.continues + w.throws
	if lastStatementIsReturn(fn.Body) && w.earlyReturns > 0 {
		ns--
	}

	loc := fn.EndLine - fn.StartLine + 1
	if loc < 0 {
		loc = 0
	}

	return RawMetrics{CC: cc, ND: w.maxDepth, FO: len(w.callees), NS: ns, LOC: loc}
}

// baseCyclomatic is E - N + 2 over the CFG, N counting every node
// including entry and exit, which gives 1 for a straight-line (or empty)
// function; degenerate graphs are floored at 1.
func baseCyclomatic(g *cfg.Cfg) int {
	e := len(g.Edges)
	n := g.N()

	if e == 0 || g.N() <= 2 || n == 0 {
		return 1
	}

	cc := e - n + 2
	if cc < 1 {
		return 1
	}

	return cc
}

func lastStatementIsReturn(body *ir.Node) bool {
	if body == nil || len(body.Children) == 0 {
		return false
	}

	last := body.Children[len(body.Children)-1]

	return last.Kind == ir.KindReturn
}

// walker accumulates the AST-level extras the CFG alone cannot express:
// short-circuit operators, switch arms, catch clauses, ternaries,
// comprehension filters, the nesting-depth maximum, non-structured exit
// counts, and the unique fan-out callee set.
type walker struct {
	boolOps              int
	switchArms           int
	catchClauses         int
	ternaries            int
	comprehensionFilters int

	earlyReturns int
	breaks       int
	continues    int
	throws       int

	callees  map[string]struct{}
	maxDepth int
}

func (w *walker) walk(n *ir.Node, depth int) {
	if n == nil {
		return
	}

	if depth > w.maxDepth {
		w.maxDepth = depth
	}

	w.boolOps += n.BoolOps
	w.ternaries += n.Ternaries
	w.comprehensionFilters += n.ComprehensionFilters

	for _, callee := range n.Calls {
		if callee != "<computed>" {
			w.callees[callee] = struct{}{}
		}
	}

	switch n.Kind {
	case ir.KindBlock:
		for _, c := range n.Children {
			w.walk(c, depth)
		}
	case ir.KindIf:
		w.walk(n.Then, depth+1)

		if n.Else != nil {
			w.walk(n.Else, depth+1)
		}
	case ir.KindWhile, ir.KindDoWhile, ir.KindForIn:
		w.walk(n.Body, depth+1)
	case ir.KindForC:
		w.walk(n.Init, depth)
		w.walk(n.Update, depth)
		w.walk(n.Body, depth+1)
	case ir.KindSwitch:
		w.switchArms += len(n.Cases)

		for _, c := range n.Cases {
			w.walk(c.Body, depth+1)
		}
	case ir.KindTryCatchFinally:
		w.catchClauses += len(n.Catches)

		w.walk(n.Try, depth+1)

		for _, c := range n.Catches {
			w.walk(c.Body, depth+1)
		}

		w.walk(n.Finally, depth+1)
	case ir.KindReturn:
		w.earlyReturns++
	case ir.KindThrow:
		w.throws++
	case ir.KindBreak:
		w.breaks++
	case ir.KindContinue:
		w.continues++
	}
}
