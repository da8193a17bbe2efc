package cfg

import "github.com/Stephen-Collins-tech/hotspots/pkg/ir"

// breakable is one frame of the builder's stack of enclosing loop/switch
// contexts, used to resolve break/continue targets including labeled
// jumps.
type breakable struct {
	label          string
	breakTarget    int
	continueTarget int
	isLoop         bool
}

// builder holds the mutable state of one function's CFG construction.
type builder struct {
	nodes      []NodeKind
	edges      []Edge
	current    *int
	exit       int
	breakables []breakable
}

// Build constructs the control-flow graph for a single function body.
func Build(body *ir.Node) *Cfg {
	b := &builder{}

	entry := b.newNode(KindEntry)
	exit := b.newNode(KindExit)
	b.exit = exit

	cur := entry
	b.current = &cur

	b.block(body)

	if b.current != nil {
		b.addEdge(*b.current, exit)
	}

	return &Cfg{Nodes: b.nodes, Edges: b.edges, Entry: entry, Exit: exit}
}

func (b *builder) newNode(kind NodeKind) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, kind)

	return id
}

func (b *builder) addEdge(from, to int) {
	b.edges = append(b.edges, Edge{From: from, To: to})
}

func (b *builder) block(n *ir.Node) {
	if n == nil {
		return
	}

	for _, child := range n.Children {
		b.stmt(child)
	}
}

// stmt lowers one IR statement onto the graph under construction,
// advancing b.current or setting it to nil when control cannot fall
// through (after return/throw/break/continue).
func (b *builder) stmt(n *ir.Node) {
	if b.current == nil {
		return // Unreachable code contributes no nodes.
	}

	switch n.Kind {
	case ir.KindSimple:
		id := b.newNode(KindStatement)
		b.addEdge(*b.current, id)
		b.setCurrent(id)
	case ir.KindIf:
		b.buildIf(n)
	case ir.KindWhile:
		b.buildWhile(n)
	case ir.KindDoWhile:
		b.buildDoWhile(n)
	case ir.KindForC:
		b.buildForC(n)
	case ir.KindForIn:
		b.buildForIn(n)
	case ir.KindSwitch:
		b.buildSwitch(n)
	case ir.KindReturn, ir.KindThrow:
		b.addEdge(*b.current, b.exit)
		b.current = nil
	case ir.KindBreak:
		if target := b.resolveBreak(n.Target); target != nil {
			b.addEdge(*b.current, *target)
		}

		b.current = nil
	case ir.KindContinue:
		if target := b.resolveContinue(n.Target); target != nil {
			b.addEdge(*b.current, *target)
		}

		b.current = nil
	case ir.KindTryCatchFinally:
		b.buildTry(n)
	case ir.KindBlock:
		b.block(n)
	}
}

func (b *builder) setCurrent(id int) {
	cur := id
	b.current = &cur
}

func (b *builder) buildIf(n *ir.Node) {
	condID := b.newNode(KindCondition)
	b.addEdge(*b.current, condID)

	joinID := b.newNode(KindJoin)

	b.setCurrent(condID)
	b.block(n.Then)

	if b.current != nil {
		b.addEdge(*b.current, joinID)
	}

	if n.Else != nil {
		b.setCurrent(condID)
		b.block(n.Else)

		if b.current != nil {
			b.addEdge(*b.current, joinID)
		}
	} else {
		b.addEdge(condID, joinID)
	}

	b.setCurrent(joinID)
}

func (b *builder) buildWhile(n *ir.Node) {
	headerID := b.newNode(KindLoopHeader)
	b.addEdge(*b.current, headerID)

	condID := b.newNode(KindCondition)
	b.addEdge(headerID, condID)

	joinID := b.newNode(KindJoin)

	b.pushBreakable(breakable{label: n.Label, breakTarget: joinID, continueTarget: headerID, isLoop: true})

	b.setCurrent(condID)
	b.block(n.Body)

	if b.current != nil {
		b.addEdge(*b.current, headerID)
	}

	b.popBreakable()

	b.addEdge(condID, joinID)
	b.setCurrent(joinID)
}

func (b *builder) buildDoWhile(n *ir.Node) {
	headerID := b.newNode(KindLoopHeader)
	b.addEdge(*b.current, headerID)

	condID := b.newNode(KindCondition)
	joinID := b.newNode(KindJoin)

	b.pushBreakable(breakable{label: n.Label, breakTarget: joinID, continueTarget: condID, isLoop: true})

	b.setCurrent(headerID)
	b.block(n.Body)

	if b.current != nil {
		b.addEdge(*b.current, condID)
	}

	b.popBreakable()

	b.addEdge(condID, headerID)
	b.addEdge(condID, joinID)
	b.setCurrent(joinID)
}

func (b *builder) buildForC(n *ir.Node) {
	if n.Init != nil {
		b.stmt(n.Init)
	}

	headerID := b.newNode(KindLoopHeader)
	b.addEdge(*b.current, headerID)

	condID := b.newNode(KindCondition)
	b.addEdge(headerID, condID)

	hasUpdate := n.Update != nil

	updID := headerID
	if hasUpdate {
		updID = b.newNode(KindStatement)
	}

	joinID := b.newNode(KindJoin)

	b.pushBreakable(breakable{label: n.Label, breakTarget: joinID, continueTarget: updID, isLoop: true})

	b.setCurrent(condID)
	b.block(n.Body)

	if b.current != nil {
		b.addEdge(*b.current, updID)
	}

	b.popBreakable()

	if hasUpdate {
		b.addEdge(updID, headerID)
	}

	b.addEdge(condID, joinID)
	b.setCurrent(joinID)
}

func (b *builder) buildForIn(n *ir.Node) {
	headerID := b.newNode(KindLoopHeader)
	b.addEdge(*b.current, headerID)

	condID := b.newNode(KindCondition)
	b.addEdge(headerID, condID)

	joinID := b.newNode(KindJoin)

	b.pushBreakable(breakable{label: n.Label, breakTarget: joinID, continueTarget: headerID, isLoop: true})

	b.setCurrent(condID)
	b.block(n.Body)

	if b.current != nil {
		b.addEdge(*b.current, headerID)
	}

	b.popBreakable()

	b.addEdge(condID, joinID)
	b.setCurrent(joinID)
}

func (b *builder) buildSwitch(n *ir.Node) {
	condID := b.newNode(KindCondition)
	b.addEdge(*b.current, condID)

	joinID := b.newNode(KindJoin)

	caseIDs := make([]int, len(n.Cases))
	for i := range n.Cases {
		caseIDs[i] = b.newNode(KindStatement)
		b.addEdge(condID, caseIDs[i])
	}

	b.pushBreakable(breakable{label: n.Label, breakTarget: joinID, isLoop: false})

	for i, c := range n.Cases {
		b.setCurrent(caseIDs[i])
		b.block(c.Body)

		if b.current == nil {
			continue
		}

		if c.FallThrough && i+1 < len(caseIDs) {
			b.addEdge(*b.current, caseIDs[i+1])
		} else {
			b.addEdge(*b.current, joinID)
		}
	}

	b.popBreakable()

	// No-arm-matched path.
	b.addEdge(condID, joinID)
	b.setCurrent(joinID)
}

func (b *builder) buildTry(n *ir.Node) {
	tryEntry := b.newNode(KindStatement)
	b.addEdge(*b.current, tryEntry)

	b.setCurrent(tryEntry)
	b.block(n.Try)

	var exitPoints []int

	if b.current != nil {
		exitPoints = append(exitPoints, *b.current)
	}

	for _, c := range n.Catches {
		catchEntry := b.newNode(KindStatement)
		b.addEdge(tryEntry, catchEntry)

		b.setCurrent(catchEntry)
		b.block(c.Body)

		if b.current != nil {
			exitPoints = append(exitPoints, *b.current)
		}
	}

	joinID := b.newNode(KindJoin)

	switch {
	case n.Finally != nil && len(exitPoints) > 0:
		finallyEntry := b.newNode(KindStatement)
		for _, p := range exitPoints {
			b.addEdge(p, finallyEntry)
		}

		b.setCurrent(finallyEntry)
		b.block(n.Finally)

		if b.current != nil {
			b.addEdge(*b.current, joinID)
			b.setCurrent(joinID)
		} else {
			b.current = nil
		}
	case n.Finally == nil && len(exitPoints) > 0:
		for _, p := range exitPoints {
			b.addEdge(p, joinID)
		}

		b.setCurrent(joinID)
	default:
		b.current = nil
	}
}

func (b *builder) pushBreakable(f breakable) {
	b.breakables = append(b.breakables, f)
}

func (b *builder) popBreakable() {
	b.breakables = b.breakables[:len(b.breakables)-1]
}

func (b *builder) resolveBreak(label string) *int {
	for i := len(b.breakables) - 1; i >= 0; i-- {
		f := b.breakables[i]

		if label == "" || f.label == label {
			target := f.breakTarget

			return &target
		}
	}

	return nil
}

func (b *builder) resolveContinue(label string) *int {
	for i := len(b.breakables) - 1; i >= 0; i-- {
		f := b.breakables[i]

		if !f.isLoop && label == "" {
			continue // Unlabeled continue skips the innermost non-loop (switch).
		}

		if label == "" || f.label == label {
			if !f.isLoop {
				continue
			}

			target := f.continueTarget

			return &target
		}
	}

	return nil
}
