package lang

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Stephen-Collins-tech/hotspots/pkg/ir"
)

// condMarker is a placeholder condition node: the CFG builder only needs
// to know a Condition node exists at this point, never its value.
var condMarker = &ir.Node{Kind: ir.KindSimple}

// lowerBody lowers a function's body node into the statement IR. A null
// body (e.g. an interface method signature with no implementation) lowers
// to an empty block.
func lowerBody(body sitter.Node, source []byte, spec *langSpec) *ir.Node {
	if body.IsNull() {
		return &ir.Node{Kind: ir.KindBlock}
	}

	return lowerBlock(body, source, spec)
}

// lowerBlock lowers every named child of a block-shaped node into a
// KindBlock, skipping nested function bodies (their own Parse call
// handles those as independent functions).
func lowerBlock(n sitter.Node, source []byte, spec *langSpec) *ir.Node {
	start, end := n.StartPoint(), n.EndPoint()
	block := &ir.Node{Kind: ir.KindBlock, StartLine: int(start.Row) + 1, EndLine: int(end.Row) + 1}

	count := n.NamedChildCount()
	for i := uint32(0); i < count; i++ {
		child := n.NamedChild(i)
		if spec.FuncTypes[child.Type()] {
			continue // Nested functions are discovered and lowered independently.
		}

		block.Children = append(block.Children, lowerStmt(child, source, spec))
	}

	return block
}

// lowerStmt classifies a single statement node against the language
// spec's construct tables and lowers it to the matching ir.Node kind.
// Anything not recognized as control flow becomes a KindSimple leaf whose
// embedded-expression features (calls, boolean operators, ternaries,
// comprehension filters) are still scanned for the metric extractor.
func lowerStmt(n sitter.Node, source []byte, spec *langSpec) *ir.Node {
	typ := n.Type()
	line := int(n.StartPoint().Row) + 1

	switch {
	case spec.IfTypes[typ]:
		return lowerIf(n, source, spec, line)
	case spec.WhileTypes[typ]:
		return lowerWhile(n, source, spec, line)
	case spec.DoWhileTypes[typ]:
		return lowerDoWhile(n, source, spec, line)
	case spec.ForCTypes[typ]:
		return lowerForC(n, source, spec, line)
	case spec.ForInTypes[typ]:
		return lowerForIn(n, source, spec, line)
	case spec.SwitchTypes[typ]:
		return lowerSwitch(n, source, spec, line)
	case spec.ReturnTypes[typ]:
		return &ir.Node{Kind: ir.KindReturn, StartLine: line, EndLine: line}
	case spec.ThrowTypes[typ]:
		return &ir.Node{Kind: ir.KindThrow, StartLine: line, EndLine: line}
	case spec.BreakTypes[typ]:
		return &ir.Node{Kind: ir.KindBreak, Target: firstFieldText(n, spec.LabelFields, source), StartLine: line, EndLine: line}
	case spec.ContinueTypes[typ]:
		return &ir.Node{Kind: ir.KindContinue, Target: firstFieldText(n, spec.LabelFields, source), StartLine: line, EndLine: line}
	case spec.TryTypes[typ]:
		return lowerTry(n, source, spec, line)
	case spec.BlockTypes[typ]:
		return lowerBlock(n, source, spec)
	default:
		return lowerSimple(n, source, spec, line)
	}
}

func lowerBranchBody(n sitter.Node, source []byte, spec *langSpec) *ir.Node {
	if n.IsNull() {
		return &ir.Node{Kind: ir.KindBlock}
	}

	if spec.BlockTypes[n.Type()] {
		return lowerBlock(n, source, spec)
	}

	return &ir.Node{Kind: ir.KindBlock, Children: []*ir.Node{lowerStmt(n, source, spec)}}
}

func lowerIf(n sitter.Node, source []byte, spec *langSpec, line int) *ir.Node {
	then := lowerBranchBody(firstField(n, spec.BodyStmtFields), source, spec)

	var elseNode *ir.Node

	alt := firstField(n, spec.AltFields)
	if !alt.IsNull() {
		if spec.IfTypes[alt.Type()] {
			elseNode = &ir.Node{Kind: ir.KindBlock, Children: []*ir.Node{lowerStmt(alt, source, spec)}}
		} else {
			elseNode = lowerBranchBody(alt, source, spec)
		}
	}

	return &ir.Node{Kind: ir.KindIf, Cond: condMarker, Then: then, Else: elseNode, StartLine: line}
}

func lowerWhile(n sitter.Node, source []byte, spec *langSpec, line int) *ir.Node {
	body := lowerBranchBody(firstField(n, spec.BodyStmtFields), source, spec)

	return &ir.Node{Kind: ir.KindWhile, Cond: condMarker, Body: body, StartLine: line}
}

func lowerDoWhile(n sitter.Node, source []byte, spec *langSpec, line int) *ir.Node {
	body := lowerBranchBody(firstField(n, spec.BodyStmtFields), source, spec)

	return &ir.Node{Kind: ir.KindDoWhile, Cond: condMarker, Body: body, StartLine: line}
}

func lowerForC(n sitter.Node, source []byte, spec *langSpec, line int) *ir.Node {
	body := lowerBranchBody(firstField(n, spec.BodyStmtFields), source, spec)

	var initNode, updateNode *ir.Node

	if init := firstField(n, spec.InitFields); !init.IsNull() {
		initNode = lowerSimple(init, source, spec, line)
	}

	if upd := firstField(n, spec.UpdateFields); !upd.IsNull() {
		updateNode = lowerSimple(upd, source, spec, line)
	}

	return &ir.Node{Kind: ir.KindForC, Cond: condMarker, Init: initNode, Update: updateNode, Body: body, StartLine: line}
}

func lowerForIn(n sitter.Node, source []byte, spec *langSpec, line int) *ir.Node {
	body := lowerBranchBody(firstField(n, spec.BodyStmtFields), source, spec)

	return &ir.Node{Kind: ir.KindForIn, Cond: condMarker, Body: body, StartLine: line}
}

func lowerSwitch(n sitter.Node, source []byte, spec *langSpec, line int) *ir.Node {
	node := &ir.Node{Kind: ir.KindSwitch, Cond: condMarker, StartLine: line}

	var walk func(sitter.Node)

	walk = func(cur sitter.Node) {
		count := cur.NamedChildCount()
		for i := uint32(0); i < count; i++ {
			child := cur.NamedChild(i)
			if spec.CaseTypes[child.Type()] {
				body := lowerBlock(child, source, spec)
				node.Cases = append(node.Cases, ir.Case{Body: body, FallThrough: hasFallThrough(body)})

				continue
			}

			if spec.BlockTypes[child.Type()] {
				walk(child)
			}
		}
	}

	walk(n)

	return node
}

// hasFallThrough reports whether a case body falls through rather than
// ending in a terminator, matching the construction rule's "fall-through
// retained when the language permits" clause.
func hasFallThrough(body *ir.Node) bool {
	if len(body.Children) == 0 {
		return true
	}

	last := body.Children[len(body.Children)-1]

	switch last.Kind {
	case ir.KindReturn, ir.KindThrow, ir.KindBreak, ir.KindContinue:
		return false
	default:
		return true
	}
}

func lowerTry(n sitter.Node, source []byte, spec *langSpec, line int) *ir.Node {
	node := &ir.Node{Kind: ir.KindTryCatchFinally, StartLine: line}

	if body := firstField(n, spec.BodyStmtFields); !body.IsNull() {
		node.Try = lowerBranchBody(body, source, spec)
	} else {
		node.Try = &ir.Node{Kind: ir.KindBlock}
	}

	count := n.NamedChildCount()
	for i := uint32(0); i < count; i++ {
		child := n.NamedChild(i)

		switch {
		case spec.CatchTypes[child.Type()]:
			body := firstField(child, spec.BodyStmtFields)
			node.Catches = append(node.Catches, ir.Catch{Body: lowerBranchBody(body, source, spec)})
		case spec.FinallyTypes[child.Type()]:
			body := firstField(child, spec.BodyStmtFields)
			if body.IsNull() {
				body = child
			}

			node.Finally = lowerBranchBody(body, source, spec)
		}
	}

	return node
}

// lowerSimple lowers a leaf statement, scanning its expression subtree for
// the metric extractor's extra-decision-point features: calls (for fan-out),
// boolean short-circuit operators, ternaries, and comprehension filters.
func lowerSimple(n sitter.Node, source []byte, spec *langSpec, line int) *ir.Node {
	node := &ir.Node{Kind: ir.KindSimple, StartLine: line, EndLine: int(n.EndPoint().Row) + 1}

	scan(n, source, spec, node, true)

	return node
}

// scan walks n's subtree (stopping at nested function boundaries) and
// accumulates calls/boolOps/ternaries/comprehension filters onto node.
func scan(n sitter.Node, source []byte, spec *langSpec, node *ir.Node, isRoot bool) {
	typ := n.Type()

	if !isRoot && spec.FuncTypes[typ] {
		return // Nested closures are discovered independently.
	}

	if spec.CallTypes[typ] {
		node.Calls = append(node.Calls, resolveCallee(n, source, spec))
	}

	if spec.BoolOpTypes[typ] {
		node.BoolOps++
	} else if opField := n.ChildByFieldName("operator"); !opField.IsNull() && spec.BoolOpTypes[nodeText(opField, source)] {
		node.BoolOps++
	}

	if spec.TernaryTypes[typ] {
		node.Ternaries++
	}

	if spec.ComprehensionTypes[typ] {
		node.ComprehensionFilters++
	}

	count := n.NamedChildCount()
	for i := uint32(0); i < count; i++ {
		scan(n.NamedChild(i), source, spec, node, false)
	}
}

// resolveCallee normalizes a call expression's callee per the fan-out
// resolution rule in the metric extractor's contract.
func resolveCallee(n sitter.Node, source []byte, spec *langSpec) string {
	callee := firstField(n, spec.CalleeFields)
	if callee.IsNull() {
		return ir.CalleeName()
	}

	return resolveCalleeExpr(callee, source, spec)
}

func resolveCalleeExpr(n sitter.Node, source []byte, spec *langSpec) string {
	typ := n.Type()

	switch {
	case strings.Contains(typ, "identifier"):
		return ir.CalleeName(nodeText(n, source))
	case strings.Contains(typ, "member") || strings.Contains(typ, "field") || strings.Contains(typ, "attribute") || strings.Contains(typ, "selector") || strings.Contains(typ, "scoped"):
		obj := firstField(n, spec.ObjectFields)

		prop := n.ChildByFieldName("property")
		if prop.IsNull() {
			prop = n.ChildByFieldName("field")
		}

		if prop.IsNull() {
			prop = n.ChildByFieldName("name")
		}

		if obj.IsNull() || prop.IsNull() {
			return ir.CalleeName("<computed>")
		}

		objName := resolveCalleeExpr(obj, source, spec)
		if objName == "<computed>" {
			return ir.CalleeName("<computed>")
		}

		return ir.CalleeName(objName, nodeText(prop, source))
	case spec.CallTypes[typ]:
		// The member/field access's object is itself a call expression
		// (e.g. "a()" in "a().b"): resolve through to that call's own
		// callee so the chain still renders as "a.b" instead of
		// collapsing to "<computed>".
		calleeField := firstField(n, spec.CalleeFields)
		if calleeField.IsNull() {
			return ir.CalleeName("<computed>")
		}

		return resolveCalleeExpr(calleeField, source, spec)
	default:
		return ir.CalleeName("<computed>")
	}
}
