package lang

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// funcSpan is one discovered function before IR lowering.
type funcSpan struct {
	node              sitter.Node
	bodyNode          sitter.Node
	name              string
	suppressionReason *string
}

type funcSpans struct {
	nodes []funcSpan
}

// suppressionMarker is the opaque comment marker frontends recognize as a
// suppression annotation, optionally followed by ":" and a free-text
// reason. An empty reason still counts as "marker present" per the core's
// suppression contract.
const suppressionMarker = "hotspots:ignore"

// discoverFunctions walks the parse tree looking for nodes whose type is
// in spec.FuncTypes, in document order. The caller sorts the result by
// byte-span start; tree order already satisfies that for non-overlapping
// top-level walks, but nested functions can be found inside an outer
// function's subtree so an explicit sort stays necessary.
func discoverFunctions(root sitter.Node, source []byte, spec *langSpec) funcSpans {
	var out funcSpans

	var walk func(n sitter.Node)

	walk = func(n sitter.Node) {
		var prev sitter.Node

		havePrev := false
		count := n.NamedChildCount()

		for i := uint32(0); i < count; i++ {
			child := n.NamedChild(i)

			if spec.FuncTypes[child.Type()] {
				name := firstFieldText(child, spec.NameFields, source)
				body := firstField(child, spec.BodyFields)

				var suppression *string
				if havePrev {
					suppression = suppressionFromComment(prev, source)
				}

				out.nodes = append(out.nodes, funcSpan{
					node:              child,
					bodyNode:          body,
					name:              name,
					suppressionReason: suppression,
				})
			}

			walk(child)

			prev = child
			havePrev = true
		}
	}

	walk(root)

	return out
}

func firstField(n sitter.Node, fields []string) sitter.Node {
	for _, f := range fields {
		child := n.ChildByFieldName(f)
		if !child.IsNull() {
			return child
		}
	}

	return sitter.Node{}
}

func firstFieldText(n sitter.Node, fields []string, source []byte) string {
	child := firstField(n, fields)
	if child.IsNull() {
		return ""
	}

	return nodeText(child, source)
}

func nodeText(n sitter.Node, source []byte) string {
	start, end := n.StartByte(), n.EndByte()
	if end > uint(len(source)) || start > end {
		return ""
	}

	return string(source[start:end])
}

// suppressionFromComment inspects a candidate preceding sibling node; if
// it is a comment containing the suppression marker, returns a pointer to
// the trailing reason text (possibly empty). Otherwise returns nil,
// meaning "no marker" per the core's three-way suppression contract.
func suppressionFromComment(prev sitter.Node, source []byte) *string {
	if prev.IsNull() || !strings.Contains(prev.Type(), "comment") {
		return nil
	}

	text := nodeText(prev, source)

	idx := strings.Index(text, suppressionMarker)
	if idx < 0 {
		return nil
	}

	rest := text[idx+len(suppressionMarker):]
	rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), ":"))

	return &rest
}
