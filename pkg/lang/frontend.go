// Package lang provides tree-sitter-backed language frontends: parsing,
// function discovery, and lowering of function bodies into pkg/ir. Every
// frontend implements the same narrow contract so the rest of the
// pipeline never branches on language after this package has returned.
package lang

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Stephen-Collins-tech/hotspots/pkg/ir"
)

// ErrNoFrontend is returned when no frontend is registered for a file
// extension.
var ErrNoFrontend = errors.New("no language frontend for extension")

// ParseError reports a file that tree-sitter could not recover from. It
// is scoped to a single file and never aborts a run.
type ParseError struct {
	File       string
	Diagnostic string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %s", e.File, e.Diagnostic)
}

// Frontend parses one language and discovers its functions.
type Frontend interface {
	// Language is the tag stamped onto every Function this frontend
	// produces ("go", "typescript", "tsx", "javascript", "java", "python",
	// "rust").
	Language() string

	// Parse parses source bytes for filename, discovers every function
	// (top-level, method, nested, closure, constructor), and lowers each
	// into the statement IR. Functions are returned sorted by byte-span
	// start, per the discovery contract.
	Parse(ctx context.Context, relFile string, source []byte) ([]*ir.Function, error)
}

// Registry resolves a Frontend by file extension.
type Registry struct {
	byExt map[string]Frontend
}

// NewRegistry builds the registry of frontends for the six supported
// languages.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Frontend)}

	register := func(f Frontend, exts ...string) {
		for _, e := range exts {
			r.byExt[e] = f
		}
	}

	register(newTreeSitterFrontend("go", goSpec, goLanguage), ".go")
	register(newTreeSitterFrontend("typescript", tsSpec, typescriptLanguage), ".ts", ".mts", ".cts")
	register(newTreeSitterFrontend("tsx", tsxSpec, tsxLanguage), ".tsx")
	register(newTreeSitterFrontend("javascript", tsSpec, javascriptLanguage), ".js", ".mjs", ".cjs", ".jsx")
	register(newTreeSitterFrontend("java", javaSpec, javaLanguage), ".java")
	register(newTreeSitterFrontend("python", pythonSpec, pythonLanguage), ".py")
	register(newTreeSitterFrontend("rust", rustSpec, rustLanguage), ".rs")

	return r
}

// Lookup returns the frontend registered for filename's extension.
func (r *Registry) Lookup(filename string) (Frontend, bool) {
	ext := strings.ToLower(path.Ext(filename))

	f, ok := r.byExt[ext]

	return f, ok
}

// Supported reports whether filename has a registered frontend.
func (r *Registry) Supported(filename string) bool {
	_, ok := r.Lookup(filename)

	return ok
}

// treeSitterFrontend implements Frontend over a single tree-sitter
// grammar plus a language-specific node-kind spec table.
type treeSitterFrontend struct {
	lang     string
	spec     *langSpec
	language func() *sitter.Language
}

func newTreeSitterFrontend(lang string, spec *langSpec, language func() *sitter.Language) *treeSitterFrontend {
	return &treeSitterFrontend{lang: lang, spec: spec, language: language}
}

func (f *treeSitterFrontend) Language() string { return f.lang }

func (f *treeSitterFrontend) Parse(ctx context.Context, relFile string, source []byte) ([]*ir.Function, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(f.language())

	tree, err := parser.ParseString(ctx, nil, source)
	if err != nil {
		return nil, &ParseError{File: relFile, Diagnostic: err.Error()}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, &ParseError{File: relFile, Diagnostic: "empty parse tree"}
	}

	spans := discoverFunctions(root, source, f.spec)

	sort.Slice(spans.nodes, func(i, j int) bool {
		return spans.nodes[i].node.StartByte() < spans.nodes[j].node.StartByte()
	})

	funcs := make([]*ir.Function, 0, len(spans.nodes))
	anon := 0

	for _, fn := range spans.nodes {
		name := fn.name
		if name == "" {
			anon++
			name = "<anonymous>"
		}

		body := lowerBody(fn.bodyNode, source, f.spec)
		start := fn.node.StartPoint()
		end := fn.node.EndPoint()

		funcs = append(funcs, &ir.Function{
			ID:                relFile + "::" + name,
			Name:              fn.name,
			File:              relFile,
			Language:          f.lang,
			StartLine:         int(start.Row) + 1,
			EndLine:           int(end.Row) + 1,
			Body:              body,
			SuppressionReason: fn.suppressionReason,
		})
	}

	return funcs, nil
}
