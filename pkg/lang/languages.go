package lang

import (
	"sync"
	"unsafe"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	golang "github.com/alexaandru/go-sitter-forest/go"
	"github.com/alexaandru/go-sitter-forest/java"
	"github.com/alexaandru/go-sitter-forest/javascript"
	"github.com/alexaandru/go-sitter-forest/python"
	"github.com/alexaandru/go-sitter-forest/rust"
	"github.com/alexaandru/go-sitter-forest/tsx"
	"github.com/alexaandru/go-sitter-forest/typescript"
)

// cachedLanguage memoizes sitter.NewLanguage(fn()) since constructing a
// *sitter.Language from the raw grammar pointer is not free and the
// grammar itself never changes within a process.
func cachedLanguage(fn func() unsafe.Pointer) func() *sitter.Language {
	var (
		once sync.Once
		lang *sitter.Language
	)

	return func() *sitter.Language {
		once.Do(func() {
			lang = sitter.NewLanguage(fn())
		})

		return lang
	}
}

var (
	goLanguage         = cachedLanguage(golang.GetLanguage)
	javaLanguage       = cachedLanguage(java.GetLanguage)
	javascriptLanguage = cachedLanguage(javascript.GetLanguage)
	pythonLanguage     = cachedLanguage(python.GetLanguage)
	rustLanguage       = cachedLanguage(rust.GetLanguage)
	tsxLanguage        = cachedLanguage(tsx.GetLanguage)
	typescriptLanguage = cachedLanguage(typescript.GetLanguage)
)
