package lang

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/sourcelens/semcode/internal/domain"
)

func tsBoundaries() map[string]domain.ChunkKind {
	return map[string]domain.ChunkKind{
		"class_declaration":     domain.ChunkKindClass,
		"interface_declaration": domain.ChunkKindClass,
		"enum_declaration":      domain.ChunkKindClass,
		"function_declaration":  domain.ChunkKindFunction,
		"method_definition":     domain.ChunkKindFunction,
	}
}

// NewTypeScript returns the TypeScript chunking strategy.
func NewTypeScript() *treeSitterStrategy {
	return &treeSitterStrategy{
		language: sitter.NewLanguage(typescript.LanguageTypescript()),
		lang:     "typescript",
		boundaryKind: tsBoundaries(),
		containerKinds: map[string]bool{
			"class_declaration":     true,
			"interface_declaration": true,
			"enum_declaration":      true,
		},
		attachComments: true,
	}
}

// NewJavaScript returns the JavaScript chunking strategy. The pack ships
// no dedicated tree-sitter-javascript grammar; tree-sitter-typescript's
// grammar is a syntactic superset of JavaScript (the teacher itself
// offers no JS parser at all — TypeScript was its only ECMAScript
// grammar), so it is reused here with the same boundary set and tagged
// "javascript" for file-type reporting.
func NewJavaScript() *treeSitterStrategy {
	return &treeSitterStrategy{
		language: sitter.NewLanguage(typescript.LanguageTypescript()),
		lang:     "javascript",
		boundaryKind: tsBoundaries(),
		containerKinds: map[string]bool{
			"class_declaration":     true,
			"interface_declaration": true,
			"enum_declaration":      true,
		},
		attachComments: true,
	}
}
