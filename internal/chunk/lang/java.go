package lang

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/sourcelens/semcode/internal/domain"
)

// NewJava returns the Java chunking strategy.
func NewJava() *treeSitterStrategy {
	return &treeSitterStrategy{
		language: sitter.NewLanguage(java.Language()),
		lang:     "java",
		boundaryKind: map[string]domain.ChunkKind{
			"class_declaration":     domain.ChunkKindClass,
			"interface_declaration": domain.ChunkKindClass,
			"enum_declaration":      domain.ChunkKindClass,
			"record_declaration":    domain.ChunkKindClass,
			"method_declaration":    domain.ChunkKindFunction,
			"constructor_declaration": domain.ChunkKindFunction,
		},
		containerKinds: map[string]bool{
			"class_declaration":     true,
			"interface_declaration": true,
			"enum_declaration":      true,
			"record_declaration":    true,
		},
		attachComments: true,
	}
}
