package lang

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"

	"github.com/sourcelens/semcode/internal/domain"
)

// NewPHP returns the PHP chunking strategy.
func NewPHP() *treeSitterStrategy {
	return &treeSitterStrategy{
		language: sitter.NewLanguage(php.LanguagePHP()),
		lang:     "php",
		boundaryKind: map[string]domain.ChunkKind{
			"class_declaration":     domain.ChunkKindClass,
			"interface_declaration": domain.ChunkKindClass,
			"trait_declaration":     domain.ChunkKindClass,
			"method_declaration":    domain.ChunkKindFunction,
			"function_definition":   domain.ChunkKindFunction,
		},
		containerKinds: map[string]bool{
			"class_declaration":     true,
			"interface_declaration": true,
			"trait_declaration":     true,
		},
		attachComments: true,
	}
}
