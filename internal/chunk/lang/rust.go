package lang

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"

	"github.com/sourcelens/semcode/internal/domain"
)

// NewRust returns the Rust chunking strategy.
func NewRust() *treeSitterStrategy {
	return &treeSitterStrategy{
		language: sitter.NewLanguage(rust.Language()),
		lang:     "rust",
		boundaryKind: map[string]domain.ChunkKind{
			"struct_item":     domain.ChunkKindClass,
			"enum_item":       domain.ChunkKindClass,
			"trait_item":      domain.ChunkKindClass,
			"impl_item":       domain.ChunkKindClass,
			"mod_item":        domain.ChunkKindBlock,
			"function_item":   domain.ChunkKindFunction,
		},
		containerKinds: map[string]bool{
			"impl_item": true,
			"trait_item": true,
			"mod_item":  true,
		},
		attachComments: true,
	}
}
