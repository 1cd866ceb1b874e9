package lang

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"

	"github.com/sourcelens/semcode/internal/domain"
)

// NewRuby returns the Ruby chunking strategy.
func NewRuby() *treeSitterStrategy {
	return &treeSitterStrategy{
		language: sitter.NewLanguage(ruby.Language()),
		lang:     "ruby",
		boundaryKind: map[string]domain.ChunkKind{
			"class":  domain.ChunkKindClass,
			"module": domain.ChunkKindClass,
			"method": domain.ChunkKindFunction,
		},
		containerKinds: map[string]bool{
			"class":  true,
			"module": true,
		},
		attachComments: true,
	}
}
