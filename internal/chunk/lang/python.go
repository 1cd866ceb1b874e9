package lang

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/sourcelens/semcode/internal/domain"
)

// NewPython returns the Python chunking strategy.
func NewPython() *treeSitterStrategy {
	return &treeSitterStrategy{
		language: sitter.NewLanguage(python.Language()),
		lang:     "python",
		boundaryKind: map[string]domain.ChunkKind{
			"class_definition":    domain.ChunkKindClass,
			"function_definition": domain.ChunkKindFunction,
		},
		containerKinds: map[string]bool{"class_definition": true},
		attachComments: true,
	}
}
