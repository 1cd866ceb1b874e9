package lang

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"

	"github.com/sourcelens/semcode/internal/domain"
)

// NewC returns the C chunking strategy. A struct_specifier is treated as
// a class-kind boundary since C has no class construct.
func NewC() *treeSitterStrategy {
	return &treeSitterStrategy{
		language: sitter.NewLanguage(c.Language()),
		lang:     "c",
		boundaryKind: map[string]domain.ChunkKind{
			"struct_specifier":    domain.ChunkKindClass,
			"enum_specifier":      domain.ChunkKindClass,
			"function_definition": domain.ChunkKindFunction,
		},
		containerKinds: map[string]bool{},
		attachComments: true,
	}
}

// NewCPP returns the C++ chunking strategy. The pack carries no
// dedicated tree-sitter-cpp grammar, so C++ reuses the C grammar: it
// parses function/struct bodies correctly for the large common subset
// and simply fails to recognize C++-only constructs (templates,
// namespaces, classes), which are not emitted as boundaries and end up
// inside the module-level block regions between recognized boundaries.
// Tagged "cpp" so file detection and reported language differ from "c".
func NewCPP() *treeSitterStrategy {
	s := NewC()
	s.lang = "cpp"
	return s
}
