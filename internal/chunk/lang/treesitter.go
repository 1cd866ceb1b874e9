// Package lang holds one Strategy implementation per source language,
// grounded on the teacher's internal/indexer/parsers/*.go tree walkers
// (same walkTree/ChildByFieldName/Kind idiom) but emitting chunk.Boundary
// lists for semantic-boundary splitting instead of SymbolInfo/Definition
// extraction records.
package lang

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/sourcelens/semcode/internal/chunk"
	"github.com/sourcelens/semcode/internal/domain"
)

// treeSitterStrategy is the shared tree-sitter driven Strategy base,
// generalizing the teacher's treeSitterParser.
type treeSitterStrategy struct {
	language     *sitter.Language
	lang         string
	boundaryKind map[string]domain.ChunkKind
	// containerKinds are node types walkTree should recurse into for
	// member boundaries even after emitting a chunk for them (classes,
	// structs, interfaces, impls, traits).
	containerKinds map[string]bool
	attachComments bool
}

func (s *treeSitterStrategy) Language() string { return s.lang }

func (s *treeSitterStrategy) AttachesLeadingComments() bool { return s.attachComments }

func (s *treeSitterStrategy) Boundaries(content []byte) ([]chunk.Boundary, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(s.language)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, nil
	}
	defer tree.Close()

	var out []chunk.Boundary
	s.walk(tree.RootNode(), content, &out, false)
	return out, nil
}

// walk descends the parse tree emitting one Boundary per recognized node.
// insideContainer is true once we've descended under a class/struct/impl
// node, which promotes a plain "function" boundary to a "method" one.
func (s *treeSitterStrategy) walk(node *sitter.Node, source []byte, out *[]chunk.Boundary, insideContainer bool) {
	if node == nil {
		return
	}
	childCount := int(node.ChildCount())
	kind, recognized := s.boundaryKind[node.Kind()]
	isContainer := s.containerKinds[node.Kind()]
	if recognized {
		if insideContainer && kind == domain.ChunkKindFunction {
			kind = domain.ChunkKindMethod
		}
		*out = append(*out, chunk.Boundary{
			ByteStart: int(node.StartByte()),
			ByteEnd:   int(node.EndByte()),
			StartLine: int(node.StartPosition().Row) + 1,
			EndLine:   int(node.EndPosition().Row) + 1,
			Kind:      kind,
			Symbol:    nodeName(node, source),
			Descend:   isContainer,
		})
		if !isContainer {
			return
		}
	}
	for i := 0; i < childCount; i++ {
		s.walk(node.Child(uint(i)), source, out, insideContainer || isContainer)
	}
}

func nodeName(node *sitter.Node, source []byte) string {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	return string(source[nameNode.StartByte():nameNode.EndByte()])
}
