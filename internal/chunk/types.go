// Package chunk implements the ChunkingEngine of §4.1: syntax-aware
// splitting of source files into CodeChunks, one Strategy per language
// plus a generic fallback, generalized from the teacher's per-language
// tree-sitter symbol extractors (internal/indexer/parsers/*.go in the
// pack) into full semantic-boundary chunking with size-limit splitting,
// small-node coalescing and line-based overlap.
package chunk

import "github.com/sourcelens/semcode/internal/domain"

// Boundary is a single semantic-boundary node a Strategy has identified:
// a function, class, method, or top-level statement group (§4.1 step 3).
type Boundary struct {
	ByteStart int
	ByteEnd   int
	StartLine int
	EndLine   int
	Kind      domain.ChunkKind
	Symbol    string
	// Descend is true for container nodes (class/struct/interface/enum/
	// trait) that should be emitted both as a chunk AND recursed into for
	// member boundaries, per §4.1 step 3.
	Descend bool
}

// Strategy produces the ordered, top-down boundary list for one
// language. Implementations must not suspend (§5: "Chunking is
// non-suspending").
type Strategy interface {
	// Language is the tag this strategy registers under.
	Language() string
	// Boundaries walks the parsed source and returns semantic boundary
	// nodes in source order. A nil/empty result with no error means "no
	// recognized boundaries" — the caller falls back to treating the
	// whole file as one module-level region.
	Boundaries(content []byte) ([]Boundary, error)
	// AttachesLeadingComments reports whether doc comments/docstrings
	// immediately preceding a boundary belong with it (§4.1 registry).
	// The Engine does not read this value: a strategy that attaches
	// comments does so in its own Boundaries (the Go strategy starts a
	// boundary at its doc comment); the tree-sitter strategies report
	// true but leave preceding comments outside the boundary.
	AttachesLeadingComments() bool
}

// extensionSet maps file extensions (including the leading dot) to a
// language tag, the shape of the registry's extensionLanguage table.
type extensionSet = map[string]string
