// Package domain holds the core entities of the semantic code-search
// engine (§3 of the specification): chunks, embeddings, vector records,
// collections, fingerprints, checkpoints and search results. Types here
// carry no behavior beyond small invariant checks — the subsystems in
// sibling packages own the algorithms that produce and consume them.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ChunkKind labels the syntactic role a CodeChunk plays in its source file.
type ChunkKind string

const (
	ChunkKindFunction ChunkKind = "function"
	ChunkKindClass    ChunkKind = "class"
	ChunkKindMethod   ChunkKind = "method"
	ChunkKindBlock    ChunkKind = "block"
	ChunkKindText     ChunkKind = "text"
)

// CodeChunk is the unit of indexed text described in §3.
type CodeChunk struct {
	ID          string
	FilePath    string
	ByteStart   int
	ByteEnd     int
	StartLine   int
	EndLine     int
	Language    string
	Content     string
	Symbol      string
	Kind        ChunkKind
	Metadata    map[string]string
}

// Validate enforces the line/offset invariants from §3.
func (c *CodeChunk) Validate() error {
	if c.StartLine < 1 {
		return fmt.Errorf("chunk %s: start_line must be >= 1, got %d", c.FilePath, c.StartLine)
	}
	if c.EndLine < c.StartLine {
		return fmt.Errorf("chunk %s: end_line (%d) must be >= start_line (%d)", c.FilePath, c.EndLine, c.StartLine)
	}
	if c.ByteEnd < c.ByteStart {
		return fmt.Errorf("chunk %s: byte_end (%d) must be >= byte_start (%d)", c.FilePath, c.ByteEnd, c.ByteStart)
	}
	return nil
}

// NormalizeContent applies the whitespace normalization chosen for
// content-hash ids: trim trailing whitespace per line, LF newlines.
// See the "Open questions" note in §9 / DESIGN.md for why this choice.
func NormalizeContent(content string) string {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

// ComputeChunkID derives the stable content-hash id required by §3's
// invariant: identical (content, language, start_line, end_line) always
// yields the same id; any difference changes it with overwhelming
// probability.
func ComputeChunkID(content, language string, startLine, endLine int) string {
	normalized := NormalizeContent(content)
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00%d", normalized, language, startLine, endLine)
	return hex.EncodeToString(h.Sum(nil))
}

// AssignID computes and stores the chunk's id in place.
func (c *CodeChunk) AssignID() {
	c.ID = ComputeChunkID(c.Content, c.Language, c.StartLine, c.EndLine)
}
