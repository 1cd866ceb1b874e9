package lang

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/sourcelens/semcode/internal/chunk"
	"github.com/sourcelens/semcode/internal/domain"
)

// heuristicStrategy recognizes declarations by matching each line's
// leading keyword against a language-specific regexp and closing the
// boundary at the matching brace depth reaching zero again. It exists
// for languages the pack ships no tree-sitter grammar for (Swift,
// Kotlin, C#): there is no suitable third-party parser in the corpus for
// these three, so this is the one deliberately stdlib-only (regexp +
// bufio) fallback strategy besides Go's. While a declaration is open no
// further declaration is matched, so a class's methods are not emitted as
// boundaries of their own even though the class boundary has Descend set.
type heuristicStrategy struct {
	lang         string
	classRE      *regexp.Regexp
	funcRE       *regexp.Regexp
}

// NewCSharp returns the C# heuristic strategy.
func NewCSharp() chunk.Strategy {
	return &heuristicStrategy{
		lang:    "csharp",
		classRE: regexp.MustCompile(`^\s*(?:\[[^\]]*\]\s*)*(?:public|private|protected|internal|static|sealed|abstract|partial|\s)*\b(class|interface|struct|enum|record)\b\s+([A-Za-z_]\w*)`),
		funcRE:  regexp.MustCompile(`^\s*(?:\[[^\]]*\]\s*)*(?:public|private|protected|internal|static|virtual|override|async|\s)*\b[\w<>\[\],\.\s]+\s+([A-Za-z_]\w*)\s*\([^;]*\)\s*\{?\s*$`),
	}
}

// NewSwift returns the Swift heuristic strategy.
func NewSwift() chunk.Strategy {
	return &heuristicStrategy{
		lang:    "swift",
		classRE: regexp.MustCompile(`^\s*(?:public|private|internal|fileprivate|open|final|\s)*\b(class|struct|enum|protocol|extension)\b\s+([A-Za-z_]\w*)`),
		funcRE:  regexp.MustCompile(`^\s*(?:public|private|internal|fileprivate|open|static|final|mutating|\s)*\bfunc\b\s+([A-Za-z_][\w]*)`),
	}
}

// NewKotlin returns the Kotlin heuristic strategy.
func NewKotlin() chunk.Strategy {
	return &heuristicStrategy{
		lang:    "kotlin",
		classRE: regexp.MustCompile(`^\s*(?:public|private|internal|open|abstract|final|data|sealed|\s)*\b(class|interface|object)\b\s+([A-Za-z_]\w*)`),
		funcRE:  regexp.MustCompile(`^\s*(?:public|private|internal|override|open|suspend|\s)*\bfun\b\s+([A-Za-z_][\w]*)`),
	}
}

func (h *heuristicStrategy) Language() string { return h.lang }

func (h *heuristicStrategy) AttachesLeadingComments() bool { return false }

func (h *heuristicStrategy) Boundaries(content []byte) ([]chunk.Boundary, error) {
	var out []chunk.Boundary
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineOffsets := computeLineOffsets(content)

	var open *chunk.Boundary
	var depth int
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if open == nil {
			kind, symbol, isClass := h.match(line)
			if symbol != "" {
				b := chunk.Boundary{
					StartLine: lineNo,
					ByteStart: lineOffsets[lineNo-1],
					Kind:      kind,
					Symbol:    symbol,
					Descend:   isClass,
				}
				open = &b
				depth = 0
			}
		}

		if open != nil {
			depth += strings.Count(line, "{") - strings.Count(line, "}")
			if depth <= 0 && strings.ContainsAny(line, "{}") {
				end := lineNo
				open.EndLine = end
				if end < len(lineOffsets) {
					open.ByteEnd = lineOffsets[end]
				} else {
					open.ByteEnd = len(content)
				}
				out = append(out, *open)
				open = nil
			}
		}
	}
	if open != nil {
		open.EndLine = lineNo
		open.ByteEnd = len(content)
		out = append(out, *open)
	}
	return out, scanner.Err()
}

func (h *heuristicStrategy) match(line string) (domain.ChunkKind, string, bool) {
	if m := h.classRE.FindStringSubmatch(line); m != nil {
		return domain.ChunkKindClass, m[2], true
	}
	if m := h.funcRE.FindStringSubmatch(line); m != nil {
		return domain.ChunkKindFunction, m[1], false
	}
	return "", "", false
}

func computeLineOffsets(content []byte) []int {
	offsets := []int{0}
	for i, b := range content {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}
