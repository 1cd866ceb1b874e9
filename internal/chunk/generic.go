package chunk

import (
	"bytes"

	"github.com/sourcelens/semcode/internal/domain"
)

// genericStrategy implements the generic fallback of §4.1: paragraph-
// aware splitting at blank lines. It is not registered in the Registry;
// the Engine uses it directly when no Strategy exists for a file's
// language and as the recovery path when a real Strategy returns an error.
type genericStrategy struct{}

func (genericStrategy) Language() string { return "generic" }

func (genericStrategy) AttachesLeadingComments() bool { return false }

func (genericStrategy) Boundaries(content []byte) ([]Boundary, error) {
	var out []Boundary
	lines := bytes.Split(content, []byte("\n"))

	lineOffsets := make([]int, len(lines)+1)
	offset := 0
	for i, l := range lines {
		lineOffsets[i] = offset
		offset += len(l) + 1
	}
	lineOffsets[len(lines)] = offset

	start := -1
	for i, l := range lines {
		blank := len(bytes.TrimSpace(l)) == 0
		if !blank && start == -1 {
			start = i
		}
		if blank && start != -1 {
			out = append(out, Boundary{
				ByteStart: lineOffsets[start],
				ByteEnd:   lineOffsets[i],
				StartLine: start + 1,
				EndLine:   i,
				Kind:      domain.ChunkKindText,
			})
			start = -1
		}
	}
	if start != -1 {
		out = append(out, Boundary{
			ByteStart: lineOffsets[start],
			ByteEnd:   len(content),
			StartLine: start + 1,
			EndLine:   len(lines),
			Kind:      domain.ChunkKindText,
		})
	}
	return out, nil
}
