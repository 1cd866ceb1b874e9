package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sourcelens/semcode/internal/domain"
)

// TestFuse_WeightedSumAndMissingSideIsZero exercises §4.4 steps 4-5
// directly: per-candidate-set min-max normalization and the weighted
// sum with a zero contribution from whichever side lacks the id.
func TestFuse_WeightedSumAndMissingSideIsZero(t *testing.T) {
	lex := []lexicalHit{{chunkID: "a", score: 4}, {chunkID: "b", score: 2}}
	sem := []domain.ScoredRecord{{ChunkID: "a", Score: 0.5}, {ChunkID: "c", Score: 1.0}}

	out := fuse(lex, sem, 0.5)
	byID := make(map[string]fusedCandidate, len(out))
	for _, c := range out {
		byID[c.chunkID] = c
	}

	// "a" appears in both: norm_lex=1 (max of lex set), norm_sem=0 (min of sem set).
	assert.InDelta(t, 0.5*1+0.5*0, byID["a"].fused, 1e-9)
	// "b" is lexical-only: norm_lex=0 (min of lex set), semantic side contributes zero.
	assert.InDelta(t, 0.5*0+0.5*0, byID["b"].fused, 1e-9)
	// "c" is semantic-only: norm_sem=1 (max of sem set), lexical side contributes zero.
	assert.InDelta(t, 0.5*0+0.5*1, byID["c"].fused, 1e-9)
}

// TestFuse_TieBreakChain verifies the documented tie-break order: equal
// fused scores resolve by higher normalized semantic score, then by
// higher raw BM25, then lexicographically by id.
func TestFuse_TieBreakChain(t *testing.T) {
	lex := []lexicalHit{{chunkID: "x", score: 10}, {chunkID: "y", score: 5}}
	sem := []domain.ScoredRecord{{ChunkID: "x", Score: 1}, {ChunkID: "y", Score: 1}}

	// lexical_weight=0 makes both candidates' fused score identical (both
	// normalize to norm_sem=1 under a flat semantic set), so the raw-BM25
	// tie-break must pick "x" first.
	out := fuse(lex, sem, 0)
	assert.Equal(t, []string{"x", "y"}, []string{out[0].chunkID, out[1].chunkID})
}

func TestFuse_EmptyCandidateSetsYieldNoResults(t *testing.T) {
	out := fuse(nil, nil, 0.5)
	assert.Empty(t, out)
}
