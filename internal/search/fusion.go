package search

import (
	"sort"

	"github.com/sourcelens/semcode/internal/domain"
)

// fusedCandidate is one id's combined signal before chunk lookup.
type fusedCandidate struct {
	chunkID    string
	normLex    float64
	normSem    float64
	rawLex     float64
	fused      float64
}

// normalizeMinMaxLex rescales each hit's score to [0, 1] using min-max
// within the candidate set, per §4.4 step 4 ("not the whole corpus").
func normalizeMinMaxLex(hits []lexicalHit) map[string]float64 {
	out := make(map[string]float64, len(hits))
	if len(hits) == 0 {
		return out
	}
	min, max := hits[0].score, hits[0].score
	for _, h := range hits {
		if h.score < min {
			min = h.score
		}
		if h.score > max {
			max = h.score
		}
	}
	spread := max - min
	for _, h := range hits {
		if spread == 0 {
			out[h.chunkID] = 1
			continue
		}
		out[h.chunkID] = (h.score - min) / spread
	}
	return out
}

func normalizeMinMaxSem(hits []domain.ScoredRecord) map[string]float64 {
	out := make(map[string]float64, len(hits))
	if len(hits) == 0 {
		return out
	}
	min, max := hits[0].Score, hits[0].Score
	for _, h := range hits {
		if h.Score < min {
			min = h.Score
		}
		if h.Score > max {
			max = h.Score
		}
	}
	spread := max - min
	for _, h := range hits {
		if spread == 0 {
			out[h.ChunkID] = 1
			continue
		}
		out[h.ChunkID] = (h.Score - min) / spread
	}
	return out
}

// fuse implements §4.4 steps 4-6: per-candidate-set min-max
// normalization, weighted fusion with missing-side contribution zero,
// and the documented tie-break chain (semantic score, then raw BM25,
// then lexicographic id).
func fuse(lexHits []lexicalHit, semHits []domain.ScoredRecord, lexicalWeight float64) []fusedCandidate {
	semanticWeight := 1 - lexicalWeight
	normLex := normalizeMinMaxLex(lexHits)
	normSem := normalizeMinMaxSem(semHits)

	rawLex := make(map[string]float64, len(lexHits))
	for _, h := range lexHits {
		rawLex[h.chunkID] = h.score
	}

	ids := make(map[string]bool)
	for id := range normLex {
		ids[id] = true
	}
	for id := range normSem {
		ids[id] = true
	}

	out := make([]fusedCandidate, 0, len(ids))
	for id := range ids {
		nl := normLex[id]
		ns := normSem[id]
		out = append(out, fusedCandidate{
			chunkID: id,
			normLex: nl,
			normSem: ns,
			rawLex:  rawLex[id],
			fused:   lexicalWeight*nl + semanticWeight*ns,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.fused != b.fused {
			return a.fused > b.fused
		}
		if a.normSem != b.normSem {
			return a.normSem > b.normSem
		}
		if a.rawLex != b.rawLex {
			return a.rawLex > b.rawLex
		}
		return a.chunkID < b.chunkID
	})
	return out
}
