package search

import (
	"math"
	"sort"
	"sync"

	"github.com/sourcelens/semcode/internal/chunk"
)

// bm25k1 and bm25b are the BM25 parameters mandated by §4.4.
const (
	bm25k1 = 1.2
	bm25b  = 0.75
)

// lexicalHit is one scored candidate from the BM25 index.
type lexicalHit struct {
	chunkID string
	score   float64
}

// bm25Index is the in-process lexical index of §4.4: document length per
// chunk id, an inverted index from token to postings, and corpus-level
// statistics, hand-implemented rather than delegated to bleve's own
// relevance scoring (see SPEC_FULL.md §4.4 for why).
type bm25Index struct {
	mu           sync.RWMutex
	postings     map[string]map[string]int // token -> chunkID -> term frequency
	docLength    map[string]int            // chunkID -> token count
	totalLength  int
	docCount     int
}

func newBM25Index() *bm25Index {
	return &bm25Index{
		postings:  make(map[string]map[string]int),
		docLength: make(map[string]int),
	}
}

// Add indexes one chunk's content, tokenized via the chunk package's
// identifier-aware tokenizer, the same function Search applies to the
// query text.
func (idx *bm25Index) Add(chunkID, content string) {
	tokens := chunk.Tokenize(content)
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if oldLen, exists := idx.docLength[chunkID]; exists {
		idx.removeLocked(chunkID, oldLen)
	}

	freq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freq[t]++
	}
	for t, f := range freq {
		if idx.postings[t] == nil {
			idx.postings[t] = make(map[string]int)
		}
		idx.postings[t][chunkID] = f
	}
	idx.docLength[chunkID] = len(tokens)
	idx.totalLength += len(tokens)
	idx.docCount++
}

// Remove deletes a chunk from the index, idempotent for absent ids.
func (idx *bm25Index) Remove(chunkID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	length, exists := idx.docLength[chunkID]
	if !exists {
		return
	}
	idx.removeLocked(chunkID, length)
}

func (idx *bm25Index) removeLocked(chunkID string, length int) {
	for token, docs := range idx.postings {
		if _, ok := docs[chunkID]; ok {
			delete(docs, chunkID)
			if len(docs) == 0 {
				delete(idx.postings, token)
			}
		}
	}
	delete(idx.docLength, chunkID)
	idx.totalLength -= length
	idx.docCount--
}

func (idx *bm25Index) avgDocLength() float64 {
	if idx.docCount == 0 {
		return 0
	}
	return float64(idx.totalLength) / float64(idx.docCount)
}

// Empty reports whether the index holds no documents, used by the
// engine's degraded-mode handling.
func (idx *bm25Index) Empty() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.docCount == 0
}

// Search scores every candidate document containing at least one query
// token using the Okapi BM25 formula and returns the top kCandidate
// hits, highest score first.
func (idx *bm25Index) Search(queryTokens []string, kCandidate int) []lexicalHit {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.docCount == 0 {
		return nil
	}
	avgLen := idx.avgDocLength()
	scores := make(map[string]float64)

	for _, term := range dedupe(queryTokens) {
		postings, ok := idx.postings[term]
		if !ok {
			continue
		}
		df := len(postings)
		idf := math.Log(1 + (float64(idx.docCount)-float64(df)+0.5)/(float64(df)+0.5))
		for chunkID, tf := range postings {
			dl := float64(idx.docLength[chunkID])
			denom := float64(tf) + bm25k1*(1-bm25b+bm25b*dl/maxFloat(avgLen, 1))
			scores[chunkID] += idf * (float64(tf) * (bm25k1 + 1) / denom)
		}
	}

	hits := make([]lexicalHit, 0, len(scores))
	for id, score := range scores {
		hits = append(hits, lexicalHit{chunkID: id, score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].chunkID < hits[j].chunkID
	})
	if kCandidate > 0 && len(hits) > kCandidate {
		hits = hits[:kCandidate]
	}
	return hits
}

func dedupe(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
