// Package search implements the hybrid lexical+semantic search engine
// of §4.4: a hand-rolled BM25 inverted index fused with cosine-similarity
// vector search retrieved through the two provider routers, following
// the teacher's construct-leaves-then-compose wiring style (see
// internal/engine for the composition root that owns this package).
package search

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/sourcelens/semcode/internal/cerr"
	"github.com/sourcelens/semcode/internal/chunk"
	"github.com/sourcelens/semcode/internal/domain"
	"github.com/sourcelens/semcode/internal/provider/embedding"
	"github.com/sourcelens/semcode/internal/provider/vectorstore"
	"github.com/sourcelens/semcode/internal/routing"
)

// Defaults for the candidate retrieval and fusion weighting described in
// §4.4 and §6 (search.default_lexical_weight, search.candidate_multiplier,
// search.min_candidates).
const (
	DefaultLexicalWeight = 0.3
	CandidateMultiplier  = 3
	MinCandidates        = 30

	// unsetLexicalWeight is the Options sentinel meaning "caller did not
	// specify a weight, use DefaultLexicalWeight" — 0 is itself a valid,
	// distinct weight (pure semantic) so the zero value can't double as
	// "unset".
	unsetLexicalWeight = -1
)

// Options configures one Search call, implementing the "options" term of
// §4.4's search(collection, query, k, options) signature.
type Options struct {
	LexicalWeight float64 // in [0,1]; unsetLexicalWeight (-1) selects DefaultLexicalWeight
	Language      string
	PathPrefix    string

	// CandidateMultiplier and MinCandidates size the per-index candidate
	// retrieval (kCandidate = max(k*CandidateMultiplier, MinCandidates)),
	// configurable via search.candidate_multiplier/min_candidates (§6).
	// Zero selects the package default for each.
	CandidateMultiplier int
	MinCandidates       int
}

// DefaultOptions returns options with the default fusion weight, the
// default candidate sizing, and no filters.
func DefaultOptions() Options {
	return Options{LexicalWeight: unsetLexicalWeight}
}

func (o Options) resolvedWeight() float64 {
	if o.LexicalWeight < 0 {
		return DefaultLexicalWeight
	}
	return o.LexicalWeight
}

func (o Options) resolvedCandidateMultiplier() int {
	if o.CandidateMultiplier <= 0 {
		return CandidateMultiplier
	}
	return o.CandidateMultiplier
}

func (o Options) resolvedMinCandidates() int {
	if o.MinCandidates <= 0 {
		return MinCandidates
	}
	return o.MinCandidates
}

func (o Options) filter() *vectorstore.Filter {
	if o.Language == "" && o.PathPrefix == "" {
		return nil
	}
	return &vectorstore.Filter{Language: o.Language, PathPrefix: o.PathPrefix}
}

// collectionIndex bundles one collection's lexical index and chunk
// lookup table; the vector data itself lives in the VectorStoreProvider.
type collectionIndex struct {
	lexical *bm25Index
	chunks  map[string]*domain.CodeChunk
}

// Engine is the SearchEngine of §3/§4.4: it owns the lexical index and
// chunk registry for every collection, and drives the embedding and
// vector-store routers to produce fused results.
type Engine struct {
	mu          sync.RWMutex
	collections map[string]*collectionIndex

	embeddingRouter   *routing.Router[embedding.Provider]
	vectorstoreRouter *routing.Router[vectorstore.Provider]
}

// NewEngine constructs a search Engine over the two provider routers the
// composition root builds (internal/engine).
func NewEngine(embeddingRouter *routing.Router[embedding.Provider], vectorstoreRouter *routing.Router[vectorstore.Provider]) *Engine {
	return &Engine{
		collections:       make(map[string]*collectionIndex),
		embeddingRouter:   embeddingRouter,
		vectorstoreRouter: vectorstoreRouter,
	}
}

func (e *Engine) collectionFor(name string, create bool) (*collectionIndex, bool) {
	e.mu.RLock()
	c, ok := e.collections[name]
	e.mu.RUnlock()
	if ok || !create {
		return c, ok
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok = e.collections[name]; ok {
		return c, true
	}
	c = &collectionIndex{lexical: newBM25Index(), chunks: make(map[string]*domain.CodeChunk)}
	e.collections[name] = c
	return c, true
}

// EnsureCollection registers an (initially empty) lexical index for a
// collection, called by the indexing coordinator alongside the vector
// store's own EnsureCollection.
func (e *Engine) EnsureCollection(name string) {
	e.collectionFor(name, true)
}

// IndexChunk adds or replaces one chunk in the collection's lexical
// index and chunk registry. The indexing coordinator calls this after
// the chunk's vector has been upserted into the vector store.
func (e *Engine) IndexChunk(collection string, c *domain.CodeChunk) {
	idx, _ := e.collectionFor(collection, true)
	e.mu.Lock()
	idx.chunks[c.ID] = c
	e.mu.Unlock()
	idx.lexical.Add(c.ID, c.Content)
}

// RemoveChunk deletes one chunk from the collection's lexical index and
// chunk registry, idempotent for absent ids.
func (e *Engine) RemoveChunk(collection, chunkID string) {
	idx, ok := e.collectionFor(collection, false)
	if !ok {
		return
	}
	idx.lexical.Remove(chunkID)
	e.mu.Lock()
	delete(idx.chunks, chunkID)
	e.mu.Unlock()
}

// ClearCollection drops a collection's entire lexical index and chunk
// registry, mirroring clear_collection's effect on the vector store.
func (e *Engine) ClearCollection(collection string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.collections, collection)
}

// chunkFor looks up a chunk by id within a collection, used after fusion
// to attach the full domain.CodeChunk to each result.
func (idx *collectionIndex) chunkFor(id string) *domain.CodeChunk {
	return idx.chunks[id]
}

// Search implements §4.4's hybrid retrieval algorithm end to end:
// independent top-k_candidate retrieval from each index, per-candidate-set
// normalization, weighted fusion, post-filtering, and truncation to k.
func (e *Engine) Search(ctx context.Context, collection, query string, k int, opts Options) ([]domain.SearchResult, bool, error) {
	if strings.TrimSpace(query) == "" {
		return nil, false, cerr.New(cerr.InvalidInput, "search", "query must not be empty").WithPath(collection)
	}
	if k <= 0 {
		k = 10
	}

	idx, ok := e.collectionFor(collection, false)
	if !ok {
		return nil, false, cerr.New(cerr.NotFound, "search", "collection not found").WithPath(collection)
	}

	weight := opts.resolvedWeight()
	kCandidate := k * opts.resolvedCandidateMultiplier()
	if minCandidates := opts.resolvedMinCandidates(); kCandidate < minCandidates {
		kCandidate = minCandidates
	}

	lexicalAvailable := !idx.lexical.Empty()
	var lexHits []lexicalHit
	if lexicalAvailable {
		lexHits = idx.lexical.Search(chunk.Tokenize(query), kCandidate)
	}

	semHits, semErr := e.semanticSearch(ctx, collection, query, kCandidate, opts)
	semanticAvailable := semErr == nil
	degraded := false

	switch {
	case !lexicalAvailable && !semanticAvailable:
		if weight >= 1 {
			// Caller asked for pure lexical search against an empty
			// lexical index: that is zero results, not a provider
			// failure.
			return nil, false, nil
		}
		return nil, false, cerr.Wrap(cerr.AllProvidersDown, "search", "no lexical index and semantic search unavailable", semErr).WithPath(collection)
	case !semanticAvailable && weight <= 0:
		return nil, false, cerr.Wrap(cerr.AllProvidersDown, "search", "semantic search required by lexical_weight=0 but unavailable", semErr).WithPath(collection)
	case !semanticAvailable:
		weight = 1 // degrade to lexical-only
		degraded = true
	case !lexicalAvailable:
		weight = 0 // degrade to semantic-only
		degraded = true
	}

	fused := fuse(lexHits, semHits, weight)

	results := make([]domain.SearchResult, 0, k)
	for _, f := range fused {
		c := idx.chunkFor(f.chunkID)
		if c == nil {
			continue
		}
		if opts.Language != "" && c.Language != opts.Language {
			continue
		}
		if opts.PathPrefix != "" && !strings.HasPrefix(c.FilePath, opts.PathPrefix) {
			continue
		}
		results = append(results, domain.SearchResult{
			ChunkID:       f.chunkID,
			Chunk:         c,
			FusedScore:    f.fused,
			LexicalScore:  f.rawLex,
			SemanticScore: f.normSem,
		})
		if len(results) == k {
			break
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].FusedScore > results[j].FusedScore })
	for i := range results {
		results[i].Rank = i + 1
	}
	return results, degraded, nil
}

func (e *Engine) semanticSearch(ctx context.Context, collection, query string, kCandidate int, opts Options) ([]domain.ScoredRecord, error) {
	vector, err := routing.Call(ctx, e.embeddingRouter, routing.CallOptions{UseCase: "interactive"},
		func(ctx context.Context, p embedding.Provider) ([]float32, routing.Usage, error) {
			v, err := p.EmbedOne(ctx, query)
			return v, routing.Usage{Units: 1, UnitType: "embedding"}, err
		})
	if err != nil {
		return nil, err
	}

	filter := opts.filter()
	return routing.Call(ctx, e.vectorstoreRouter, routing.CallOptions{UseCase: "interactive"},
		func(ctx context.Context, p vectorstore.Provider) ([]domain.ScoredRecord, routing.Usage, error) {
			hits, err := p.Search(ctx, collection, vector, kCandidate, filter)
			return hits, routing.Usage{Units: 1, UnitType: "query"}, err
		})
}
