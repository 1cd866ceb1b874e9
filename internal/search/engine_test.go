package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcelens/semcode/internal/cerr"
	"github.com/sourcelens/semcode/internal/domain"
	"github.com/sourcelens/semcode/internal/provider/embedding"
	"github.com/sourcelens/semcode/internal/provider/vectorstore"
	"github.com/sourcelens/semcode/internal/routing"
)

// reversingProvider embeds text to a 1-dimensional vector so callers can
// fully control which chunk the vector store ranks first, used to
// exercise the documented fusion formula deterministically.
type reversingProvider struct {
	vectors map[string][]float32
}

func (p *reversingProvider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	return []float32{1}, nil
}
func (p *reversingProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}
func (p *reversingProvider) Dimension() int          { return 1 }
func (p *reversingProvider) Probe(ctx context.Context) error { return nil }

func newTestEngine(t *testing.T) (*Engine, *vectorstore.MemoryStore) {
	t.Helper()
	embedRouter := routing.NewRouter[embedding.Provider](routing.DefaultOptions())
	embedRouter.Register("null", embedding.NewNullProvider(), routing.CostProfile{}, 1)

	vsRouter := routing.NewRouter[vectorstore.Provider](routing.DefaultOptions())
	store := vectorstore.NewMemoryStore()
	vsRouter.Register("memory", store, routing.CostProfile{}, 1)

	return NewEngine(embedRouter, vsRouter), store
}

func mustChunk(id, path, lang, content string, start, end int) *domain.CodeChunk {
	c := &domain.CodeChunk{FilePath: path, Language: lang, Content: content, StartLine: start, EndLine: end}
	c.ID = id
	return c
}

func TestOptions_ResolvedCandidateSizingFallsBackToPackageDefaults(t *testing.T) {
	var zero Options
	assert.Equal(t, CandidateMultiplier, zero.resolvedCandidateMultiplier())
	assert.Equal(t, MinCandidates, zero.resolvedMinCandidates())

	configured := Options{CandidateMultiplier: 5, MinCandidates: 50}
	assert.Equal(t, 5, configured.resolvedCandidateMultiplier())
	assert.Equal(t, 50, configured.resolvedMinCandidates())
}

func TestSearch_EmptyQueryFails(t *testing.T) {
	e, _ := newTestEngine(t)
	e.EnsureCollection("repo")
	_, _, err := e.Search(context.Background(), "repo", "   ", 10, DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, cerr.InvalidInput, cerr.KindOf(err))
}

func TestSearch_MissingCollectionFails(t *testing.T) {
	e, _ := newTestEngine(t)
	_, _, err := e.Search(context.Background(), "nope", "foo", 10, DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, cerr.NotFound, cerr.KindOf(err))
}

func TestSearch_PureLexicalRanksExactMatchFirst(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t)
	e.EnsureCollection("repo")
	require.NoError(t, store.EnsureCollection(ctx, "repo", 4))

	a := mustChunk("a", "a.py", "python", "def foo():\n    return 1\n", 1, 2)
	b := mustChunk("b", "b.py", "python", "def bar():\n    return 2\n", 1, 2)
	e.IndexChunk("repo", a)
	e.IndexChunk("repo", b)
	require.NoError(t, store.Upsert(ctx, "repo", []domain.VectorRecord{
		{ChunkID: "a", Vector: []float32{1, 0, 1, 0}},
		{ChunkID: "b", Vector: []float32{0, 1, 0, 1}},
	}))

	results, degraded, err := e.Search(ctx, "repo", "foo", 10, Options{LexicalWeight: 1.0})
	require.NoError(t, err)
	assert.False(t, degraded)
	require.NotEmpty(t, results)
	assert.Equal(t, "a", results[0].ChunkID)
	assert.Equal(t, 1, results[0].Rank)
}

func TestSearch_LexicalIndexEmptyDegradesToSemantic(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t)
	e.EnsureCollection("repo")
	require.NoError(t, store.EnsureCollection(ctx, "repo", 4))
	require.NoError(t, store.Upsert(ctx, "repo", []domain.VectorRecord{
		{ChunkID: "x", Vector: []float32{1, 0, 0, 0}},
	}))
	e.mu.Lock()
	e.collections["repo"].chunks["x"] = mustChunk("x", "x.py", "python", "value", 1, 1)
	e.mu.Unlock()

	results, degraded, err := e.Search(ctx, "repo", "anything", 10, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, degraded)
	require.Len(t, results, 1)
	assert.Equal(t, "x", results[0].ChunkID)
}

func TestSearch_EmbeddingDownDegradesToLexical(t *testing.T) {
	ctx := context.Background()
	embedRouter := routing.NewRouter[embedding.Provider](routing.DefaultOptions())
	// no embedding provider registered at all: every call is AllProvidersDown.
	vsRouter := routing.NewRouter[vectorstore.Provider](routing.DefaultOptions())
	store := vectorstore.NewMemoryStore()
	vsRouter.Register("memory", store, routing.CostProfile{}, 1)
	e := NewEngine(embedRouter, vsRouter)

	e.EnsureCollection("repo")
	require.NoError(t, store.EnsureCollection(ctx, "repo", 4))
	a := mustChunk("a", "a.py", "python", "def foo():\n    return 1\n", 1, 2)
	e.IndexChunk("repo", a)

	results, degraded, err := e.Search(ctx, "repo", "foo", 10, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, degraded)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ChunkID)
}

func TestSearch_BothProvidersDownFails(t *testing.T) {
	ctx := context.Background()
	embedRouter := routing.NewRouter[embedding.Provider](routing.DefaultOptions())
	vsRouter := routing.NewRouter[vectorstore.Provider](routing.DefaultOptions())
	e := NewEngine(embedRouter, vsRouter)
	e.EnsureCollection("repo")

	_, _, err := e.Search(ctx, "repo", "foo", 10, DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, cerr.AllProvidersDown, cerr.KindOf(err))
}

// TestSearch_HybridFusionDeterminism is scenario 6: BM25 ranks "the quick
// brown fox" above "quick brown fox", the stub embedding provider reverses
// that ordering, and with lexical_weight=0.5 the fused winner is decided
// by the documented weighted-sum formula with semantic-score tie-breaks.
func TestSearch_HybridFusionDeterminism(t *testing.T) {
	ctx := context.Background()
	longer := mustChunk("long", "f.go", "go", "the quick brown fox", 1, 1)
	shorter := mustChunk("short", "g.go", "go", "quick brown fox", 1, 1)

	vectors := map[string][]float32{
		"the quick brown fox": {0},
		"quick brown fox":     {1},
	}
	embedRouter := routing.NewRouter[embedding.Provider](routing.DefaultOptions())
	embedRouter.Register("rev", &reversingProvider{vectors: vectors}, routing.CostProfile{}, 1)
	vsRouter := routing.NewRouter[vectorstore.Provider](routing.DefaultOptions())
	store := vectorstore.NewMemoryStore()
	vsRouter.Register("memory", store, routing.CostProfile{}, 1)
	e := NewEngine(embedRouter, vsRouter)

	e.EnsureCollection("repo")
	require.NoError(t, store.EnsureCollection(ctx, "repo", 1))
	e.IndexChunk("repo", longer)
	e.IndexChunk("repo", shorter)
	require.NoError(t, store.Upsert(ctx, "repo", []domain.VectorRecord{
		{ChunkID: "long", Vector: vectors["the quick brown fox"]},
		{ChunkID: "short", Vector: vectors["quick brown fox"]},
	}))

	results, _, err := e.Search(ctx, "repo", "the quick brown fox", 10, Options{LexicalWeight: 0.5})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, results[0].FusedScore >= results[1].FusedScore, true)
	assert.Equal(t, "short", results[0].ChunkID)
}
