package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBM25Index_EmptyIndexReturnsNoHits(t *testing.T) {
	idx := newBM25Index()
	assert.True(t, idx.Empty())
	assert.Nil(t, idx.Search([]string{"foo"}, 10))
}

func TestBM25Index_ExactTermMatchRanksAboveNonMatch(t *testing.T) {
	idx := newBM25Index()
	idx.Add("a", "def foo(): return 1")
	idx.Add("b", "def bar(): return 2")
	assert.False(t, idx.Empty())

	hits := idx.Search([]string{"foo"}, 10)
	require.NotEmpty(t, hits)
	assert.Equal(t, "a", hits[0].chunkID)
}

func TestBM25Index_ReindexingReplacesPriorContent(t *testing.T) {
	idx := newBM25Index()
	idx.Add("a", "alpha beta")
	idx.Add("a", "gamma delta")

	assert.Empty(t, idx.Search([]string{"alpha"}, 10))
	hits := idx.Search([]string{"gamma"}, 10)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].chunkID)
}

func TestBM25Index_RemoveIsIdempotentAndPrunesEmptyPostings(t *testing.T) {
	idx := newBM25Index()
	idx.Add("a", "unique_token")
	idx.Remove("a")
	idx.Remove("a") // idempotent

	assert.True(t, idx.Empty())
	assert.Empty(t, idx.Search([]string{"unique_token"}, 10))
}

func TestBM25Index_CandidateLimitTruncates(t *testing.T) {
	idx := newBM25Index()
	for _, id := range []string{"a", "b", "c", "d"} {
		idx.Add(id, "shared term")
	}
	hits := idx.Search([]string{"shared"}, 2)
	assert.Len(t, hits, 2)
}
