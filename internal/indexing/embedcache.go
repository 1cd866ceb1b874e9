package indexing

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/maypok86/otter"
)

// maxEmbedCacheWeight bounds the embedding cache's approximate memory
// cost, grounded on the teacher's graph/searcher.go file cache (50MB
// weight-based LRU).
const maxEmbedCacheWeight = 50 * 1024 * 1024

// embedCache deduplicates embedding compute across chunks that share
// identical content (repeated boilerplate, copy-pasted functions, or a
// chunk re-embedded because a neighboring chunk in the same file
// changed while it did not). It is keyed by content hash rather than
// chunk id: two different chunk ids with identical content should
// share one embedding call, where keying by id never would.
type embedCache struct {
	cache otter.Cache[string, []float32]
}

// newEmbedCache builds a weight-based LRU cache, cost approximated as
// 4 bytes per float32 plus the key's length, following the teacher's
// fileCache Cost function shape in graph/searcher.go. Build only fails
// for a malformed builder configuration, which the fixed constant
// above never produces, so a failure here means this function was
// edited incorrectly.
func newEmbedCache() *embedCache {
	cache, err := otter.MustBuilder[string, []float32](maxEmbedCacheWeight).
		Cost(func(key string, value []float32) uint32 {
			return uint32(len(value)*4 + len(key))
		}).
		Build()
	if err != nil {
		panic("indexing: invalid embed cache configuration: " + err.Error())
	}
	return &embedCache{cache: cache}
}

func contentKey(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// lookup splits texts into cache hits (vectors, in input order) and the
// indices/texts that still need to be embedded.
func (ec *embedCache) lookup(texts []string) (vectors [][]float32, missIdx []int, missTexts []string) {
	vectors = make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := ec.cache.Get(contentKey(text)); ok {
			vectors[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	return vectors, missIdx, missTexts
}

// store records freshly computed vectors so later chunks with the same
// content skip the embedding call entirely.
func (ec *embedCache) store(texts []string, vectors [][]float32) {
	for i, text := range texts {
		ec.cache.Set(contentKey(text), vectors[i])
	}
}

// Close releases the cache's background eviction goroutine.
func (ec *embedCache) Close() {
	ec.cache.Close()
}
