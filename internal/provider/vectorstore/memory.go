package vectorstore

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/sourcelens/semcode/internal/cerr"
	"github.com/sourcelens/semcode/internal/domain"
)

// MemoryStore is an in-process, map-backed VectorStoreProvider used for
// tests and as an alternative to ChromemStore, generalizing the
// teacher's chromemSearcher's RWMutex-guarded-collection-swap idiom to a
// plain Go map instead of an embedded chromem-go database.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	dimension int
	records   map[string]domain.VectorRecord
}

// NewMemoryStore returns an empty in-memory vector store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

// Probe is the §4.2 liveness check: MemoryStore has no external
// dependency to fail, so it is always healthy once constructed.
func (m *MemoryStore) Probe(ctx context.Context) error {
	return nil
}

func (m *MemoryStore) EnsureCollection(ctx context.Context, name string, dimension int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[name]
	if !ok {
		m.collections[name] = &memoryCollection{dimension: dimension, records: make(map[string]domain.VectorRecord)}
		return nil
	}
	if c.dimension != dimension {
		return cerr.New(cerr.Incompatible, "ensure_collection", "collection exists with a different dimension").WithPath(name)
	}
	return nil
}

func (m *MemoryStore) Upsert(ctx context.Context, collection string, records []domain.VectorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collection]
	if !ok {
		return cerr.New(cerr.NotFound, "upsert", "collection not found").WithPath(collection)
	}
	for _, r := range records {
		if len(r.Vector) != c.dimension {
			return cerr.New(cerr.Incompatible, "upsert", "vector dimension mismatch").WithPath(collection)
		}
		c.records[r.ChunkID] = r
	}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, collection string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collection]
	if !ok {
		return nil
	}
	for _, id := range ids {
		delete(c.records, id)
	}
	return nil
}

func (m *MemoryStore) Search(ctx context.Context, collection string, query []float32, k int, filter *Filter) ([]domain.ScoredRecord, error) {
	m.mu.RLock()
	c, ok := m.collections[collection]
	m.mu.RUnlock()
	if !ok {
		return nil, cerr.New(cerr.NotFound, "search", "collection not found").WithPath(collection)
	}

	scored := make([]domain.ScoredRecord, 0, len(c.records))
	for _, r := range c.records {
		if filter != nil {
			if filter.Language != "" && r.Metadata["language"] != filter.Language {
				continue
			}
			if filter.PathPrefix != "" && !strings.HasPrefix(r.Metadata["path"], filter.PathPrefix) {
				continue
			}
		}
		scored = append(scored, domain.ScoredRecord{
			ChunkID:  r.ChunkID,
			Score:    cosineSimilarity(query, r.Vector),
			Metadata: r.Metadata,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ChunkID < scored[j].ChunkID
	})
	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func (m *MemoryStore) Stats(ctx context.Context, collection string) (domain.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[collection]
	if !ok {
		return domain.Collection{}, cerr.New(cerr.NotFound, "stats", "collection not found").WithPath(collection)
	}
	return domain.Collection{Name: collection, Dimension: c.dimension, Count: len(c.records)}, nil
}

func (m *MemoryStore) Clear(ctx context.Context, collection string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collection]
	if !ok {
		return nil
	}
	c.records = make(map[string]domain.VectorRecord)
	return nil
}

// cosineSimilarity returns the provider-native similarity in [-1, 1]
// named by §4.3.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
