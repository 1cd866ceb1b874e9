package vectorstore

import (
	"context"
	"strings"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/sourcelens/semcode/internal/cerr"
	"github.com/sourcelens/semcode/internal/domain"
)

// ChromemStore is a VectorStoreProvider backed by an embedded
// philippgille/chromem-go database, grounded on the teacher's
// internal/mcp/chromem_searcher.go (CreateCollection + AddDocument +
// QueryEmbedding idiom, RWMutex-guarded collection handle for
// concurrent reload-safe queries).
type ChromemStore struct {
	mu          sync.RWMutex
	db          *chromem.DB
	collections map[string]*chromemCollection
}

type chromemCollection struct {
	dimension int
	handle    *chromem.Collection
}

// NewChromemStore returns a store backed by a fresh in-memory chromem-go
// database (chromem-go persists to disk only if NewPersistentDB is used
// instead; the engine opts for the in-memory variant since
// internal/indexing owns durability via the checkpoint file).
func NewChromemStore() *ChromemStore {
	return &ChromemStore{
		db:          chromem.NewDB(),
		collections: make(map[string]*chromemCollection),
	}
}

// Probe is the §4.2 liveness check: confirms the embedded chromem-go
// database handle this store was constructed with is still there.
func (s *ChromemStore) Probe(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return cerr.New(cerr.NetworkError, "probe", "chromem database not initialized")
	}
	return nil
}

func (s *ChromemStore) EnsureCollection(ctx context.Context, name string, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[name]; ok {
		if c.dimension != dimension {
			return cerr.New(cerr.Incompatible, "ensure_collection", "collection exists with a different dimension").WithPath(name)
		}
		return nil
	}
	handle, err := s.db.CreateCollection(name, nil, nil)
	if err != nil {
		return cerr.Wrap(cerr.IoError, "ensure_collection", "failed to create chromem collection", err).WithPath(name)
	}
	s.collections[name] = &chromemCollection{dimension: dimension, handle: handle}
	return nil
}

func (s *ChromemStore) collectionFor(name string) (*chromemCollection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, cerr.New(cerr.NotFound, "vectorstore", "collection not found").WithPath(name)
	}
	return c, nil
}

func (s *ChromemStore) Upsert(ctx context.Context, collection string, records []domain.VectorRecord) error {
	c, err := s.collectionFor(collection)
	if err != nil {
		return err
	}
	for _, r := range records {
		if len(r.Vector) != c.dimension {
			return cerr.New(cerr.Incompatible, "upsert", "vector dimension mismatch").WithPath(collection)
		}
		metadata := make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			metadata[k] = v
		}
		doc := chromem.Document{ID: r.ChunkID, Embedding: r.Vector, Metadata: metadata}
		if err := c.handle.AddDocument(ctx, doc); err != nil {
			return cerr.Wrap(cerr.IoError, "upsert", "chromem add document failed", err).WithPath(collection)
		}
	}
	return nil
}

func (s *ChromemStore) Delete(ctx context.Context, collection string, ids []string) error {
	c, err := s.collectionFor(collection)
	if err != nil {
		return nil // absent collection on delete is not an error, mirroring absent-id idempotency
	}
	for _, id := range ids {
		_ = c.handle.Delete(ctx, nil, nil, id) // idempotent: chromem-go no-ops on a missing id
	}
	return nil
}

func (s *ChromemStore) Search(ctx context.Context, collection string, query []float32, k int, filter *Filter) ([]domain.ScoredRecord, error) {
	c, err := s.collectionFor(collection)
	if err != nil {
		return nil, err
	}
	where := map[string]string{}
	if filter != nil && filter.Language != "" {
		where["language"] = filter.Language
	}

	n := k
	if n <= 0 {
		n = 1
	}
	if c.handle.Count() < n {
		n = c.handle.Count()
	}
	if n == 0 {
		return nil, nil
	}

	docs, err := c.handle.QueryEmbedding(ctx, query, n, where, nil)
	if err != nil {
		return nil, cerr.Wrap(cerr.IoError, "search", "chromem query failed", err).WithPath(collection)
	}

	out := make([]domain.ScoredRecord, 0, len(docs))
	for _, d := range docs {
		if filter != nil && filter.PathPrefix != "" && !strings.HasPrefix(d.Metadata["path"], filter.PathPrefix) {
			continue
		}
		out = append(out, domain.ScoredRecord{
			ChunkID:  d.ID,
			Score:    float64(d.Similarity),
			Metadata: d.Metadata,
		})
	}
	return out, nil
}

func (s *ChromemStore) Stats(ctx context.Context, collection string) (domain.Collection, error) {
	c, err := s.collectionFor(collection)
	if err != nil {
		return domain.Collection{}, err
	}
	return domain.Collection{Name: collection, Dimension: c.dimension, Count: c.handle.Count()}, nil
}

func (s *ChromemStore) Clear(ctx context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		return nil
	}
	if err := s.db.DeleteCollection(collection); err != nil {
		return cerr.Wrap(cerr.IoError, "clear", "failed to delete chromem collection", err).WithPath(collection)
	}
	handle, err := s.db.CreateCollection(collection, nil, nil)
	if err != nil {
		return cerr.Wrap(cerr.IoError, "clear", "failed to recreate chromem collection", err).WithPath(collection)
	}
	c.handle = handle
	return nil
}
