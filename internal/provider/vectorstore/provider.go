// Package vectorstore defines the VectorStoreProvider contract of §4.3
// and ships two adapters: an in-process map-backed store for tests and
// small repos, and a philippgille/chromem-go-backed store grounded on
// the teacher's internal/mcp/chromem_searcher.go query idiom.
package vectorstore

import (
	"context"

	"github.com/sourcelens/semcode/internal/domain"
)

// Filter narrows a Search call to records matching Language and/or a
// PathPrefix, applied by the provider (native where possible, otherwise
// post-filtered).
type Filter struct {
	Language   string
	PathPrefix string
}

// Provider is the VectorStoreProvider contract of §4.3.
type Provider interface {
	EnsureCollection(ctx context.Context, name string, dimension int) error
	Upsert(ctx context.Context, collection string, records []domain.VectorRecord) error
	Delete(ctx context.Context, collection string, ids []string) error
	Search(ctx context.Context, collection string, query []float32, k int, filter *Filter) ([]domain.ScoredRecord, error)
	Stats(ctx context.Context, collection string) (domain.Collection, error)
	Clear(ctx context.Context, collection string) error
	Probe(ctx context.Context) error
}
