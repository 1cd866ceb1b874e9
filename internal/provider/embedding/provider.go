// Package embedding defines the EmbeddingProvider contract of §4.3 and
// ships two adapters grounded on the teacher's internal/embed package:
// a hash-based MockProvider (embed/mock.go) for general testing, and a
// NullProvider implementing the exact deterministic vector formula used
// by the fresh-index scenario of §8.
package embedding

import (
	"context"

	"github.com/sourcelens/semcode/internal/cerr"
)

// Provider is the EmbeddingProvider contract of §4.3: embed_one,
// embed_batch, dimension and probe.
type Provider interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Probe(ctx context.Context) error
}

// ValidateBatch enforces the §4.3 guarantee that batch output order and
// length match the input.
func ValidateBatch(texts []string, vectors [][]float32, dimension int) error {
	if len(vectors) != len(texts) {
		return cerr.New(cerr.Incompatible, "embed_batch", "output length does not match input length")
	}
	for _, v := range vectors {
		if len(v) != dimension {
			return cerr.New(cerr.Incompatible, "embed_batch", "vector length does not match provider dimension")
		}
	}
	return nil
}
