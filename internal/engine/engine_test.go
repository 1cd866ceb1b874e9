package engine

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcelens/semcode/internal/cerr"
	"github.com/sourcelens/semcode/internal/config"
	"github.com/sourcelens/semcode/internal/provider/vectorstore"
	"github.com/sourcelens/semcode/internal/routing"
	"github.com/sourcelens/semcode/internal/search"
)

// countingFailProvider always fails with the configured error kind,
// counting invocations so tests can assert the circuit breaker stops
// dispatching to it once open.
type countingFailProvider struct {
	mu    sync.Mutex
	calls int
	kind  cerr.Kind
}

func (p *countingFailProvider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return nil, cerr.New(p.kind, "embed", "stub failure").WithProvider("stub")
}

func (p *countingFailProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v, err := p.EmbedOne(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (p *countingFailProvider) Dimension() int { return 4 }

func (p *countingFailProvider) Probe(ctx context.Context) error {
	return cerr.New(p.kind, "probe", "stub failure")
}

func (p *countingFailProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// countingOKProvider always succeeds, counting invocations.
type countingOKProvider struct {
	mu    sync.Mutex
	calls int
}

func (p *countingOKProvider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return []float32{1, 0, 0, 0}, nil
}

func (p *countingOKProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i], _ = p.EmbedOne(ctx, texts[i])
	}
	return out, nil
}

func (p *countingOKProvider) Dimension() int { return 4 }

func (p *countingOKProvider) Probe(ctx context.Context) error { return nil }

func (p *countingOKProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// TestEngine_CircuitBreakerOpensAfterThreshold is scenario 4: a stub
// embedding provider configured to always fail with NetworkError stops
// being invoked after circuit.failure_threshold consecutive failures.
func TestEngine_CircuitBreakerOpensAfterThreshold(t *testing.T) {
	cfg := config.Default()
	cfg.Circuit.FailureThreshold = 5
	store := vectorstore.NewMemoryStore()
	stub := &countingFailProvider{kind: cerr.NetworkError}

	e := New(cfg, t.TempDir(),
		WithEmbeddingProvider("stub", stub, routing.CostProfile{}, 1),
		WithVectorstoreProvider("memory", store, routing.CostProfile{}, 1),
	)
	e.Search.EnsureCollection("repo")
	require.NoError(t, store.EnsureCollection(context.Background(), "repo", 4))

	for i := 0; i < 5; i++ {
		_, _, err := e.SearchCode(context.Background(), "repo", "foo", 10, search.Options{})
		require.Error(t, err)
	}
	require.Equal(t, 5, stub.Calls())

	_, _, err := e.SearchCode(context.Background(), "repo", "foo", 10, search.Options{})
	require.Error(t, err)
	assert.Equal(t, 5, stub.Calls(), "circuit should block the 6th dispatch without invoking the provider")
}

// TestEngine_FailoverBetweenProviders is scenario 5: the primary
// embedding provider fails with a transient error, the secondary
// succeeds, and the search call itself returns no user-visible error.
func TestEngine_FailoverBetweenProviders(t *testing.T) {
	cfg := config.Default()
	store := vectorstore.NewMemoryStore()
	primary := &countingFailProvider{kind: cerr.Timeout}
	secondary := &countingOKProvider{}

	e := New(cfg, t.TempDir(),
		WithEmbeddingProvider("primary", primary, routing.CostProfile{}, 1),
		WithEmbeddingProvider("secondary", secondary, routing.CostProfile{}, 2),
		WithVectorstoreProvider("memory", store, routing.CostProfile{}, 1),
	)
	e.Search.EnsureCollection("repo")
	require.NoError(t, store.EnsureCollection(context.Background(), "repo", 4))

	_, _, err := e.SearchCode(context.Background(), "repo", "foo", 10, search.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, primary.Calls())
	assert.Equal(t, 1, secondary.Calls())
}

// TestEngine_WiresFreshIndexAndSearch is a wiring-level check that
// New(...) produces an Engine whose Coordinator and Search agree: a
// freshly indexed file is findable through the composed Engine, not
// just through internal/indexing's own coordinator_test.go.
func TestEngine_WiresFreshIndexAndSearch(t *testing.T) {
	cfg := config.Default()
	store := vectorstore.NewMemoryStore()
	e := New(cfg, t.TempDir(), WithVectorstoreProvider("memory", store, routing.CostProfile{}, 1))

	root := t.TempDir()
	writeFile(t, root, "a.py", "def foo():\n    return 1\n")

	_, err := e.Index(context.Background(), root, "repo", e.IndexOptions(cfg))
	require.NoError(t, err)

	results, degraded, err := e.SearchCode(context.Background(), "repo", "foo", 10, search.Options{LexicalWeight: 1.0})
	require.NoError(t, err)
	assert.False(t, degraded)
	require.NotEmpty(t, results)
	assert.Equal(t, "a.py", results[0].Chunk.FilePath)
}

func writeFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	full := filepath.Join(root, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}
