package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"sync"
)

// MockProvider generates deterministic embeddings from a content hash,
// grounded on the teacher's embed.MockProvider: same hash-to-float32
// expansion, generalized to the Provider interface of §4.3 (EmbedOne/
// EmbedBatch/Dimension/Probe instead of a single batched Embed).
type MockProvider struct {
	mu         sync.Mutex
	dimension  int
	probeError error
}

// NewMockProvider creates a mock provider with the given vector dimension.
func NewMockProvider(dimension int) *MockProvider {
	return &MockProvider{dimension: dimension}
}

// SetProbeError configures the mock to fail Probe(), simulating an
// unreachable provider for router health-monitor tests.
func (p *MockProvider) SetProbeError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.probeError = err
}

func (p *MockProvider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (p *MockProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	dim := p.Dimension()
	out := make([][]float32, len(texts))
	for i, text := range texts {
		hash := sha256.Sum256([]byte(text))
		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			offset := (j * 4) % len(hash)
			val := binary.BigEndian.Uint32(hash[offset : offset+4])
			vec[j] = (float32(val)/float32(1<<32))*2.0 - 1.0
		}
		out[i] = vec
	}
	return out, nil
}

func (p *MockProvider) Dimension() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dimension
}

func (p *MockProvider) Probe(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.probeError
}
