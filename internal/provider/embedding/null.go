package embedding

import "context"

// NullProvider implements the exact deterministic test provider named by
// §8 scenario 1: a 4-dimension vector [len%1, len%2, len%3, len%4] of the
// input text's length. It exists purely so indexing/search scenarios are
// reproducible without a real embedding backend.
type NullProvider struct{}

// NewNullProvider returns the scenario-1 deterministic provider.
func NewNullProvider() *NullProvider { return &NullProvider{} }

func (NullProvider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	n := len(text)
	return []float32{
		float32(n % 1),
		float32(n % 2),
		float32(n % 3),
		float32(n % 4),
	}, nil
}

func (p *NullProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, _ := p.EmbedOne(ctx, t)
		out[i] = v
	}
	return out, nil
}

func (NullProvider) Dimension() int { return 4 }

func (NullProvider) Probe(ctx context.Context) error { return nil }
