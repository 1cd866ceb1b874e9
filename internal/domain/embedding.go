package domain

import "fmt"

// Embedding is the dense vector representation of a CodeChunk (§3).
type Embedding struct {
	ChunkID   string
	Vector    []float32
	Model     string
	Dimension int
}

// Validate checks that the vector's length matches the declared dimension.
func (e *Embedding) Validate() error {
	if len(e.Vector) != e.Dimension {
		return fmt.Errorf("embedding for chunk %s: vector length %d does not match declared dimension %d", e.ChunkID, len(e.Vector), e.Dimension)
	}
	return nil
}
