package domain

// SearchResult is a transient response item produced by the hybrid
// SearchEngine (§3, §4.4).
type SearchResult struct {
	ChunkID        string
	Chunk          *CodeChunk
	FusedScore     float64
	LexicalScore   float64
	SemanticScore  float64
	Rank           int
}
