package config

import "fmt"

var validStrategies = map[string]bool{
	"priority":      true,
	"fastest":       true,
	"cheapest":      true,
	"load_balanced": true,
	"contextual":    true,
}

// Validate enforces the documented bounds on the recognized-option
// schema, grounded on the teacher's loader.go calling Validate(cfg)
// after Unmarshal.
func Validate(cfg *Config) error {
	if cfg.Chunking.MaxChunkChars <= 0 {
		return fmt.Errorf("chunking.max_chunk_chars must be positive")
	}
	if cfg.Chunking.MinChunkChars < 0 || cfg.Chunking.MinChunkChars > cfg.Chunking.MaxChunkChars {
		return fmt.Errorf("chunking.min_chunk_chars must be between 0 and max_chunk_chars")
	}
	if cfg.Chunking.OverlapLines < 0 {
		return fmt.Errorf("chunking.overlap_lines must not be negative")
	}
	if !validStrategies[cfg.Routing.Strategy] {
		return fmt.Errorf("routing.strategy %q is not one of priority|fastest|cheapest|load_balanced|contextual", cfg.Routing.Strategy)
	}
	if cfg.Routing.MaxAttempts <= 0 {
		return fmt.Errorf("routing.max_attempts must be positive")
	}
	if cfg.Circuit.FailureThreshold <= 0 {
		return fmt.Errorf("circuit.failure_threshold must be positive")
	}
	if cfg.Circuit.SuccessThreshold <= 0 {
		return fmt.Errorf("circuit.success_threshold must be positive")
	}
	if cfg.Search.DefaultLexicalWeight < 0 || cfg.Search.DefaultLexicalWeight > 1 {
		return fmt.Errorf("search.default_lexical_weight must be between 0 and 1")
	}
	if cfg.Search.CandidateMultiplier <= 0 {
		return fmt.Errorf("search.candidate_multiplier must be positive")
	}
	if cfg.Search.MinCandidates <= 0 {
		return fmt.Errorf("search.min_candidates must be positive")
	}
	if cfg.Indexing.EmbeddingBatchSize <= 0 {
		return fmt.Errorf("indexing.embedding_batch_size must be positive")
	}
	if cfg.Indexing.VectorBatchSize <= 0 {
		return fmt.Errorf("indexing.vector_batch_size must be positive")
	}
	return nil
}
