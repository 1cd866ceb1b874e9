// Package config loads the recognized-option schema of §6 into a plain
// Go struct, grounded on the teacher's internal/config/loader.go viper
// wiring (env prefix, .yaml file, BindEnv per key, Default() literal).
// Config file loading sits outside the core engine's scope (§1), but
// internal/engine still needs a concrete struct to construct the
// ChunkingEngine, both ProviderRouters and the IndexingCoordinator from,
// so the schema lives here even though no CLI flag parses it.
package config

import "time"

// Chunking holds chunking.* options.
type Chunking struct {
	MaxChunkChars int `mapstructure:"max_chunk_chars"`
	MinChunkChars int `mapstructure:"min_chunk_chars"`
	OverlapLines  int `mapstructure:"overlap_lines"`
}

// Routing holds routing.* options, shared by both provider routers.
type Routing struct {
	Strategy            string `mapstructure:"strategy"`
	MaxAttempts         int    `mapstructure:"max_attempts"`
	PerAttemptTimeoutMs int    `mapstructure:"per_attempt_timeout_ms"`
	TotalDeadlineMs     int    `mapstructure:"total_deadline_ms"`
}

// Circuit holds circuit.* options.
type Circuit struct {
	FailureThreshold  int `mapstructure:"failure_threshold"`
	SuccessThreshold  int `mapstructure:"success_threshold"`
	RecoveryTimeoutMs int `mapstructure:"recovery_timeout_ms"`
}

// Health holds health.* options.
type Health struct {
	IntervalMs int     `mapstructure:"interval_ms"`
	EWMAAlpha  float64 `mapstructure:"ewma_alpha"`
}

// Indexing holds indexing.* options.
type Indexing struct {
	EmbeddingBatchSize int `mapstructure:"embedding_batch_size"`
	VectorBatchSize    int `mapstructure:"vector_batch_size"`
}

// Search holds search.* options.
type Search struct {
	DefaultLexicalWeight float64 `mapstructure:"default_lexical_weight"`
	CandidateMultiplier  int     `mapstructure:"candidate_multiplier"`
	MinCandidates        int     `mapstructure:"min_candidates"`
}

// Budget holds one provider's budget.{provider}.* options.
type Budget struct {
	MonthlyLimit  float64 `mapstructure:"monthly_limit"`
	FreeTierUnits float64 `mapstructure:"free_tier_units"`
}

// Config is the recognized-option schema of §6 in full.
type Config struct {
	StateDir string            `mapstructure:"state_dir"`
	Chunking Chunking          `mapstructure:"chunking"`
	Routing  Routing           `mapstructure:"routing"`
	Circuit  Circuit           `mapstructure:"circuit"`
	Health   Health            `mapstructure:"health"`
	Indexing Indexing          `mapstructure:"indexing"`
	Search   Search            `mapstructure:"search"`
	Budget   map[string]Budget `mapstructure:"budget"`
}

// Default returns the recognized-option defaults named in §6.
func Default() *Config {
	return &Config{
		StateDir: ".semcode",
		Chunking: Chunking{MaxChunkChars: 2000, MinChunkChars: 100, OverlapLines: 0},
		Routing: Routing{
			Strategy:            "priority",
			MaxAttempts:         3,
			PerAttemptTimeoutMs: 10000,
			TotalDeadlineMs:     30000,
		},
		Circuit: Circuit{FailureThreshold: 5, SuccessThreshold: 2, RecoveryTimeoutMs: 30000},
		Health:  Health{IntervalMs: 30000, EWMAAlpha: 0.2},
		Indexing: Indexing{
			EmbeddingBatchSize: 64,
			VectorBatchSize:    256,
		},
		Search: Search{DefaultLexicalWeight: 0.3, CandidateMultiplier: 3, MinCandidates: 30},
		Budget: map[string]Budget{},
	}
}

// PerAttemptTimeout converts the configured millisecond duration to a
// time.Duration for internal/routing.Options.
func (r Routing) PerAttemptTimeout() time.Duration {
	return time.Duration(r.PerAttemptTimeoutMs) * time.Millisecond
}

// TotalDeadline converts the configured millisecond duration to a
// time.Duration for internal/routing.Options.
func (r Routing) TotalDeadline() time.Duration {
	return time.Duration(r.TotalDeadlineMs) * time.Millisecond
}

// RecoveryTimeout converts the configured millisecond duration to a
// time.Duration for internal/routing.Options.
func (c Circuit) RecoveryTimeout() time.Duration {
	return time.Duration(c.RecoveryTimeoutMs) * time.Millisecond
}

// Interval converts the configured millisecond duration to a
// time.Duration for internal/routing.Options.HealthInterval.
func (h Health) Interval() time.Duration {
	return time.Duration(h.IntervalMs) * time.Millisecond
}
