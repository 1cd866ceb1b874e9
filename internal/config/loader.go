package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (SEMCODE_*)
// 2. Config file (.semcode/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".semcode")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("SEMCODE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnv(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// bindEnv explicitly binds every recognized key so SEMCODE_* overrides
// apply even when the key is absent from both defaults and the config
// file, matching the teacher's per-key BindEnv calls.
func bindEnv(v *viper.Viper) {
	keys := []string{
		"state_dir",
		"chunking.max_chunk_chars", "chunking.min_chunk_chars", "chunking.overlap_lines",
		"routing.strategy", "routing.max_attempts", "routing.per_attempt_timeout_ms", "routing.total_deadline_ms",
		"circuit.failure_threshold", "circuit.success_threshold", "circuit.recovery_timeout_ms",
		"health.interval_ms", "health.ewma_alpha",
		"indexing.embedding_batch_size", "indexing.vector_batch_size",
		"search.default_lexical_weight", "search.candidate_multiplier", "search.min_candidates",
	}
	for _, k := range keys {
		v.BindEnv(k)
	}
}

// setDefaults configures viper with the §6 default values.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("state_dir", d.StateDir)

	v.SetDefault("chunking.max_chunk_chars", d.Chunking.MaxChunkChars)
	v.SetDefault("chunking.min_chunk_chars", d.Chunking.MinChunkChars)
	v.SetDefault("chunking.overlap_lines", d.Chunking.OverlapLines)

	v.SetDefault("routing.strategy", d.Routing.Strategy)
	v.SetDefault("routing.max_attempts", d.Routing.MaxAttempts)
	v.SetDefault("routing.per_attempt_timeout_ms", d.Routing.PerAttemptTimeoutMs)
	v.SetDefault("routing.total_deadline_ms", d.Routing.TotalDeadlineMs)

	v.SetDefault("circuit.failure_threshold", d.Circuit.FailureThreshold)
	v.SetDefault("circuit.success_threshold", d.Circuit.SuccessThreshold)
	v.SetDefault("circuit.recovery_timeout_ms", d.Circuit.RecoveryTimeoutMs)

	v.SetDefault("health.interval_ms", d.Health.IntervalMs)
	v.SetDefault("health.ewma_alpha", d.Health.EWMAAlpha)

	v.SetDefault("indexing.embedding_batch_size", d.Indexing.EmbeddingBatchSize)
	v.SetDefault("indexing.vector_batch_size", d.Indexing.VectorBatchSize)

	v.SetDefault("search.default_lexical_weight", d.Search.DefaultLexicalWeight)
	v.SetDefault("search.candidate_multiplier", d.Search.CandidateMultiplier)
	v.SetDefault("search.min_candidates", d.Search.MinCandidates)
}

// LoadConfig is a convenience function that creates a loader and loads
// config using the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
