package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, 2000, cfg.Chunking.MaxChunkChars)
	assert.Equal(t, 100, cfg.Chunking.MinChunkChars)
	assert.Equal(t, 0, cfg.Chunking.OverlapLines)

	assert.Equal(t, "priority", cfg.Routing.Strategy)
	assert.Equal(t, 3, cfg.Routing.MaxAttempts)

	assert.Equal(t, 5, cfg.Circuit.FailureThreshold)
	assert.Equal(t, 2, cfg.Circuit.SuccessThreshold)

	assert.Equal(t, 0.3, cfg.Search.DefaultLexicalWeight)
	assert.Equal(t, 3, cfg.Search.CandidateMultiplier)
	assert.Equal(t, 30, cfg.Search.MinCandidates)

	assert.NoError(t, Validate(cfg))
}

func TestLoadConfig_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	tempDir := t.TempDir()

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, Default().Chunking, cfg.Chunking)
	assert.Equal(t, Default().Search, cfg.Search)
}

func TestLoadConfig_ReadsYAMLFile(t *testing.T) {
	tempDir := t.TempDir()
	configDir := filepath.Join(tempDir, ".semcode")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	yaml := "chunking:\n  max_chunk_chars: 4000\nsearch:\n  default_lexical_weight: 0.7\n"
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Chunking.MaxChunkChars)
	assert.Equal(t, 0.7, cfg.Search.DefaultLexicalWeight)
	assert.Equal(t, 100, cfg.Chunking.MinChunkChars) // untouched default survives
}

func TestLoadConfig_EnvironmentOverridesDefault(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("SEMCODE_ROUTING_STRATEGY", "fastest")

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)
	assert.Equal(t, "fastest", cfg.Routing.Strategy)
}

func TestValidate_RejectsUnknownStrategy(t *testing.T) {
	cfg := Default()
	cfg.Routing.Strategy = "round_robin"
	assert.Error(t, Validate(cfg))
}

func TestValidate_RejectsMinChunkCharsAboveMax(t *testing.T) {
	cfg := Default()
	cfg.Chunking.MinChunkChars = cfg.Chunking.MaxChunkChars + 1
	assert.Error(t, Validate(cfg))
}

func TestValidate_RejectsLexicalWeightOutOfRange(t *testing.T) {
	cfg := Default()
	cfg.Search.DefaultLexicalWeight = 1.5
	assert.Error(t, Validate(cfg))
}
