package chunk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sourcelens/semcode/internal/chunk"
)

func TestTokenize_IdentifierSplitting(t *testing.T) {
	tokens := chunk.Tokenize("max_chunk_chars HTTPServerConfig fooBar")
	assert.Contains(t, tokens, "max")
	assert.Contains(t, tokens, "chunk")
	assert.Contains(t, tokens, "chars")
	assert.Contains(t, tokens, "http")
	assert.Contains(t, tokens, "server")
	assert.Contains(t, tokens, "config")
	assert.Contains(t, tokens, "foo")
	assert.Contains(t, tokens, "bar")
}
