package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcelens/semcode/internal/config"
	"github.com/sourcelens/semcode/internal/engine"
	"github.com/sourcelens/semcode/internal/provider/vectorstore"
	"github.com/sourcelens/semcode/internal/routing"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	cfg := config.Default()
	store := vectorstore.NewMemoryStore()
	return engine.New(cfg, t.TempDir(), engine.WithVectorstoreProvider("memory", store, routing.CostProfile{}, 1))
}

func callToolRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func TestIndexCodebaseHandler_IndexesAndReportsStats(t *testing.T) {
	cfg := config.Default()
	e := newTestEngine(t)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.py"), []byte("def foo():\n    return 1\n"), 0o644))

	handler := createIndexCodebaseHandler(e, cfg)
	result, err := handler(context.Background(), callToolRequest(map[string]interface{}{
		"path":       root,
		"collection": "repo",
	}))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)

	var resp IndexCodebaseResponse
	require.NoError(t, json.Unmarshal([]byte(text.Text), &resp))
	assert.Equal(t, 1, resp.FilesAdded)
	assert.Greater(t, resp.ChunksProduced, 0)
}

func TestIndexCodebaseHandler_MissingCollectionIsError(t *testing.T) {
	cfg := config.Default()
	e := newTestEngine(t)
	handler := createIndexCodebaseHandler(e, cfg)

	result, err := handler(context.Background(), callToolRequest(map[string]interface{}{
		"path": t.TempDir(),
	}))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
}

func TestSearchCodeHandler_FindsIndexedChunk(t *testing.T) {
	cfg := config.Default()
	e := newTestEngine(t)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.py"), []byte("def handle_request():\n    return 1\n"), 0o644))
	_, err := e.Index(context.Background(), root, "repo", e.IndexOptions(cfg))
	require.NoError(t, err)

	handler := createSearchCodeHandler(e, cfg)
	result, err := handler(context.Background(), callToolRequest(map[string]interface{}{
		"collection":     "repo",
		"query":          "handle_request",
		"lexical_weight": 1.0,
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)

	var resp SearchCodeResponse
	require.NoError(t, json.Unmarshal([]byte(text.Text), &resp))
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "a.py", resp.Results[0].FilePath)
}

func TestSearchCodeHandler_UnknownCollectionReturnsErrorResult(t *testing.T) {
	cfg := config.Default()
	e := newTestEngine(t)
	handler := createSearchCodeHandler(e, cfg)

	result, err := handler(context.Background(), callToolRequest(map[string]interface{}{
		"collection": "nonexistent",
		"query":      "foo",
	}))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
}

func TestClearCollectionHandler_RemovesCheckpoint(t *testing.T) {
	cfg := config.Default()
	e := newTestEngine(t)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.py"), []byte("x = 1\n"), 0o644))
	_, err := e.Index(context.Background(), root, "repo", e.IndexOptions(cfg))
	require.NoError(t, err)

	handler := createClearCollectionHandler(e)
	result, err := handler(context.Background(), callToolRequest(map[string]interface{}{
		"collection": "repo",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	collections, err := e.Coordinator.ListCollections()
	require.NoError(t, err)
	assert.NotContains(t, collections, "repo")
}

func TestGetIndexingStatusHandler_ReportsIdleForUnknownCollection(t *testing.T) {
	e := newTestEngine(t)
	handler := createGetIndexingStatusHandler(e)

	result, err := handler(context.Background(), callToolRequest(map[string]interface{}{
		"collection": "never-indexed",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)

	var resp GetIndexingStatusResponse
	require.NoError(t, json.Unmarshal([]byte(text.Text), &resp))
	assert.Equal(t, "idle", resp.State)
}

func TestListCollectionsHandler_ListsIndexedCollections(t *testing.T) {
	cfg := config.Default()
	e := newTestEngine(t)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.py"), []byte("x = 1\n"), 0o644))
	_, err := e.Index(context.Background(), root, "repo-a", e.IndexOptions(cfg))
	require.NoError(t, err)

	handler := createListCollectionsHandler(e)
	result, err := handler(context.Background(), callToolRequest(nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)

	var resp ListCollectionsResponse
	require.NoError(t, json.Unmarshal([]byte(text.Text), &resp))
	assert.Contains(t, resp.Collections, "repo-a")
}
