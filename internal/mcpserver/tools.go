package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sourcelens/semcode/internal/cerr"
	"github.com/sourcelens/semcode/internal/config"
	"github.com/sourcelens/semcode/internal/engine"
)

// AddIndexCodebaseTool registers the index_codebase tool.
func AddIndexCodebaseTool(s *server.MCPServer, e *engine.Engine, cfg *config.Config) {
	tool := mcp.NewTool(
		"index_codebase",
		mcp.WithDescription("Index a codebase directory into a named collection: discovers source files, chunks them by language-aware boundaries, embeds and writes them to the hybrid search index. Incremental on repeat calls against the same path/collection."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute or relative path to the root of the codebase to index")),
		mcp.WithString("collection",
			mcp.Required(),
			mcp.Description("Name of the collection to index into")),
	)
	s.AddTool(tool, createIndexCodebaseHandler(e, cfg))
}

func createIndexCodebaseHandler(e *engine.Engine, cfg *config.Config) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, errResult := parseToolArguments(request)
		if errResult != nil {
			return errResult, nil
		}
		path, errResult := requiredString(argsMap, "path")
		if errResult != nil {
			return errResult, nil
		}
		collection, errResult := requiredString(argsMap, "collection")
		if errResult != nil {
			return errResult, nil
		}

		stats, err := e.Index(ctx, path, collection, e.IndexOptions(cfg))
		if err != nil {
			return mcp.NewToolResultError(toolErrorMessage("index_codebase", err)), nil
		}

		return marshalToolResponse(&IndexCodebaseResponse{
			FilesAdded:        stats.FilesAdded,
			FilesModified:     stats.FilesModified,
			FilesDeleted:      stats.FilesDeleted,
			FilesUnchanged:    stats.FilesUnchanged,
			ChunksProduced:    stats.ChunksProduced,
			EmbeddingsWritten: stats.EmbeddingsWritten,
			Generation:        stats.Generation,
			DurationMs:        stats.Duration.Milliseconds(),
		})
	}
}

// AddSearchCodeTool registers the search_code tool.
func AddSearchCodeTool(s *server.MCPServer, e *engine.Engine, cfg *config.Config) {
	tool := mcp.NewTool(
		"search_code",
		mcp.WithDescription("Search an indexed collection using hybrid lexical+semantic ranking. Returns code chunks ranked by fused relevance score. Falls back to whichever of lexical/semantic search is still available if the other is degraded."),
		mcp.WithString("collection",
			mcp.Required(),
			mcp.Description("Name of the collection to search")),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language or keyword search query")),
		mcp.WithNumber("k",
			mcp.Description("Maximum number of results to return (default 10)")),
		mcp.WithNumber("lexical_weight",
			mcp.Description("Weight in [0,1] given to the lexical (BM25) score versus the semantic score when fusing (default from search.default_lexical_weight)")),
	)
	s.AddTool(tool, createSearchCodeHandler(e, cfg))
}

func createSearchCodeHandler(e *engine.Engine, cfg *config.Config) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, errResult := parseToolArguments(request)
		if errResult != nil {
			return errResult, nil
		}
		collection, errResult := requiredString(argsMap, "collection")
		if errResult != nil {
			return errResult, nil
		}
		query, errResult := requiredString(argsMap, "query")
		if errResult != nil {
			return errResult, nil
		}
		k := optionalInt(argsMap, "k", 10)
		lexicalWeight := optionalFloat(argsMap, "lexical_weight", cfg.Search.DefaultLexicalWeight)

		opts := e.SearchOptions(cfg)
		opts.LexicalWeight = lexicalWeight
		results, degraded, err := e.SearchCode(ctx, collection, query, k, opts)
		if err != nil {
			return mcp.NewToolResultError(toolErrorMessage("search_code", err)), nil
		}

		out := make([]SearchCodeResult, 0, len(results))
		for _, r := range results {
			out = append(out, SearchCodeResult{
				ChunkID:       r.ChunkID,
				FilePath:      r.Chunk.FilePath,
				StartLine:     r.Chunk.StartLine,
				EndLine:       r.Chunk.EndLine,
				Language:      r.Chunk.Language,
				Symbol:        r.Chunk.Symbol,
				Kind:          string(r.Chunk.Kind),
				Content:       r.Chunk.Content,
				FusedScore:    r.FusedScore,
				LexicalScore:  r.LexicalScore,
				SemanticScore: r.SemanticScore,
				Rank:          r.Rank,
			})
		}

		return marshalToolResponse(&SearchCodeResponse{Results: out, Total: len(out), Degraded: degraded})
	}
}

// AddClearCollectionTool registers the clear_collection tool.
func AddClearCollectionTool(s *server.MCPServer, e *engine.Engine) {
	tool := mcp.NewTool(
		"clear_collection",
		mcp.WithDescription("Delete a collection's checkpoint, lexical index, and vector store entries entirely. The next index_codebase call against this collection starts a fresh index."),
		mcp.WithString("collection",
			mcp.Required(),
			mcp.Description("Name of the collection to clear")),
	)
	s.AddTool(tool, createClearCollectionHandler(e))
}

func createClearCollectionHandler(e *engine.Engine) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, errResult := parseToolArguments(request)
		if errResult != nil {
			return errResult, nil
		}
		collection, errResult := requiredString(argsMap, "collection")
		if errResult != nil {
			return errResult, nil
		}

		if err := e.Coordinator.Clear(ctx, collection); err != nil {
			return mcp.NewToolResultError(toolErrorMessage("clear_collection", err)), nil
		}

		return marshalToolResponse(&ClearCollectionResponse{Collection: collection, Cleared: true})
	}
}

// AddGetIndexingStatusTool registers the get_indexing_status tool.
func AddGetIndexingStatusTool(s *server.MCPServer, e *engine.Engine) {
	tool := mcp.NewTool(
		"get_indexing_status",
		mcp.WithDescription("Report the current or most recent indexing state of a collection, including the state-machine node and progress counters."),
		mcp.WithString("collection",
			mcp.Required(),
			mcp.Description("Name of the collection to report on")),
	)
	s.AddTool(tool, createGetIndexingStatusHandler(e))
}

func createGetIndexingStatusHandler(e *engine.Engine) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, errResult := parseToolArguments(request)
		if errResult != nil {
			return errResult, nil
		}
		collection, errResult := requiredString(argsMap, "collection")
		if errResult != nil {
			return errResult, nil
		}

		status := e.Coordinator.Status(collection)

		return marshalToolResponse(&GetIndexingStatusResponse{
			Collection:            collection,
			State:                 string(status.State),
			FilesDiscovered:       status.Progress.FilesDiscovered,
			FilesProcessed:        status.Progress.FilesProcessed,
			ChunksProduced:        status.Progress.ChunksProduced,
			EmbeddingsWritten:     status.Progress.EmbeddingsWritten,
			LastError:             status.LastError,
			DroppedProgressEvents: e.Coordinator.DroppedEvents(),
		})
	}
}

// AddListCollectionsTool registers the list_collections tool.
func AddListCollectionsTool(s *server.MCPServer, e *engine.Engine) {
	tool := mcp.NewTool(
		"list_collections",
		mcp.WithDescription("List every collection that has been indexed at least once, as recorded by its on-disk checkpoint."),
	)
	s.AddTool(tool, createListCollectionsHandler(e))
}

func createListCollectionsHandler(e *engine.Engine) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		collections, err := e.Coordinator.ListCollections()
		if err != nil {
			return mcp.NewToolResultError(toolErrorMessage("list_collections", err)), nil
		}
		return marshalToolResponse(&ListCollectionsResponse{Collections: collections})
	}
}

// toolErrorMessage renders a cerr.Error (or any error) as a tool-result
// message prefixed with its Kind, so MCP clients can branch on
// recognizable taxonomy strings (§7) without parsing stack traces.
func toolErrorMessage(op string, err error) string {
	kind := cerr.KindOf(err)
	return fmt.Sprintf("%s: [%s] %s", op, kind, err.Error())
}
