// Package mcpserver exposes the Engine over the Model Context Protocol,
// registering the five tools of SPEC_FULL.md §6: index_codebase,
// search_code, clear_collection, get_indexing_status, and
// list_collections. Grounded on the teacher's internal/mcp package:
// request/response struct naming (tool.go's CortexSearchRequest /
// CortexSearchResponse), the parseToolArguments/marshalToolResponse
// helper pair (helpers.go), and the stdio-serve-with-graceful-shutdown
// pattern (server.go).
package mcpserver

// IndexCodebaseRequest is the index_codebase tool's argument shape.
type IndexCodebaseRequest struct {
	Path       string `json:"path"`
	Collection string `json:"collection"`
}

// IndexCodebaseResponse mirrors indexing.Stats for the wire.
type IndexCodebaseResponse struct {
	FilesAdded        int    `json:"files_added"`
	FilesModified     int    `json:"files_modified"`
	FilesDeleted      int    `json:"files_deleted"`
	FilesUnchanged    int    `json:"files_unchanged"`
	ChunksProduced    int    `json:"chunks_produced"`
	EmbeddingsWritten int    `json:"embeddings_written"`
	Generation        uint64 `json:"generation"`
	DurationMs        int64  `json:"duration_ms"`
}

// SearchCodeRequest is the search_code tool's argument shape.
type SearchCodeRequest struct {
	Collection    string  `json:"collection"`
	Query         string  `json:"query"`
	K             int     `json:"k"`
	LexicalWeight float64 `json:"lexical_weight"`
}

// SearchCodeResult is one hit in a SearchCodeResponse.
type SearchCodeResult struct {
	ChunkID       string  `json:"chunk_id"`
	FilePath      string  `json:"file_path"`
	StartLine     int     `json:"start_line"`
	EndLine       int     `json:"end_line"`
	Language      string  `json:"language"`
	Symbol        string  `json:"symbol"`
	Kind          string  `json:"kind"`
	Content       string  `json:"content"`
	FusedScore    float64 `json:"fused_score"`
	LexicalScore  float64 `json:"lexical_score"`
	SemanticScore float64 `json:"semantic_score"`
	Rank          int     `json:"rank"`
}

// SearchCodeResponse is the search_code tool's return shape. Degraded
// is true when the search ran with only one of the lexical/semantic
// halves available (§4.4 degraded-mode contract).
type SearchCodeResponse struct {
	Results  []SearchCodeResult `json:"results"`
	Total    int                `json:"total"`
	Degraded bool               `json:"degraded"`
}

// ClearCollectionRequest is the clear_collection tool's argument shape.
type ClearCollectionRequest struct {
	Collection string `json:"collection"`
}

// ClearCollectionResponse acknowledges the clear.
type ClearCollectionResponse struct {
	Collection string `json:"collection"`
	Cleared    bool   `json:"cleared"`
}

// GetIndexingStatusRequest is the get_indexing_status tool's argument shape.
type GetIndexingStatusRequest struct {
	Collection string `json:"collection"`
}

// GetIndexingStatusResponse mirrors indexing.Status for the wire.
// DroppedProgressEvents surfaces §4.5's backpressure counter: how many
// progress events the Coordinator discarded because its bounded progress
// channel was full, across every collection this server's Coordinator
// serves (the counter isn't per-collection).
type GetIndexingStatusResponse struct {
	Collection            string `json:"collection"`
	State                 string `json:"state"`
	FilesDiscovered       int    `json:"files_discovered"`
	FilesProcessed        int    `json:"files_processed"`
	ChunksProduced        int    `json:"chunks_produced"`
	EmbeddingsWritten     int    `json:"embeddings_written"`
	LastError             string `json:"last_error,omitempty"`
	DroppedProgressEvents uint64 `json:"dropped_progress_events"`
}

// ListCollectionsResponse is the list_collections tool's return shape.
type ListCollectionsResponse struct {
	Collections []string `json:"collections"`
}
