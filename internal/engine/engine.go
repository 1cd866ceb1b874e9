// Package engine is the acyclic composition root named by SPEC_FULL.md
// §9: it owns the two ProviderRouter instances (embedding, vector store
// kinds) and the ChunkingEngine, and constructs the IndexingCoordinator
// and SearchEngine from them, mirroring the teacher's
// internal/mcp/server.go wiring style (construct leaves first, then the
// composites that depend on them).
package engine

import (
	"context"
	"log"

	"github.com/sourcelens/semcode/internal/chunk"
	"github.com/sourcelens/semcode/internal/chunk/lang"
	"github.com/sourcelens/semcode/internal/config"
	"github.com/sourcelens/semcode/internal/domain"
	"github.com/sourcelens/semcode/internal/indexing"
	"github.com/sourcelens/semcode/internal/provider/embedding"
	"github.com/sourcelens/semcode/internal/provider/vectorstore"
	"github.com/sourcelens/semcode/internal/routing"
	"github.com/sourcelens/semcode/internal/search"
)

// Engine is the top-level handle internal/mcpserver and cmd/semcode-mcpd
// construct and call through.
type Engine struct {
	Chunker           *chunk.Engine
	EmbeddingRouter   *routing.Router[embedding.Provider]
	VectorstoreRouter *routing.Router[vectorstore.Provider]
	Search            *search.Engine
	Coordinator       *indexing.Coordinator
}

// Option customizes New's construction, used by tests to register
// stub providers instead of the production chromem-go store.
type Option func(*options)

type options struct {
	embeddingProviders   []namedEmbeddingProvider
	vectorstoreProviders []namedVectorstoreProvider
}

type namedEmbeddingProvider struct {
	id       string
	provider embedding.Provider
	profile  routing.CostProfile
	priority int
}

type namedVectorstoreProvider struct {
	id       string
	provider vectorstore.Provider
	profile  routing.CostProfile
	priority int
}

// WithEmbeddingProvider registers an additional embedding provider,
// replacing the production default when called at least once.
func WithEmbeddingProvider(id string, provider embedding.Provider, profile routing.CostProfile, priority int) Option {
	return func(o *options) {
		o.embeddingProviders = append(o.embeddingProviders, namedEmbeddingProvider{id, provider, profile, priority})
	}
}

// WithVectorstoreProvider registers an additional vector store provider,
// replacing the production default when called at least once.
func WithVectorstoreProvider(id string, provider vectorstore.Provider, profile routing.CostProfile, priority int) Option {
	return func(o *options) {
		o.vectorstoreProviders = append(o.vectorstoreProviders, namedVectorstoreProvider{id, provider, profile, priority})
	}
}

// New constructs the Engine from a loaded Config and stateDir, wiring
// the production adapters (chromem-go vector store, every tree-sitter
// chunking strategy the pack ships) unless overridden by Option.
func New(cfg *config.Config, stateDir string, opts ...Option) *Engine {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	routerOpts := routing.Options{
		Strategy:          routing.StrategyKind(cfg.Routing.Strategy),
		MaxAttempts:       cfg.Routing.MaxAttempts,
		PerAttemptTimeout: cfg.Routing.PerAttemptTimeout(),
		TotalDeadline:     cfg.Routing.TotalDeadline(),
		FailureThreshold:  cfg.Circuit.FailureThreshold,
		SuccessThreshold:  cfg.Circuit.SuccessThreshold,
		RecoveryTimeout:   cfg.Circuit.RecoveryTimeout(),
		EWMAAlpha:         cfg.Health.EWMAAlpha,
		HealthInterval:    cfg.Health.Interval(),
	}

	embeddingRouter := routing.NewRouter[embedding.Provider](routerOpts)
	if len(o.embeddingProviders) == 0 {
		embeddingRouter.Register("null", embedding.NewNullProvider(), routing.CostProfile{}, 1)
	}
	for _, p := range o.embeddingProviders {
		embeddingRouter.Register(p.id, p.provider, p.profile, p.priority)
	}

	vectorstoreRouter := routing.NewRouter[vectorstore.Provider](routerOpts)
	if len(o.vectorstoreProviders) == 0 {
		vectorstoreRouter.Register("chromem", vectorstore.NewChromemStore(), routing.CostProfile{}, 1)
	}
	for _, p := range o.vectorstoreProviders {
		vectorstoreRouter.Register(p.id, p.provider, p.profile, p.priority)
	}

	chunkCfg := chunk.Config{
		MaxChunkChars: cfg.Chunking.MaxChunkChars,
		MinChunkChars: cfg.Chunking.MinChunkChars,
		OverlapLines:  cfg.Chunking.OverlapLines,
	}
	registry := chunk.NewRegistry(
		lang.NewGo(),
		lang.NewPython(),
		lang.NewJava(),
		lang.NewC(),
		lang.NewCPP(),
		lang.NewPHP(),
		lang.NewRuby(),
		lang.NewRust(),
		lang.NewTypeScript(),
		lang.NewJavaScript(),
		lang.NewCSharp(),
		lang.NewSwift(),
		lang.NewKotlin(),
	)
	chunker := chunk.NewEngine(chunkCfg, registry)

	searchEngine := search.NewEngine(embeddingRouter, vectorstoreRouter)
	coordinator := indexing.NewCoordinator(stateDir, chunker, searchEngine, embeddingRouter, vectorstoreRouter)
	go logProgress(coordinator)

	healthCtx := context.Background()
	embeddingRouter.StartHealthLoop(healthCtx)
	vectorstoreRouter.StartHealthLoop(healthCtx)

	return &Engine{
		Chunker:           chunker,
		EmbeddingRouter:   embeddingRouter,
		VectorstoreRouter: vectorstoreRouter,
		Search:            searchEngine,
		Coordinator:       coordinator,
	}
}

// IndexOptions builds the indexing.Options this Engine was configured
// with, for callers (internal/mcpserver) that need to pass per-call
// overrides (ignore dirs/globs) on top of the configured batch sizes.
func (e *Engine) IndexOptions(cfg *config.Config) indexing.Options {
	opts := indexing.DefaultOptions()
	opts.EmbeddingBatchSize = cfg.Indexing.EmbeddingBatchSize
	opts.VectorBatchSize = cfg.Indexing.VectorBatchSize
	return opts
}

// SearchOptions builds search.Options pre-seeded with the configured
// default lexical weight and candidate-set sizing.
func (e *Engine) SearchOptions(cfg *config.Config) search.Options {
	return search.Options{
		LexicalWeight:       cfg.Search.DefaultLexicalWeight,
		CandidateMultiplier: cfg.Search.CandidateMultiplier,
		MinCandidates:       cfg.Search.MinCandidates,
	}
}

// logProgress is the default subscriber on the coordinator's bounded
// progress channel (§4.5), grounded on the teacher's processor.go
// embedChunks draining goroutine: range over the channel until it's
// closed (which never happens for the life of this process, so this
// goroutine simply runs alongside it) and log each event, which keeps
// the channel drained. get_indexing_status does not read this channel;
// it reports Status and DroppedEvents. A slow or crashed subscriber
// here still can't stall indexing, since emit never blocks.
func logProgress(c *indexing.Coordinator) {
	for event := range c.Progress() {
		log.Printf("indexing %s: %s (files=%d/%d chunks=%d embeddings=%d)",
			event.Collection, event.State,
			event.Progress.FilesProcessed, event.Progress.FilesDiscovered,
			event.Progress.ChunksProduced, event.Progress.EmbeddingsWritten)
	}
}

// Index runs one indexing pass for the given root/collection.
func (e *Engine) Index(ctx context.Context, root, collection string, opts indexing.Options) (indexing.Stats, error) {
	return e.Coordinator.Index(ctx, root, collection, opts)
}

// SearchCode runs one hybrid search query against an indexed collection.
func (e *Engine) SearchCode(ctx context.Context, collection, query string, k int, opts search.Options) ([]domain.SearchResult, bool, error) {
	return e.Search.Search(ctx, collection, query, k, opts)
}
