package indexing

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcelens/semcode/internal/cerr"
	"github.com/sourcelens/semcode/internal/chunk"
	"github.com/sourcelens/semcode/internal/domain"
	"github.com/sourcelens/semcode/internal/provider/embedding"
	"github.com/sourcelens/semcode/internal/provider/vectorstore"
	"github.com/sourcelens/semcode/internal/routing"
	"github.com/sourcelens/semcode/internal/search"
)

// progressChannelCapacity bounds the §4.5 progress channel, grounded on
// the teacher's processor.go embedChunks progress channel (capacity 10
// there, sized up here since events fan in from every collection this
// Coordinator serves, not one embed batch).
const progressChannelCapacity = 64

// Coordinator is the IndexingCoordinator of §4.5: it owns the on-disk
// lock and checkpoint for every collection it touches and drives the
// chunk/embed/write pipeline, grounded on the teacher's
// internal/indexer/indexer_v2.go Index() orchestration (detect → delete
// → update-unchanged → process-changed) generalized from a SQL-backed
// Storage interface to the two provider routers of this design.
type Coordinator struct {
	stateDir string

	chunker           *chunk.Engine
	searchEngine      *search.Engine
	embeddingRouter   *routing.Router[embedding.Provider]
	vectorstoreRouter *routing.Router[vectorstore.Provider]

	mu       sync.Mutex
	statuses map[string]*Status

	progressCh    chan ProgressEvent
	droppedEvents atomic.Uint64

	embedCache *embedCache
}

// NewCoordinator constructs a Coordinator. stateDir holds every
// collection's lock and checkpoint file (§6).
func NewCoordinator(stateDir string, chunker *chunk.Engine, searchEngine *search.Engine, embeddingRouter *routing.Router[embedding.Provider], vectorstoreRouter *routing.Router[vectorstore.Provider]) *Coordinator {
	return &Coordinator{
		stateDir:          stateDir,
		chunker:           chunker,
		searchEngine:      searchEngine,
		embeddingRouter:   embeddingRouter,
		vectorstoreRouter: vectorstoreRouter,
		statuses:          make(map[string]*Status),
		progressCh:        make(chan ProgressEvent, progressChannelCapacity),
		embedCache:        newEmbedCache(),
	}
}

func (c *Coordinator) setState(collection string, state State, progress Progress, lastErr string) {
	c.mu.Lock()
	c.statuses[collection] = &Status{State: state, Progress: progress, LastError: lastErr}
	c.mu.Unlock()
	c.emit(collection, state, progress)
}

// Progress returns the bounded channel the coordinator emits
// ProgressEvents on (§4.5 "Progress and backpressure"). A slow or
// absent subscriber never blocks indexing: emit uses a non-blocking
// send and counts what it can't deliver in DroppedEvents, mirroring
// the teacher's processor.go embedChunks progress channel but fanned
// out across every collection the Coordinator serves instead of one
// embed batch.
func (c *Coordinator) Progress() <-chan ProgressEvent {
	return c.progressCh
}

// DroppedEvents reports how many ProgressEvents were discarded because
// Progress()'s channel was full when emit ran.
func (c *Coordinator) DroppedEvents() uint64 {
	return c.droppedEvents.Load()
}

func (c *Coordinator) emit(collection string, state State, progress Progress) {
	event := ProgressEvent{Collection: collection, State: state, Progress: progress, At: time.Now()}
	select {
	case c.progressCh <- event:
	default:
		c.droppedEvents.Add(1)
	}
}

// Status implements status(collection) of §4.5.
func (c *Coordinator) Status(collection string) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.statuses[collection]; ok {
		return *s
	}
	return Status{State: StateIdle}
}

// Index implements index(root, collection, options) -> IndexingStats,
// running the full §4.5 state machine once.
func (c *Coordinator) Index(ctx context.Context, root, collection string, opts Options) (Stats, error) {
	opts = opts.withDefaults()
	start := time.Now()
	var progress Progress

	// 1. Acquire.
	c.setState(collection, StateAcquiring, progress, "")
	lock := newCollectionLock(c.stateDir, collection, opts.LockTTL)
	if err := lock.Acquire(); err != nil {
		c.setState(collection, StateFailed, progress, err.Error())
		return Stats{}, err
	}
	defer lock.Release()

	stats, err := c.runPipeline(ctx, root, collection, opts, &progress)
	if err != nil {
		c.setState(collection, StateFailed, progress, err.Error())
		return Stats{}, err
	}
	stats.Duration = time.Since(start)
	c.setState(collection, StateIdle, progress, "")
	return stats, nil
}

func (c *Coordinator) runPipeline(ctx context.Context, root, collection string, opts Options, progress *Progress) (Stats, error) {
	// 2. Load checkpoint.
	c.setState(collection, StateScanning, *progress, "")
	cp, err := loadCheckpoint(c.stateDir, collection)
	if err != nil {
		return Stats{}, err
	}

	// 3. Traverse.
	walker, err := newFileWalker(root, opts.IgnoreDirs, opts.IgnoreGlobs)
	if err != nil {
		return Stats{}, err
	}
	relPaths, err := walker.Walk()
	if err != nil {
		return Stats{}, err
	}
	progress.FilesDiscovered = len(relPaths)
	c.setState(collection, StateScanning, *progress, "")

	// 4. Fingerprint diff against the checkpoint.
	seen := make(map[string]bool, len(relPaths))
	var added, modified, unchanged []string
	fingerprints := make(map[string]domain.FileFingerprint, len(relPaths))
	for _, relPath := range relPaths {
		select {
		case <-ctx.Done():
			return Stats{}, cerr.Wrap(cerr.Cancelled, "index", "context cancelled during scan", ctx.Err())
		default:
		}
		seen[relPath] = true
		fp, err := computeFingerprint(filepath.Join(root, relPath))
		if err != nil {
			return Stats{}, err
		}
		fingerprints[relPath] = fp

		prior, existed := cp.Files[relPath]
		switch {
		case !existed:
			added = append(added, relPath)
		case prior.Equal(fp):
			unchanged = append(unchanged, relPath)
		default:
			modified = append(modified, relPath)
		}
	}
	var deleted []string
	for relPath := range cp.Files {
		if !seen[relPath] {
			deleted = append(deleted, relPath)
		}
	}

	stats := Stats{
		FilesAdded:     len(added),
		FilesModified:  len(modified),
		FilesDeleted:   len(deleted),
		FilesUnchanged: len(unchanged),
	}

	// 8. Deleted files: delete their recorded chunk ids, then drop them
	// from the checkpoint.
	for _, relPath := range deleted {
		prior := cp.Files[relPath]
		if err := c.deleteChunks(ctx, collection, relPath, prior.ChunkIDs); err != nil {
			return Stats{}, err
		}
		delete(cp.Files, relPath)
	}
	if len(deleted) > 0 {
		cp.Generation++
		if err := saveCheckpoint(c.stateDir, cp); err != nil {
			return Stats{}, err
		}
	}

	toProcess := append(append([]string{}, added...), modified...)
	if len(toProcess) == 0 {
		stats.Generation = cp.Generation
		return stats, nil
	}

	// 5. Chunk added/modified files.
	c.setState(collection, StateChunking, *progress, "")
	results, err := chunkFilesConcurrently(ctx, c.chunker, root, toProcess, opts.WorkerCount)
	if err != nil {
		return Stats{}, err
	}

	dimension := 0
	if d, err := c.embeddingDimension(ctx); err == nil {
		dimension = d
	}
	if err := c.ensureVectorCollection(ctx, collection, dimension); err != nil {
		return Stats{}, err
	}
	c.searchEngine.EnsureCollection(collection)

	for _, result := range results {
		if result.err != nil && len(result.chunks) == 0 {
			continue // Unsupported (or a ParseError with no partial output): skip this file only.
		}
		progress.ChunksProduced += len(result.chunks)
		stats.ChunksProduced += len(result.chunks)

		// 7. For Modified files, delete the prior chunk ids before
		// upserting new ones, to guarantee no orphans.
		if prior, existed := cp.Files[result.path]; existed && len(prior.ChunkIDs) > 0 {
			if err := c.deleteChunks(ctx, collection, result.path, prior.ChunkIDs); err != nil {
				return Stats{}, err
			}
		}

		// 6-7. Embed in batches, then upsert in batches.
		chunkIDs, err := c.embedAndUpsert(ctx, collection, result.chunks, opts)
		if err != nil {
			return Stats{}, err
		}
		progress.EmbeddingsWritten += len(chunkIDs)
		stats.EmbeddingsWritten += len(chunkIDs)
		progress.FilesProcessed++

		fp := fingerprints[result.path]
		fp.ChunkIDs = chunkIDs
		cp.Files[result.path] = fp

		// 9. Commit this file's progress to the checkpoint immediately so
		// partial progress survives a crash partway through the batch.
		cp.Generation++
		c.setState(collection, StateCommitting, *progress, "")
		if err := saveCheckpoint(c.stateDir, cp); err != nil {
			return Stats{}, err
		}
	}

	stats.Generation = cp.Generation
	return stats, nil
}

// embedAndUpsert runs §4.5 steps 6-7: batch chunks across the embedding
// router (preserving order), then upsert the resulting vectors in
// vector_batch_size batches, and finally index each chunk's lexical
// content and chunk-registry entry in the SearchEngine.
func (c *Coordinator) embedAndUpsert(ctx context.Context, collection string, chunks []domain.CodeChunk, opts Options) ([]string, error) {
	ids := make([]string, 0, len(chunks))
	c.setState(collection, StateEmbedding, Progress{}, "")

	for batchStart := 0; batchStart < len(chunks); batchStart += opts.EmbeddingBatchSize {
		end := batchStart + opts.EmbeddingBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[batchStart:end]

		texts := make([]string, len(batch))
		for i, ch := range batch {
			texts[i] = ch.Content
		}

		vectors, missIdx, missTexts := c.embedCache.lookup(texts)
		if len(missTexts) > 0 {
			missVectors, err := routing.Call(ctx, c.embeddingRouter, routing.CallOptions{UseCase: "bulk", EstimatedUnits: float64(len(missTexts))},
				func(ctx context.Context, p embedding.Provider) ([][]float32, routing.Usage, error) {
					v, err := p.EmbedBatch(ctx, missTexts)
					return v, routing.Usage{Units: float64(len(missTexts)), UnitType: "embedding"}, err
				})
			if err != nil {
				return nil, err
			}
			if len(missVectors) > 0 {
				if err := embedding.ValidateBatch(missTexts, missVectors, len(missVectors[0])); err != nil {
					return nil, err
				}
			}
			c.embedCache.store(missTexts, missVectors)
			for i, idx := range missIdx {
				vectors[idx] = missVectors[i]
			}
		}

		c.setState(collection, StateWriting, Progress{}, "")
		records := make([]domain.VectorRecord, len(batch))
		for i := range batch {
			records[i] = domain.VectorRecord{
				ChunkID: batch[i].ID,
				Vector:  vectors[i],
				Metadata: map[string]string{
					"language": batch[i].Language,
					"path":     batch[i].FilePath,
				},
			}
		}
		if err := c.upsertInBatches(ctx, collection, records, opts.VectorBatchSize); err != nil {
			return nil, err
		}

		for i := range batch {
			c.searchEngine.IndexChunk(collection, &batch[i])
			ids = append(ids, batch[i].ID)
		}
	}
	return ids, nil
}

func (c *Coordinator) upsertInBatches(ctx context.Context, collection string, records []domain.VectorRecord, batchSize int) error {
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]
		_, err := routing.Call(ctx, c.vectorstoreRouter, routing.CallOptions{UseCase: "bulk", EstimatedUnits: float64(len(batch))},
			func(ctx context.Context, p vectorstore.Provider) (struct{}, routing.Usage, error) {
				err := p.Upsert(ctx, collection, batch)
				return struct{}{}, routing.Usage{Units: float64(len(batch)), UnitType: "vector_write"}, err
			})
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Coordinator) deleteChunks(ctx context.Context, collection, relPath string, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	_, err := routing.Call(ctx, c.vectorstoreRouter, routing.CallOptions{},
		func(ctx context.Context, p vectorstore.Provider) (struct{}, routing.Usage, error) {
			err := p.Delete(ctx, collection, chunkIDs)
			return struct{}{}, routing.Usage{}, err
		})
	if err != nil && cerr.KindOf(err) != cerr.NotFound {
		return err
	}
	for _, id := range chunkIDs {
		c.searchEngine.RemoveChunk(collection, id)
	}
	return nil
}

func (c *Coordinator) embeddingDimension(ctx context.Context) (int, error) {
	return routing.Call(ctx, c.embeddingRouter, routing.CallOptions{},
		func(ctx context.Context, p embedding.Provider) (int, routing.Usage, error) {
			return p.Dimension(), routing.Usage{}, nil
		})
}

func (c *Coordinator) ensureVectorCollection(ctx context.Context, collection string, dimension int) error {
	_, err := routing.Call(ctx, c.vectorstoreRouter, routing.CallOptions{},
		func(ctx context.Context, p vectorstore.Provider) (struct{}, routing.Usage, error) {
			err := p.EnsureCollection(ctx, collection, dimension)
			return struct{}{}, routing.Usage{}, err
		})
	return err
}

// ListCollections enumerates every collection with a checkpoint on disk
// in stateDir, the durable record of "collections that have been
// indexed at least once" — durable rather than in-memory because the
// coordinator process may have restarted since a collection was indexed.
func (c *Coordinator) ListCollections() ([]string, error) {
	entries, err := readDirNames(c.stateDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, cerr.Wrap(cerr.IoError, "list_collections", "failed to read state dir", err)
	}
	collections := make([]string, 0, len(entries))
	for _, name := range entries {
		if strings.HasSuffix(name, ".checkpoint") {
			collections = append(collections, strings.TrimSuffix(name, ".checkpoint"))
		}
	}
	return collections, nil
}

// Clear implements clear(collection): drops the vector collection, the
// lexical index, and the on-disk checkpoint for a fresh start.
func (c *Coordinator) Clear(ctx context.Context, collection string) error {
	_, err := routing.Call(ctx, c.vectorstoreRouter, routing.CallOptions{},
		func(ctx context.Context, p vectorstore.Provider) (struct{}, routing.Usage, error) {
			err := p.Clear(ctx, collection)
			return struct{}{}, routing.Usage{}, err
		})
	if err != nil {
		return err
	}
	c.searchEngine.ClearCollection(collection)
	if err := os.Remove(checkpointPath(c.stateDir, collection)); err != nil && !os.IsNotExist(err) {
		return cerr.Wrap(cerr.IoError, "clear", "failed to remove checkpoint file", err).WithPath(collection)
	}
	c.setState(collection, StateIdle, Progress{}, "")
	return nil
}
