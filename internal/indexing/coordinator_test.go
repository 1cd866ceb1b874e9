package indexing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcelens/semcode/internal/cerr"
	"github.com/sourcelens/semcode/internal/chunk"
	"github.com/sourcelens/semcode/internal/chunk/lang"
	"github.com/sourcelens/semcode/internal/provider/embedding"
	"github.com/sourcelens/semcode/internal/provider/vectorstore"
	"github.com/sourcelens/semcode/internal/routing"
	"github.com/sourcelens/semcode/internal/search"
)

func newTestCoordinator(t *testing.T) (*Coordinator, string) {
	t.Helper()
	chunkEngine := chunk.NewEngine(chunk.DefaultConfig(), chunk.NewRegistry(lang.NewPython(), lang.NewGo()))

	embedRouter := routing.NewRouter[embedding.Provider](routing.DefaultOptions())
	embedRouter.Register("null", embedding.NewNullProvider(), routing.CostProfile{}, 1)

	vsRouter := routing.NewRouter[vectorstore.Provider](routing.DefaultOptions())
	vsRouter.Register("memory", vectorstore.NewMemoryStore(), routing.CostProfile{}, 1)

	searchEngine := search.NewEngine(embedRouter, vsRouter)

	stateDir := t.TempDir()
	coord := NewCoordinator(stateDir, chunkEngine, searchEngine, embedRouter, vsRouter)
	t.Cleanup(coord.embedCache.Close)
	return coord, stateDir
}

// TestCoordinator_FreshIndexOnMinimalRepo is scenario 1: two files,
// null embedding provider, in-memory vector store; checkpoint contains
// two entries and a pure-lexical search for "foo" ranks a.py first.
func TestCoordinator_FreshIndexOnMinimalRepo(t *testing.T) {
	ctx := context.Background()
	coord, stateDir := newTestCoordinator(t)
	root := t.TempDir()
	writeTestFile(t, root, "a.py", "def foo():\n    return 1\n")
	writeTestFile(t, root, "b.py", "def bar():\n    return 2\n")

	stats, err := coord.Index(ctx, root, "repo", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesAdded)
	assert.Equal(t, StateIdle, coord.Status("repo").State)

	cp, err := loadCheckpoint(stateDir, "repo")
	require.NoError(t, err)
	assert.Len(t, cp.Files, 2)

	results, _, err := coord.searchEngine.Search(ctx, "repo", "foo", 10, search.Options{LexicalWeight: 1.0})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "a.py", results[0].Chunk.FilePath)
	assert.Equal(t, 1, results[0].Rank)
}

// TestCoordinator_IncrementalNoChangeSkipsEverything is scenario 2: a
// second Index call against an unmodified tree processes zero files.
func TestCoordinator_IncrementalNoChangeSkipsEverything(t *testing.T) {
	ctx := context.Background()
	coord, _ := newTestCoordinator(t)
	root := t.TempDir()
	writeTestFile(t, root, "a.py", "def foo():\n    return 1\n")

	first, err := coord.Index(ctx, root, "repo", DefaultOptions())
	require.NoError(t, err)

	stats, err := coord.Index(ctx, root, "repo", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FilesAdded)
	assert.Equal(t, 0, stats.FilesModified)
	assert.Equal(t, 1, stats.FilesUnchanged)
	// A no-op pass touches nothing on disk, so the checkpoint's
	// generation must not advance: an identical checkpoint (§8) is not a
	// new generation.
	assert.Equal(t, first.Generation, stats.Generation)
}

// TestCoordinator_IncrementalModifiedFileReindexesOnlyThatFile is
// scenario 3: editing one file re-chunks only that file and leaves the
// other file's chunk ids untouched.
func TestCoordinator_IncrementalModifiedFileReindexesOnlyThatFile(t *testing.T) {
	ctx := context.Background()
	coord, stateDir := newTestCoordinator(t)
	root := t.TempDir()
	writeTestFile(t, root, "a.py", "def foo():\n    return 1\n")
	writeTestFile(t, root, "b.py", "def bar():\n    return 2\n")

	_, err := coord.Index(ctx, root, "repo", DefaultOptions())
	require.NoError(t, err)
	cpBefore, err := loadCheckpoint(stateDir, "repo")
	require.NoError(t, err)
	bIDsBefore := append([]string{}, cpBefore.Files["b.py"].ChunkIDs...)

	// Change detection compares size and the header hash, both of which
	// the rewrite below changes; sleep briefly so the mtime moves as well.
	time.Sleep(5 * time.Millisecond)
	writeTestFile(t, root, "a.py", "def foo():\n    return 999\n")

	stats, err := coord.Index(ctx, root, "repo", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesModified)
	assert.Equal(t, 0, stats.FilesAdded)

	cpAfter, err := loadCheckpoint(stateDir, "repo")
	require.NoError(t, err)
	assert.Equal(t, bIDsBefore, cpAfter.Files["b.py"].ChunkIDs)
	assert.NotEqual(t, cpBefore.Files["a.py"].ChunkIDs, cpAfter.Files["a.py"].ChunkIDs)
}

// TestCoordinator_DeletedFileRemovesItsChunks is the delete half of
// §4.5 step 8: a file removed from disk drops out of the checkpoint and
// its chunks are removed from the lexical/vector stores.
func TestCoordinator_DeletedFileRemovesItsChunks(t *testing.T) {
	ctx := context.Background()
	coord, stateDir := newTestCoordinator(t)
	root := t.TempDir()
	writeTestFile(t, root, "a.py", "def foo():\n    return 1\n")
	writeTestFile(t, root, "b.py", "def bar():\n    return 2\n")

	_, err := coord.Index(ctx, root, "repo", DefaultOptions())
	require.NoError(t, err)
	cpBefore, err := loadCheckpoint(stateDir, "repo")
	require.NoError(t, err)
	removedIDs := append([]string{}, cpBefore.Files["b.py"].ChunkIDs...)
	require.NotEmpty(t, removedIDs)

	require.NoError(t, os.Remove(filepath.Join(root, "b.py")))
	stats, err := coord.Index(ctx, root, "repo", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesDeleted)

	cp, err := loadCheckpoint(stateDir, "repo")
	require.NoError(t, err)
	assert.NotContains(t, cp.Files, "b.py")

	results, _, err := coord.searchEngine.Search(ctx, "repo", "bar", 10, search.Options{LexicalWeight: 1.0})
	require.NoError(t, err)
	for _, r := range results {
		assert.NotContains(t, removedIDs, r.ChunkID)
	}
}

func TestCoordinator_IndexFailsWithCollectionLockedWhileHeld(t *testing.T) {
	ctx := context.Background()
	coord, stateDir := newTestCoordinator(t)
	root := t.TempDir()
	writeTestFile(t, root, "a.py", "def foo(): pass\n")

	held := newCollectionLock(stateDir, "repo", time.Minute)
	require.NoError(t, held.Acquire())
	defer held.Release()

	_, err := coord.Index(ctx, root, "repo", DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, cerr.CollectionLocked, cerr.KindOf(err))
}

func TestCoordinator_ClearRemovesCheckpointAndIndex(t *testing.T) {
	ctx := context.Background()
	coord, stateDir := newTestCoordinator(t)
	root := t.TempDir()
	writeTestFile(t, root, "a.py", "def foo(): pass\n")

	_, err := coord.Index(ctx, root, "repo", DefaultOptions())
	require.NoError(t, err)

	require.NoError(t, coord.Clear(ctx, "repo"))
	_, err = os.Stat(checkpointPath(stateDir, "repo"))
	assert.True(t, os.IsNotExist(err))

	_, _, searchErr := coord.searchEngine.Search(ctx, "repo", "foo", 10, search.Options{LexicalWeight: 1.0})
	require.Error(t, searchErr)
	assert.Equal(t, cerr.NotFound, cerr.KindOf(searchErr))
}

// TestCoordinator_IndexEmitsProgressEvents is §4.5's "progress and
// backpressure": every state transition of a run shows up on
// Progress(), in order, ending Idle.
func TestCoordinator_IndexEmitsProgressEvents(t *testing.T) {
	ctx := context.Background()
	coord, _ := newTestCoordinator(t)
	root := t.TempDir()
	writeTestFile(t, root, "a.py", "def foo():\n    return 1\n")

	_, err := coord.Index(ctx, root, "repo", DefaultOptions())
	require.NoError(t, err)

	var states []State
	for {
		select {
		case event := <-coord.Progress():
			states = append(states, event.State)
		default:
			goto drained
		}
	}
drained:
	require.NotEmpty(t, states)
	assert.Equal(t, StateIdle, states[len(states)-1])
	assert.Contains(t, states, StateScanning)
	assert.Contains(t, states, StateChunking)
}

// TestCoordinator_ProgressChannelDropsWhenFull confirms a subscriber
// that never drains the channel cannot stall indexing: once the
// bounded channel fills, emit() falls back to the drop counter instead
// of blocking, and Index still completes successfully.
func TestCoordinator_ProgressChannelDropsWhenFull(t *testing.T) {
	ctx := context.Background()
	coord, _ := newTestCoordinator(t)
	root := t.TempDir()
	// Each processed file drives several state transitions; with
	// nothing draining Progress(), enough files overruns
	// progressChannelCapacity and forces drops.
	for i := 0; i < progressChannelCapacity*2; i++ {
		writeTestFile(t, root, fmt.Sprintf("f%d.py", i), "def foo():\n    return 1\n")
	}

	_, err := coord.Index(ctx, root, "repo", DefaultOptions())
	require.NoError(t, err)

	assert.Greater(t, coord.DroppedEvents(), uint64(0))
}

// countingEmbedProvider wraps NullProvider to record how many texts it
// was actually asked to embed, so the embed cache's dedupe behavior can
// be observed independently of the vectors it returns.
type countingEmbedProvider struct {
	embedding.NullProvider
	textsSeen int
}

func (p *countingEmbedProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	p.textsSeen += len(texts)
	return p.NullProvider.EmbedBatch(ctx, texts)
}

func TestCoordinator_EmbedCacheDedupesIdenticalChunkContent(t *testing.T) {
	ctx := context.Background()
	chunkEngine := chunk.NewEngine(chunk.DefaultConfig(), chunk.NewRegistry(lang.NewPython(), lang.NewGo()))

	counting := &countingEmbedProvider{}
	embedRouter := routing.NewRouter[embedding.Provider](routing.DefaultOptions())
	embedRouter.Register("counting", counting, routing.CostProfile{}, 1)

	vsRouter := routing.NewRouter[vectorstore.Provider](routing.DefaultOptions())
	vsRouter.Register("memory", vectorstore.NewMemoryStore(), routing.CostProfile{}, 1)

	searchEngine := search.NewEngine(embedRouter, vsRouter)
	stateDir := t.TempDir()
	coord := NewCoordinator(stateDir, chunkEngine, searchEngine, embedRouter, vsRouter)
	t.Cleanup(coord.embedCache.Close)

	root := t.TempDir()
	// Two files with byte-identical content produce two chunks whose
	// Content is equal, so the second embed should be a cache hit.
	body := "def foo():\n    return 1\n"
	writeTestFile(t, root, "a.py", body)
	writeTestFile(t, root, "b.py", body)

	_, err := coord.Index(ctx, root, "repo", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, counting.textsSeen)
}
