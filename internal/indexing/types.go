// Package indexing implements the IndexingCoordinator of §4.5: it walks a
// root directory, detects changes against a persisted checkpoint,
// chunks and embeds the difference, and writes the result to both the
// lexical and vector halves of the search engine, all guarded by a
// cross-process collection lock. Grounded on the teacher's
// internal/indexer/{discovery,change_detector,indexer_v2}.go pipeline
// shape and internal/daemon/singleton.go's lock+liveness pairing.
package indexing

import (
	"time"
)

// State is one node of the §4.5 state machine:
// Idle → Acquiring → Scanning → Chunking → Embedding → Writing →
// Committing → Idle, with Failed reachable from any state.
type State string

const (
	StateIdle        State = "idle"
	StateAcquiring   State = "acquiring"
	StateScanning    State = "scanning"
	StateChunking    State = "chunking"
	StateEmbedding   State = "embedding"
	StateWriting     State = "writing"
	StateCommitting  State = "committing"
	StateFailed      State = "failed"
)

// Options configures one Index call; fields mirror the §6 recognized
// configuration options under the `indexing.*` namespace.
type Options struct {
	EmbeddingBatchSize int      // indexing.embedding_batch_size, default 64
	VectorBatchSize    int      // indexing.vector_batch_size, default 256
	IgnoreDirs         []string // additional directory names to ignore beyond the defaults
	IgnoreGlobs        []string // additional gitignore-style glob patterns
	WorkerCount        int      // chunking worker pool size, default = GOMAXPROCS
	LockTTL            time.Duration
}

// DefaultOptions returns the §6-documented defaults.
func DefaultOptions() Options {
	return Options{
		EmbeddingBatchSize: 64,
		VectorBatchSize:    256,
		LockTTL:            10 * time.Minute,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.EmbeddingBatchSize <= 0 {
		o.EmbeddingBatchSize = d.EmbeddingBatchSize
	}
	if o.VectorBatchSize <= 0 {
		o.VectorBatchSize = d.VectorBatchSize
	}
	if o.LockTTL <= 0 {
		o.LockTTL = d.LockTTL
	}
	return o
}

// defaultIgnoreDirs are always skipped during traversal, per §4.5 step 3.
var defaultIgnoreDirs = []string{".git", "node_modules", "target", "dist", "build"}

// Stats reports what one Index call did, the IndexingStats of §4.5's
// public contract.
type Stats struct {
	FilesAdded      int
	FilesModified   int
	FilesDeleted    int
	FilesUnchanged  int
	ChunksProduced  int
	EmbeddingsWritten int
	Generation      uint64
	Duration        time.Duration
}

// Status is the status(collection) response of §4.5.
type Status struct {
	State     State
	Progress  Progress
	LastError string
}

// Progress is a point-in-time snapshot of how far the current (or most
// recent) indexing pass has gotten.
type Progress struct {
	FilesDiscovered   int
	FilesProcessed    int
	ChunksProduced    int
	EmbeddingsWritten int
}

// ProgressEvent is one item sent on the coordinator's bounded progress
// channel (§4.5 "Progress and backpressure").
type ProgressEvent struct {
	Collection string
	State      State
	Progress   Progress
	At         time.Time
}
