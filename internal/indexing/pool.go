package indexing

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/sourcelens/semcode/internal/cerr"
	"github.com/sourcelens/semcode/internal/chunk"
	"github.com/sourcelens/semcode/internal/domain"
)

// chunkResult pairs a source file with the chunks produced from it (or
// the error that stopped chunking for that file alone).
type chunkResult struct {
	path   string
	chunks []domain.CodeChunk
	err    error
}

// chunkFilesConcurrently runs the CPU-bound chunking step of §4.5 step 5
// across a bounded worker pool, grounded on the teacher's goroutine-
// plus-channel worker-pool shape (referenced in
// internal/indexer/indexer_v2.go's ProcessFiles comment) but built with
// golang.org/x/sync/errgroup, which gives first-error propagation and
// context-cancellation for free instead of hand-rolled WaitGroup
// bookkeeping.
//
// A per-file ParseError with Recoverable=true is not a pool-level
// failure: §4.1's failure semantics require the caller to still accept
// partial chunks, so those results are returned alongside successful
// ones rather than aborting the group.
func chunkFilesConcurrently(ctx context.Context, engine *chunk.Engine, root string, relPaths []string, workerCount int) ([]chunkResult, error) {
	if workerCount <= 0 {
		workerCount = runtime.GOMAXPROCS(0)
	}

	results := make([]chunkResult, len(relPaths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount)

	for i, relPath := range relPaths {
		i, relPath := i, relPath
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			absPath := joinRoot(root, relPath)
			content, err := readFile(absPath)
			if err != nil {
				return cerr.Wrap(cerr.IoError, "chunk_file", "failed to read file", err).WithPath(relPath)
			}
			chunks, err := engine.Chunk(relPath, content, "")
			if err != nil {
				if cerr.KindOf(err) == cerr.ParseError {
					results[i] = chunkResult{path: relPath, chunks: chunks, err: err}
					return nil
				}
				if cerr.KindOf(err) == cerr.Unsupported {
					results[i] = chunkResult{path: relPath, err: err}
					return nil
				}
				return err
			}
			results[i] = chunkResult{path: relPath, chunks: chunks}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
