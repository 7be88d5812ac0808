// Package parallel runs index-range work on a bounded worker pool.
package parallel

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sourcegraph/conc/pool"
)

// DefaultChunkSize is the number of items handed to a worker at a time.
const DefaultChunkSize = 4096

// Chunk is a half-open index range [Start, End) of the work.
type Chunk struct {
	Index int
	Start int
	End   int
}

// Len returns the number of items in the chunk.
func (c Chunk) Len() int {
	return c.End - c.Start
}

// ChunkError represents an error that occurred while processing a chunk.
type ChunkError struct {
	Chunk Chunk
	Err   error
}

func (e ChunkError) Error() string {
	return fmt.Sprintf("chunk %d [%d,%d): %v", e.Chunk.Index, e.Chunk.Start, e.Chunk.End, e.Err)
}

// Unwrap returns the underlying error.
func (e ChunkError) Unwrap() error {
	return e.Err
}

// ProgressFunc is called after each chunk completes with the number of items it held.
type ProgressFunc func(done int)

// Split divides n items into chunks of at most size items. The chunk layout
// depends only on n and size, never on the worker count.
func Split(n, size int) []Chunk {
	if n <= 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}
	chunks := make([]Chunk, 0, (n+size-1)/size)
	for start, idx := 0, 0; start < n; start, idx = start+size, idx+1 {
		end := min(start+size, n)
		chunks = append(chunks, Chunk{Index: idx, Start: start, End: end})
	}
	return chunks
}

// Workers returns the worker count to use, defaulting to NumCPU when n <= 0.
func Workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// ForEachChunk processes n items in chunks on at most maxWorkers goroutines.
// The first error cancels the remaining chunks and is returned wrapped in a
// ChunkError. A cancelled ctx returns ctx.Err().
func ForEachChunk(ctx context.Context, n, size, maxWorkers int, fn func(context.Context, Chunk) error, onProgress ProgressFunc) error {
	chunks := Split(n, size)
	if len(chunks) == 0 {
		return ctx.Err()
	}

	p := pool.New().
		WithMaxGoroutines(Workers(maxWorkers)).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()
	for _, c := range chunks {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx, c); err != nil {
				return ChunkError{Chunk: c, Err: err}
			}
			if onProgress != nil {
				onProgress(c.Len())
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}
	// Cancellation after the last chunk was scheduled still fails the run.
	return ctx.Err()
}
