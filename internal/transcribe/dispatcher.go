package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/maauso/transcribe-api/internal/audio"
)

// Dispatcher runs a ChunkTranscriber over every chunk of an upload.
//
// All Dispatch calls on one Dispatcher share a single concurrency ceiling,
// so the number of in-flight recognition calls stays bounded across
// concurrent uploads.
type Dispatcher struct {
	transcriber ChunkTranscriber
	sem         *semaphore.Weighted
	limit       int
	logger      *slog.Logger
}

// NewDispatcher creates a Dispatcher admitting at most maxConcurrent chunks
// at a time. A non-positive maxConcurrent uses runtime.GOMAXPROCS(0).
func NewDispatcher(transcriber ChunkTranscriber, maxConcurrent int, logger *slog.Logger) *Dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		transcriber: transcriber,
		sem:         semaphore.NewWeighted(int64(maxConcurrent)),
		limit:       maxConcurrent,
		logger:      logger,
	}
}

// Limit returns the concurrency ceiling.
func (d *Dispatcher) Limit() int {
	return d.limit
}

// Dispatch transcribes chunks concurrently and blocks until every chunk has a
// result. The result at position i belongs to chunks[i], whatever the order
// in which the chunks complete. A failing chunk never stops the others.
//
// If ctx is cancelled, chunks still waiting for a slot get a service-error
// result; chunks already running see the cancellation through ctx.
func (d *Dispatcher) Dispatch(ctx context.Context, chunks []audio.Chunk, languageHint string) []Result {
	results := make([]Result, len(chunks))

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := d.sem.Acquire(ctx, 1); err != nil {
				results[i] = Result{
					Index: chunk.Index,
					Kind:  KindServiceError,
					Err:   fmt.Errorf("chunk not dispatched: %w", err),
				}
				return
			}
			defer d.sem.Release(1)

			r := d.transcriber.Transcribe(ctx, chunk, languageHint)
			r.Index = chunk.Index
			results[i] = r
		}()
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Kind == KindServiceError {
			failed++
		}
	}
	d.logger.InfoContext(ctx, "chunks dispatched",
		slog.Int("chunks", len(chunks)),
		slog.Int("service_errors", failed),
		slog.Int("max_concurrent", d.limit),
	)

	return results
}
