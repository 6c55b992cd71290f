package llm

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// defaultMaxConcurrent bounds provider calls when no limit is configured.
const defaultMaxConcurrent = 8

// WorkerPoolConfig configures the LLM worker pool.
type WorkerPoolConfig struct {
	MaxConcurrent int // maximum in-flight LLM calls
}

// DefaultWorkerPoolConfig returns sensible defaults.
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{MaxConcurrent: defaultMaxConcurrent}
}

// WorkerPool bounds concurrent LLM calls. Offline tooling uses it to fan
// out per-table assessment calls without overwhelming the provider;
// results arrive as they complete.
type WorkerPool struct {
	workers int
	logger  *zap.Logger
}

// NewWorkerPool creates a new LLM worker pool.
func NewWorkerPool(config WorkerPoolConfig, logger *zap.Logger) *WorkerPool {
	workers := config.MaxConcurrent
	if workers < 1 {
		workers = defaultMaxConcurrent
	}
	return &WorkerPool{
		workers: workers,
		logger:  logger.Named("llm-worker-pool"),
	}
}

// WorkItem is one unit of work; ID is carried through to the result for
// correlation.
type WorkItem[T any] struct {
	ID      string
	Execute func(ctx context.Context) (T, error)
}

// WorkResult pairs a work item's outcome with its ID.
type WorkResult[T any] struct {
	ID     string
	Result T
	Err    error
}

// Process runs all items through a fixed set of workers and returns the
// results in completion order. Individual failures are recorded per item;
// the batch always runs to the end. A canceled context fails the items
// that have not started yet.
func Process[T any](
	ctx context.Context,
	pool *WorkerPool,
	items []WorkItem[T],
	onProgress func(completed, total int),
) []WorkResult[T] {
	if len(items) == 0 {
		return nil
	}

	jobs := make(chan WorkItem[T])
	out := make(chan WorkResult[T], len(items))

	var wg sync.WaitGroup
	for w := 0; w < pool.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				if err := ctx.Err(); err != nil {
					var zero T
					out <- WorkResult[T]{ID: item.ID, Result: zero, Err: err}
					continue
				}
				result, err := item.Execute(ctx)
				out <- WorkResult[T]{ID: item.ID, Result: result, Err: err}
			}
		}()
	}

	go func() {
		for _, item := range items {
			jobs <- item
		}
		close(jobs)
		wg.Wait()
		close(out)
	}()

	results := make([]WorkResult[T], 0, len(items))
	for result := range out {
		results = append(results, result)
		if onProgress != nil {
			onProgress(len(results), len(items))
		}
	}
	return results
}
