package core

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/gg7/gentoostats/internal/types"
)

// maxParallelWorkers caps the worker pool; the VDB is local disk and more
// readers only add seek contention.
const maxParallelWorkers = 8

// MetadataResult is the outcome of fetching one package's metadata
type MetadataResult struct {
	CPV      string
	Metadata types.PackageMetadata
	Error    error
}

// ParallelExecutor fetches package metadata with a bounded worker pool
type ParallelExecutor struct {
	maxWorkers int
	progress   ProgressTracker
}

// NewParallelExecutor creates a new parallel executor. workers <= 0 means
// runtime.NumCPU(); progress may be nil.
func NewParallelExecutor(workers int, progress ProgressTracker) *ParallelExecutor {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > maxParallelWorkers {
		workers = maxParallelWorkers
	}
	if progress == nil {
		progress = noopProgress{}
	}

	return &ParallelExecutor{
		maxWorkers: workers,
		progress:   progress,
	}
}

// Workers returns the effective pool size.
func (p *ParallelExecutor) Workers() int { return p.maxWorkers }

// FetchMetadataFunc reads one package's metadata.
type FetchMetadataFunc func(ctx context.Context, cpv string) (types.PackageMetadata, error)

// ExecuteParallelFetch runs fetch for every key. The first failure cancels
// the remaining work and is returned; results are then nil. Successful
// results come back in input order.
func (p *ParallelExecutor) ExecuteParallelFetch(ctx context.Context, keys []string, fetch FetchMetadataFunc) ([]MetadataResult, error) {
	if len(keys) == 0 {
		return nil, ctx.Err()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workerCount := p.maxWorkers
	if workerCount > len(keys) {
		workerCount = len(keys)
	}

	jobs := make(chan int, len(keys))
	results := make([]MetadataResult, len(keys))

	var (
		wg       sync.WaitGroup
		failOnce sync.Once
		firstErr error
	)
	fail := func(err error) {
		failOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				// Short-circuit if context is cancelled
				if ctx.Err() != nil {
					fail(ctx.Err())
					continue
				}

				cpv := keys[idx]
				meta, err := fetch(ctx, cpv)
				results[idx] = MetadataResult{CPV: cpv, Metadata: meta, Error: err}
				if err != nil {
					fail(fmt.Errorf("%s: %w", cpv, err))
					continue
				}
				p.progress.Increment(cpv)
			}
		}()
	}

	for i := range keys {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
