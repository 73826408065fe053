package build

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Stats holds simple execution statistics.
type Stats struct {
	Total       int64
	Succeeded   int64
	Failed      int64
	Cached      int64
	MaxParallel int64
}

// Batch runs independent jobs concurrently, at most Jobs at a time. Every
// translation owns its own compilation context; nothing is shared between them
// except the pipeline's cache.
type Batch struct {
	Pipeline *Pipeline
	Jobs     int
}

// NewBatch constructs a Batch (jobs<=0 => NumCPU).
func NewBatch(p *Pipeline, jobs int) *Batch {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	return &Batch{Pipeline: p, Jobs: jobs}
}

// Run executes every job and returns the results ordered by input path. A failing
// job does not stop the others; the returned error is only set when ctx is done
// before all jobs were started.
func (b *Batch) Run(ctx context.Context, jobs []Job) ([]Result, Stats, error) {
	results := make([]Result, 0, len(jobs))
	var mu sync.Mutex
	stats := Stats{Total: int64(len(jobs))}

	semaphore := make(chan struct{}, b.Jobs)
	var running int64

	g, gctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			select {
			case semaphore <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-semaphore }()

			cur := atomic.AddInt64(&running, 1)
			res := b.Pipeline.Run(job)
			atomic.AddInt64(&running, -1)

			mu.Lock()
			defer mu.Unlock()
			if cur > stats.MaxParallel {
				stats.MaxParallel = cur
			}
			results = append(results, res)
			switch {
			case res.Err != nil:
				stats.Failed++
			case res.Cached:
				stats.Cached++
				stats.Succeeded++
			default:
				stats.Succeeded++
			}
			return nil
		})
	}
	err := g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Input < results[j].Input })
	return results, stats, err
}
