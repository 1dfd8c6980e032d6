// internal/downloader/pool.go
package downloader

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// MaxConcurrency caps the number of download workers
const MaxConcurrency = 16

// WorkerPool manages concurrent downloads using a worker pool pattern
type WorkerPool struct {
	downloader  *Downloader
	concurrency int
}

// NewWorkerPool creates a new worker pool with specified concurrency
func NewWorkerPool(d *Downloader, concurrency int) *WorkerPool {
	concurrency = min(max(concurrency, 1), MaxConcurrency)
	return &WorkerPool{downloader: d, concurrency: concurrency}
}

// Run downloads all jobs and returns their results in job order. onDone, if
// set, is called from the collecting goroutine as each job finishes. Jobs not
// started before ctx is done are reported with the context error.
func (wp *WorkerPool) Run(ctx context.Context, jobs []Job, onDone func(*Result)) []*Result {
	results := make([]*Result, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	type done struct {
		index  int
		result *Result
	}
	queue := make(chan int)
	finished := make(chan done)

	var wg sync.WaitGroup
	for w := 1; w <= min(wp.concurrency, len(jobs)); w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := range queue {
				log.Debug().Int("worker_id", id).Str("url", jobs[i].URL).Msg("Worker processing download")
				finished <- done{i, wp.downloader.Download(ctx, jobs[i])}
			}
		}(w)
	}

	go func() {
		defer close(queue)
		for i := range jobs {
			select {
			case queue <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(finished)
	}()

	for d := range finished {
		results[d.index] = d.result
		if onDone != nil {
			onDone(d.result)
		}
	}

	for i, r := range results {
		if r == nil {
			results[i] = &Result{Job: jobs[i], Err: fmt.Errorf("not started: %w", context.Cause(ctx))}
		}
	}
	return results
}
