package worker

import (
	"context"
)

// Run executes jobs on a pool of the given size and returns their results in
// the same order as jobs. A nil entry means the job never ran because ctx
// ended first.
func Run(ctx context.Context, workers int, jobs []Job) []Result {
	if len(jobs) == 0 {
		return []Result{}
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	pool := NewPool(ctx, workers)
	pool.Start()

	for _, job := range jobs {
		if !pool.Submit(job) {
			break
		}
	}

	results := pool.Wait()

	// Pad so callers can index results by job position
	for len(results) < len(jobs) {
		results = append(results, nil)
	}
	return results
}

// JobFunc adapts a function to the Job interface
type JobFunc func(ctx context.Context) Result

// Execute calls f(ctx)
func (f JobFunc) Execute(ctx context.Context) Result {
	return f(ctx)
}
