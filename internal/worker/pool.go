// Package worker runs bounded pools of independent pipeline tasks.
package worker

import (
	"context"
	"sync"
)

// Task is one unit of pipeline work.
type Task func(ctx context.Context) error

// Run executes tasks on at most size concurrent workers and returns one
// outcome per task, index-aligned with the input. Tasks are fully
// independent: a failure is captured in the result slice and never aborts
// a sibling. Run blocks until every task has finished.
func Run(ctx context.Context, size int, tasks []Task) []error {
	if len(tasks) == 0 {
		return nil
	}
	if size <= 0 || size > len(tasks) {
		size = len(tasks)
	}

	results := make([]error, len(tasks))
	indices := make(chan int)

	var wg sync.WaitGroup
	wg.Add(size)
	for range size {
		go func() {
			defer wg.Done()
			for i := range indices {
				results[i] = tasks[i](ctx)
			}
		}()
	}

	for i := range tasks {
		indices <- i
	}
	close(indices)
	wg.Wait()

	return results
}

// PoolSize derives a member-pool size so each worker handles roughly
// perWorker members, capped at maxWorkers.
func PoolSize(taskCount, perWorker, maxWorkers int) int {
	if taskCount == 0 {
		return 0
	}
	if perWorker <= 0 {
		perWorker = 1
	}
	size := (taskCount + perWorker - 1) / perWorker
	if maxWorkers > 0 && size > maxWorkers {
		size = maxWorkers
	}
	if size < 1 {
		size = 1
	}
	return size
}
