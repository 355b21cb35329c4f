// Package training implements the two training stages: gradient descent on
// the forward model, then policy search for the inverse model against the
// frozen forward model.
package training

import (
	"context"
	"sync"
)

// RunParallel executes tasks on a bounded pool of workers and returns the
// first error encountered. A cancelled context drains the remaining tasks
// without running them.
func RunParallel(ctx context.Context, workers int, tasks []func(context.Context) error) error {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}
	if workers == 0 {
		return nil
	}

	queue := make(chan func(context.Context) error)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				if ctx.Err() != nil {
					continue
				}
				if err := task(ctx); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}
		}()
	}

	for _, task := range tasks {
		queue <- task
	}
	close(queue)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
