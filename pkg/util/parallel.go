package util

import (
	"context"
	"sync"
)

// Map runs fn over inputs on at most workers goroutines and returns the
// results in input order. The first error cancels the remaining work.
func Map[T, R any](ctx context.Context, inputs []T, workers int, fn func(context.Context, T) (R, error)) ([]R, error) {
	results := make([]R, len(inputs))
	if len(inputs) == 0 {
		return results, nil
	}
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := make(chan int)
	errCh := make(chan error, 1)

	var wg sync.WaitGroup
	for i := 0; i < min(workers, len(inputs)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range tasks {
				r, err := fn(ctx, inputs[idx])
				if err != nil {
					select {
					case errCh <- err:
						cancel()
					default:
					}
					return
				}
				results[idx] = r
			}
		}()
	}

	go func() {
		defer close(tasks)
		for idx := range inputs {
			select {
			case <-ctx.Done():
				return
			case tasks <- idx:
			}
		}
	}()

	wg.Wait()

	select {
	case err := <-errCh:
		return nil, err
	default:
		return results, ctx.Err()
	}
}
