package usecase

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
)

func normalizeWorkerCount(requested, tasks int) int {
	if requested <= 0 {
		requested = runtime.GOMAXPROCS(0)
	}
	if tasks > 0 && requested > tasks {
		requested = tasks
	}
	return max(requested, 1)
}

// forEachPartition runs fn for every partition on an ants pool. Partitions
// share nothing but the store. Once ctx is done the remaining partitions
// are not started.
func forEachPartition[P any](ctx context.Context, workers int, partitions []P, fn func(context.Context, P)) error {
	if len(partitions) == 0 {
		return nil
	}

	pool, err := ants.NewPool(normalizeWorkerCount(workers, len(partitions)))
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for _, p := range partitions {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			fn(ctx, p)
		}); err != nil {
			wg.Done()
			wg.Wait()
			return fmt.Errorf("submit partition to worker pool: %w", err)
		}
	}
	wg.Wait()
	return ctx.Err()
}
