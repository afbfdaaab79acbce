package narrator

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// workerPool runs blocking collaborator calls off the caller's goroutine.
// Go never blocks; at most size workers run at once and the rest wait
// for a slot.
type workerPool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

func newWorkerPool(size int) *workerPool {
	if size <= 0 {
		size = defaultWorkers
	}
	return &workerPool{sem: semaphore.NewWeighted(int64(size))}
}

func (p *workerPool) Go(ctx context.Context, name string, run func(context.Context) error) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		if err := p.sem.Acquire(ctx, 1); err != nil {
			logger.Debug("worker not started", "worker", name, "error", err)
			return
		}
		defer p.sem.Release(1)

		if err := panicSafeNamedWorker(name, run)(ctx); err != nil {
			logger.Warn("worker failed", "worker", name, "error", err)
		}
	}()
}

// Wait blocks until every started worker returned or ctx is done.
func (p *workerPool) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("workers did not finish: %w", ctx.Err())
	}
}
