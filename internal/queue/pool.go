package queue

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run spins up n workers against coordinator, each invoking process for
// every dequeued directory until the coordinator signals completion or
// ctx is cancelled. process may call coordinator.Enqueue/EnqueueAll for
// subdirectories it discovers; it must not call WorkerFinishedItem
// itself — Run does that once process returns. The first worker error
// cancels the group and is returned; other workers unwind via ctx.
func Run(ctx context.Context, coordinator *Coordinator, n int, process func(ctx context.Context, dir string) error) error {
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			coordinator.AddWorker()
			defer coordinator.RemoveWorker()

			for {
				dir, done := coordinator.DequeueForWorker(gctx.Done())
				if done {
					return nil
				}
				err := process(gctx, dir)
				coordinator.WorkerFinishedItem()
				if err != nil {
					return err
				}
			}
		})
	}

	return g.Wait()
}
