// Package queue implements the directory work-queue coordinator the
// parallel crawl uses to solve "is the recursive walk finished?" without
// deadlock or premature exit.
package queue

import (
	"sync"
	"time"
)

// pollInterval is how long an idle dequeue sleeps before retrying, per
// the "sleep briefly (~1ms) and retry" rule.
const pollInterval = time.Millisecond

// Coordinator is a bounded-multi-producer/bounded-multi-consumer FIFO of
// directory paths. Correctness hinges on busyWorkers: a worker may only
// conclude the crawl is done when the queue is empty AND no other worker
// is still processing an item that might enqueue more work. This is
// deliberately hand-rolled rather than built on a generic worker-pool
// library, because no such library exposes the busy-count primitive this
// invariant needs.
type Coordinator struct {
	mu sync.Mutex
	items []string
	totalWorkers int
	busyWorkers int
	completed bool
}

// New returns an empty, not-yet-completed coordinator.
func New() *Coordinator {
	return &Coordinator{}
}

// Enqueue adds a directory path to the queue. Safe to call from inside a
// worker's processing step (subdirectories discovered mid-scan).
func (c *Coordinator) Enqueue(path string) {
	c.mu.Lock()
	c.items = append(c.items, path)
	c.mu.Unlock()
}

// EnqueueAll adds several paths at once under a single lock acquisition.
func (c *Coordinator) EnqueueAll(paths []string) {
	if len(paths) == 0 {
		return
	}
	c.mu.Lock()
	c.items = append(c.items, paths...)
	c.mu.Unlock()
}

// AddWorker registers a worker as present. Call once per worker on entry.
func (c *Coordinator) AddWorker() {
	c.mu.Lock()
	c.totalWorkers++
	c.mu.Unlock()
}

// RemoveWorker deregisters a worker. Call once per worker on exit.
func (c *Coordinator) RemoveWorker() {
	c.mu.Lock()
	c.totalWorkers--
	c.mu.Unlock()
}

// DequeueForWorker implements the dequeue protocol: pop and
// mark busy if work is available; declare completion if the queue is
// empty and no worker is mid-item; otherwise block briefly and retry.
// done is true when the coordinator has been marked completed, or when
// stop is closed (which does not mark it completed) — the caller's worker
// loop must exit in either case without further dequeues.
func (c *Coordinator) DequeueForWorker(stop <-chan struct{}) (path string, done bool) {
	for {
		c.mu.Lock()
		if len(c.items) > 0 {
			path = c.items[0]
			c.items = c.items[1:]
			c.busyWorkers++
			c.mu.Unlock()
			return path, false
		}
		if c.busyWorkers == 0 {
			c.completed = true
			c.mu.Unlock()
			return "", true
		}
		c.mu.Unlock()

		select {
		case <-stop:
			return "", true
		case <-time.After(pollInterval):
		}
	}
}

// WorkerFinishedItem decrements the busy count after a worker has
// finished processing an item (and enqueued any children it discovered).
func (c *Coordinator) WorkerFinishedItem() {
	c.mu.Lock()
	c.busyWorkers--
	c.mu.Unlock()
}

// Completed reports whether the coordinator has declared the crawl done.
func (c *Coordinator) Completed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}

// Len reports the current queue depth, for diagnostics only.
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
