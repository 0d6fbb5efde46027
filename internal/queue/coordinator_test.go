package queue

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestDequeueForWorkerCompletesWhenEmptyAndIdle(t *testing.T) {
	c := New()
	c.AddWorker()

	stop := make(chan struct{})
	_, done := c.DequeueForWorker(stop)
	if !done {
		t.Errorf("DequeueForWorker() done = false on an empty, idle coordinator, want true")
	}
}

func TestDequeueForWorkerReturnsQueuedItem(t *testing.T) {
	c := New()
	c.Enqueue("/a")

	stop := make(chan struct{})
	path, done := c.DequeueForWorker(stop)
	if done {
		t.Fatalf("DequeueForWorker() done = true, want an item")
	}
	if path != "/a" {
		t.Errorf("DequeueForWorker() path = %q, want /a", path)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after dequeue", c.Len())
	}
}

func TestDequeueForWorkerWaitsOnBusyWorkers(t *testing.T) {
	c := New()
	c.AddWorker() // a phantom "busy" worker, never enqueues, never finishes
	c.mu.Lock()
	c.busyWorkers = 1
	c.mu.Unlock()

	stop := make(chan struct{})
	resultCh := make(chan bool, 1)
	go func() {
		_, done := c.DequeueForWorker(stop)
		resultCh <- done
	}()

	select {
	case <-resultCh:
		t.Fatalf("DequeueForWorker() returned while a worker is still busy and queue is empty")
	case <-time.After(20 * time.Millisecond):
	}

	close(stop)
	select {
	case done := <-resultCh:
		if !done {
			t.Errorf("DequeueForWorker() done = false after stop signal, want true")
		}
	case <-time.After(time.Second):
		t.Fatalf("DequeueForWorker() did not return after stop was closed")
	}
}

func TestRunDrainsNestedEnqueues(t *testing.T) {
	c := New()
	c.Enqueue("/root")

	var mu sync.Mutex
	var processed []string

	err := Run(context.Background(), c, 4, func(ctx context.Context, dir string) error {
		mu.Lock()
		processed = append(processed, dir)
		mu.Unlock()

		if dir == "/root" {
			c.EnqueueAll([]string{"/root/a", "/root/b"})
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(processed) != 3 {
		t.Errorf("processed = %v, want 3 directories", processed)
	}
}

func TestRunPropagatesWorkerError(t *testing.T) {
	c := New()
	c.Enqueue("/a")
	c.Enqueue("/b")

	wantErr := context.Canceled // stand-in sentinel; Run should surface whatever process returns
	err := Run(context.Background(), c, 2, func(ctx context.Context, dir string) error {
		if dir == "/a" {
			return wantErr
		}
		return nil
	})
	if err == nil {
		t.Fatalf("Run() error = nil, want an error from the failing worker")
	}
}
