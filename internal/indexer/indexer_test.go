package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/akelsh/seek/internal/scanner"
	"github.com/akelsh/seek/internal/store"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func writeTestFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func newTestIndexer(t *testing.T) (*Indexer, *store.Store) {
	return newTestIndexerWithBatchSize(t, 0)
}

func newTestIndexerWithBatchSize(t *testing.T, batchSize int) (*Indexer, *store.Store) {
	t.Helper()
	pool, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "idx.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	st := store.New(pool, nopLogger{})
	noExclude := func(string, string, bool) bool { return false }
	sc := scanner.New(scanner.NewFactory(noExclude, nil), nil)

	return New(st, pool, sc, nopLogger{}, 0, batchSize), st
}

func TestPerformFullIndexingIndexesTree(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "readme.md"), 10)
	writeTestFile(t, filepath.Join(root, "sub", "notes.txt"), 5)

	ix, st := newTestIndexer(t)

	var progressCalls []Progress
	_, err := ix.PerformFullIndexing(context.Background(), []string{root}, func(p Progress) {
		progressCalls = append(progressCalls, p)
	})
	if err != nil {
		t.Fatalf("PerformFullIndexing() error = %v", err)
	}

	count, err := st.FileCount(context.Background())
	if err != nil {
		t.Fatalf("FileCount() error = %v", err)
	}
	// readme.md, sub (dir), notes.txt = 3 entries; the root itself is not recorded.
	if count != 3 {
		t.Errorf("FileCount() = %d, want 3", count)
	}

	if len(progressCalls) == 0 {
		t.Fatalf("expected at least one progress callback")
	}
	last := progressCalls[len(progressCalls)-1]
	if last.Fraction != 1.0 {
		t.Errorf("final progress fraction = %v, want 1.0", last.Fraction)
	}

	meta, err := st.GetMetadata(context.Background())
	if err != nil {
		t.Fatalf("GetMetadata() error = %v", err)
	}
	if !meta.IsIndexed {
		t.Errorf("IsIndexed = false after full index, want true")
	}
	if meta.TotalFilesIndexed != 3 {
		t.Errorf("TotalFilesIndexed = %d, want 3", meta.TotalFilesIndexed)
	}
}

func TestPerformFullIndexingIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "a.txt"), 1)
	writeTestFile(t, filepath.Join(root, "b.txt"), 1)

	ix, st := newTestIndexer(t)
	ctx := context.Background()

	if _, err := ix.PerformFullIndexing(ctx, []string{root}, nil); err != nil {
		t.Fatalf("first PerformFullIndexing() error = %v", err)
	}
	first, err := st.FileCount(ctx)
	if err != nil {
		t.Fatalf("FileCount() error = %v", err)
	}

	if _, err := ix.PerformFullIndexing(ctx, []string{root}, nil); err != nil {
		t.Fatalf("second PerformFullIndexing() error = %v", err)
	}
	second, err := st.FileCount(ctx)
	if err != nil {
		t.Fatalf("FileCount() error = %v", err)
	}

	if first != second {
		t.Errorf("FileCount() not idempotent: first=%d second=%d", first, second)
	}
}

func TestIndexRootChunksUpsertsByBatchSize(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 5; i++ {
		writeTestFile(t, filepath.Join(root, fmt.Sprintf("file%d.txt", i)), 1)
	}

	ix, st := newTestIndexerWithBatchSize(t, 2)

	if _, err := ix.PerformFullIndexing(context.Background(), []string{root}, nil); err != nil {
		t.Fatalf("PerformFullIndexing() error = %v", err)
	}

	count, err := st.FileCount(context.Background())
	if err != nil {
		t.Fatalf("FileCount() error = %v", err)
	}
	// 5 root-level files, pushed in chunks of 2; no subdirectories to
	// queue, so nothing else gets indexed.
	if count != 5 {
		t.Errorf("FileCount() = %d, want 5", count)
	}
}

type alwaysValid struct{}

func (alwaysValid) IsEventIDValid(ctx context.Context, eventID int64, roots []string) bool { return true }

func TestPerformSmartIndexingSkipsWhenValid(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "a.txt"), 1)

	ix, st := newTestIndexer(t)
	ctx := context.Background()

	if _, err := ix.PerformFullIndexing(ctx, []string{root}, nil); err != nil {
		t.Fatalf("PerformFullIndexing() error = %v", err)
	}
	meta, err := st.GetMetadata(ctx)
	if err != nil {
		t.Fatalf("GetMetadata() error = %v", err)
	}
	meta.LastEventID = 5
	meta.HasLastEventID = true
	if err := st.SetMetadata(ctx, meta); err != nil {
		t.Fatalf("SetMetadata() error = %v", err)
	}

	writeTestFile(t, filepath.Join(root, "b.txt"), 1) // created after indexing; should NOT be picked up

	var called bool
	_, err = ix.PerformSmartIndexing(ctx, []string{root}, alwaysValid{}, func(Progress) { called = true })
	if err != nil {
		t.Fatalf("PerformSmartIndexing() error = %v", err)
	}
	if !called {
		t.Errorf("expected a progress callback even on the skip path")
	}

	count, err := st.FileCount(ctx)
	if err != nil {
		t.Fatalf("FileCount() error = %v", err)
	}
	if count != 1 { // a.txt from the prior full index; b.txt skipped
		t.Errorf("FileCount() = %d, want 1 (smart indexing should have skipped the rescan)", count)
	}
}
