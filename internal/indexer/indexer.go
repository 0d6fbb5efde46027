// Package indexer orchestrates full and smart indexing: scanning roots,
// driving the work-queue coordinator, batching writes through bulk mode,
// and reporting progress.
package indexer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/akelsh/seek/internal/queue"
	"github.com/akelsh/seek/internal/scanner"
	"github.com/akelsh/seek/internal/store"
)

// Tunables default values, per the concurrency tunables table.
const (
	DefaultFullWorkers = 8
	DefaultRebuildWorkers = 4
	DefaultBatchSize = 50000
)

// Logger is the minimal structured-logging surface the indexer needs,
// satisfied by *logging.Logger's printf-style Debug/Info/Warn/Error.
type Logger interface {
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// ProgressFunc is a single-writer, fire-and-forget progress callback.
type ProgressFunc func(Progress)

// Progress mirrors the progress callback contract.
type Progress struct {
	Fraction float64
	Processed int
	Total int
	Message string
}

// Statistics accumulates counters across a run, per the design.
type Statistics struct {
	TotalProcessed int
	ExcludedPathCount int
	SymlinkCount int
	RebuiltCount int
	startedAt time.Time
	finishedAt time.Time
}

// Rate reports processed-per-second, formatted for humans via humanize.
func (s Statistics) Rate() string {
	elapsed := s.finishedAt.Sub(s.startedAt).Seconds()
	if elapsed <= 0 {
		return humanize.Comma(int64(s.TotalProcessed)) + "/s"
	}
	return humanize.Comma(int64(float64(s.TotalProcessed)/elapsed)) + "/s"
}

// ErrIndexingFailed wraps a transaction-level failure in the bulk-begin
// or commit phase, per the failure semantics.
type ErrIndexingFailed struct {
	Cause error
}

func (e *ErrIndexingFailed) Error() string {
	return fmt.Sprintf("indexing failed: %v", e.Cause)
}

func (e *ErrIndexingFailed) Unwrap() error { return e.Cause }

// MonitorValidity answers "is last_event_id still valid for roots", the
// dependency the smart-indexing decision needs from the change monitor
// (see internal/monitor.Monitor.IsEventIDValid), kept as an interface here
// to avoid a package import cycle between indexer and monitor.
type MonitorValidity interface {
	IsEventIDValid(ctx context.Context, eventID int64, roots []string) bool
}

// Indexer orchestrates full/smart indexing: collaborators held directly
// on the struct, a logger, and named sequential steps each logged
// individually as they run.
type Indexer struct {
	store *store.Store
	pool *store.Pool
	scanner *scanner.Scanner
	logger Logger
	fullWorkers int
	batchSize int
}

// New builds an Indexer. fullWorkers and batchSize come from
// ConcurrencyConfig's w_full/batch_size; a non-positive value falls back
// to the package default.
func New(st *store.Store, pool *store.Pool, sc *scanner.Scanner, logger Logger, fullWorkers, batchSize int) *Indexer {
	if fullWorkers <= 0 {
		fullWorkers = DefaultFullWorkers
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Indexer{
		store: st,
		pool: pool,
		scanner: sc,
		logger: logger,
		fullWorkers: fullWorkers,
		batchSize: batchSize,
	}
}

// PerformSmartIndexing implements the smart-indexing decision:
// do nothing if the store is already indexed and the stored last_event_id
// is still valid for roots (incremental updates will arrive live from the
// monitor); otherwise fall back to a full index.
func (ix *Indexer) PerformSmartIndexing(ctx context.Context, roots []string, monitor MonitorValidity, progress ProgressFunc) (Statistics, error) {
	meta, err := ix.store.GetMetadata(ctx)
	if err != nil {
		return Statistics{}, fmt.Errorf("failed to read metadata for smart-indexing decision: %w", err)
	}

	if meta.IsIndexed && meta.HasLastEventID && monitor != nil && monitor.IsEventIDValid(ctx, meta.LastEventID, roots) {
		ix.logger.Info("smart indexing: existing index valid, skipping full scan (last_event_id=%d)", meta.LastEventID)
		if progress != nil {
			progress(Progress{Fraction: 1.0, Message: "index already current"})
		}
		return Statistics{}, nil
	}

	ix.logger.Info("smart indexing: falling back to full index (is_indexed=%v, has_last_event_id=%v)",
		meta.IsIndexed, meta.HasLastEventID)
	return ix.PerformFullIndexing(ctx, roots, progress)
}

// PerformFullIndexing implements the full indexing sequence.
func (ix *Indexer) PerformFullIndexing(ctx context.Context, roots []string, progress ProgressFunc) (Statistics, error) {
	stats := Statistics{startedAt: time.Now()}
	report := func(fraction float64, processed, total int, msg string) {
		if progress != nil {
			progress(Progress{Fraction: fraction, Processed: processed, Total: total, Message: msg})
		}
	}

	report(0.0, 0, 0, "starting full index")

	count, err := ix.store.FileCount(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to check existing entry count: %w", err)
	}
	if count > 0 {
		if err := ix.store.Truncate(ctx); err != nil {
			return stats, fmt.Errorf("failed to truncate store before reindex: %w", err)
		}
	}
	if err := ix.store.SetMetadata(ctx, store.Metadata{IndexingVersion: 1}); err != nil {
		return stats, fmt.Errorf("failed to reset metadata before reindex: %w", err)
	}

	tx, err := ix.pool.EnterBulk(ctx)
	if err != nil {
		return stats, &ErrIndexingFailed{Cause: err}
	}

	for i, root := range roots {
		select {
		case <-ctx.Done():
			ix.pool.ExitBulk(ctx, tx) //nolint:errcheck — best-effort cleanup on cancellation
			return stats, ctx.Err()
		default:
		}

		if err := ix.indexRoot(ctx, tx, root, &stats, report, i, len(roots)); err != nil {
			ix.logger.Error("failed to index root %q, continuing with remaining roots: %v", root, err)
		}
	}

	if err := ix.pool.ExitBulk(ctx, tx); err != nil {
		return stats, &ErrIndexingFailed{Cause: err}
	}

	stats.finishedAt = time.Now()

	if err := ix.store.SetMetadata(ctx, store.Metadata{
			IsIndexed: true,
			LastIndexedDate: stats.finishedAt,
			IndexedPaths: roots,
			TotalFilesIndexed: stats.TotalProcessed,
			IndexingVersion: 1,
			RootsFingerprint: store.RootsFingerprint(roots),
		}); err != nil {
		return stats, fmt.Errorf("failed to mark store indexed: %w", err)
	}

	report(1.0, stats.TotalProcessed, stats.TotalProcessed,
		fmt.Sprintf("indexed %s entries at %s", humanize.Comma(int64(stats.TotalProcessed)), stats.Rate()))

	return stats, nil
}

func (ix *Indexer) indexRoot(ctx context.Context, tx *sql.Tx, root string, stats *Statistics, report func(float64, int, int, string), rootIndex, rootTotal int) error {
	rootFiles := ix.scanner.ScanRootLevelFiles(root)
	for len(rootFiles) > 0 {
		n := ix.batchSize
		if n > len(rootFiles) {
			n = len(rootFiles)
		}
		chunk := rootFiles[:n]
		if err := ix.store.UpsertEntries(ctx, tx, chunk); err != nil {
			ix.logger.Warn("batch insert failed for root-level files under %q, skipping batch: %v", root, err)
		}
		stats.TotalProcessed += len(chunk)
		rootFiles = rootFiles[n:]
	}

	coordinator := queue.New()
	coordinator.EnqueueAll(ix.scanner.TopLevelDirectories(root))

	err := queue.Run(ctx, coordinator, ix.fullWorkers, func(ctx context.Context, dir string) error {
			return ix.processDirectory(ctx, tx, coordinator, dir, stats)
		})

	report(float64(rootIndex+1)/float64(rootTotal), stats.TotalProcessed, stats.TotalProcessed,
		fmt.Sprintf("finished root %s", root))

	return err
}

// processDirectory implements the per-directory processing:
// emit an entry for the directory itself, classify each child, enqueue
// subdirectories, and batch-write everything collected. All writes run
// through the single bulk transaction tx rather than opening a fresh one
// — the writer connection is capped at one open connection, so a nested
// BeginTx here would block forever on the connection the bulk transaction
// already holds.
func (ix *Indexer) processDirectory(ctx context.Context, tx *sql.Tx, coordinator *queue.Coordinator, dir string, stats *Statistics) error {
	selfEntry := ix.scanner.SelfEntry(dir)
	children, symlinks, excluded := ix.scanner.ScanOneLevel(dir)

	stats.SymlinkCount += symlinks
	stats.ExcludedPathCount += excluded

	batch := []store.Entry{selfEntry}

	for _, c := range children {
		if c.IsDirectory {
			coordinator.Enqueue(c.Path)
			continue
		}
		batch = append(batch, c.Entry)
	}

	if err := ix.store.UpsertEntries(ctx, tx, batch); err != nil {
		ix.logger.Warn("batch insert failed for %q, skipping batch: %v", dir, err)
	}
	stats.TotalProcessed += len(batch)

	return nil
}
