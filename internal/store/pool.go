package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrUnavailable is returned by Pool operations when the underlying
// handle is missing or not yet initialized.
var ErrUnavailable = errors.New("store: unavailable")

// Mode names the pragma profile currently applied to the write handle.
type Mode int

const (
	ModeNormal Mode = iota
	ModeBulk
)

// Pool owns the single write connection and the parallel read pool over
// one SQLite file, applying a distinct pragma profile per role
// (busy_timeout + journal_mode via DSN pragmas, explicit
// SetMaxOpenConns/SetMaxIdleConns/SetConnMaxLifetime tuning). The single
// logical database is split into a writer handle and a reader handle
// because the writer and readers need divergent cache/mmap pragmas.
type Pool struct {
	path string
	writer *sql.DB
	reader *sql.DB
	mode Mode
}

// Open creates (or opens) the SQLite file at path, applies write-mode and
// read-mode pragmas, and runs migrations on the write handle.
func Open(ctx context.Context, path string) (*Pool, error) {
	writer, err := sql.Open("sqlite", path+"?"+writePragmaDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open write connection: %w", err)
	}
	writer.SetMaxOpenConns(1)
	writer.SetMaxIdleConns(1)
	writer.SetConnMaxLifetime(0)

	if err := writer.PingContext(ctx); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to ping write connection: %w", err)
	}

	reader, err := sql.Open("sqlite", path+"?"+readPragmaDSN())
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to open read connection: %w", err)
	}
	reader.SetMaxOpenConns(8)
	reader.SetMaxIdleConns(4)
	reader.SetConnMaxLifetime(5 * time.Minute)

	if err := reader.PingContext(ctx); err != nil {
		writer.Close()
		reader.Close()
		return nil, fmt.Errorf("failed to ping read connection: %w", err)
	}

	p := &Pool{path: path, writer: writer, reader: reader, mode: ModeNormal}

	if err := runMigrations(ctx, writer); err != nil {
		writer.Close()
		reader.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return p, nil
}

// writePragmaDSN is the write connection's pragma profile: WAL journaling,
// synchronous=NORMAL, a large negative cache (≈64MB in KB units), memory
// temp store, a ~30GB mmap ceiling, autocheckpoint after ~10k pages.
func writePragmaDSN() string {
	return "_pragma=busy_timeout(30000)" +
	"&_pragma=journal_mode(WAL)" +
	"&_pragma=synchronous(NORMAL)" +
	"&_pragma=cache_size(-64000)" +
	"&_pragma=temp_store(MEMORY)" +
	"&_pragma=mmap_size(32212254720)" +
	"&_pragma=wal_autocheckpoint(10000)"
}

// readPragmaDSN is the read connection's pragma profile: read-only
// intent via query_only, a larger cache (≈200MB), memory temp store.
func readPragmaDSN() string {
	return "_pragma=busy_timeout(30000)" +
	"&_pragma=journal_mode(WAL)" +
	"&_pragma=query_only(true)" +
	"&_pragma=cache_size(-200000)" +
	"&_pragma=temp_store(MEMORY)"
}

// The bulk profile, applied by EnterBulk as PRAGMA statements, differs
// from the write profile with synchronous=OFF, a larger cache (≈256MB),
// and a ~2GB mmap ceiling, for the transient bulk-load mode entered only
// by the indexer.
const (
	bulkCacheKB = -256000
	bulkMmapBytes = 2147483648
)

// Close releases both connections.
func (p *Pool) Close() error {
	var firstErr error
	if p.writer != nil {
		if err := p.writer.Close(); err != nil {
			firstErr = err
		}
	}
	if p.reader != nil {
		if err := p.reader.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Reconnect closes and reopens both handles against the same path.
func (p *Pool) Reconnect(ctx context.Context) error {
	if p == nil {
		return ErrUnavailable
	}
	p.Close()
	fresh, err := Open(ctx, p.path)
	if err != nil {
		return err
	}
	*p = *fresh
	return nil
}

// HealthCheck runs a scalar probe against the write connection.
func (p *Pool) HealthCheck(ctx context.Context) error {
	if p == nil || p.writer == nil {
		return ErrUnavailable
	}
	var one int
	return p.writer.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}

// Read runs fn against the shared read pool. Reads may run concurrently
// with each other and with writes (WAL mode); SQLite serializes actual
// disk access internally.
func (p *Pool) Read(ctx context.Context, fn func(*sql.DB) error) error {
	if p == nil || p.reader == nil {
		return ErrUnavailable
	}
	return fn(p.reader)
}

// Write runs fn against the single writer connection. Because the writer
// handle is capped at one open connection, concurrent callers serialize
// naturally through database/sql's connection checkout.
func (p *Pool) Write(ctx context.Context, fn func(*sql.DB) error) error {
	if p == nil || p.writer == nil {
		return ErrUnavailable
	}
	return fn(p.writer)
}

// EnterBulk switches the writer connection to the bulk pragma profile and
// begins the single long-lived transaction bulk mode runs inside. Only
// the indexer calls this; nesting is not supported.
func (p *Pool) EnterBulk(ctx context.Context) (*sql.Tx, error) {
	if p == nil || p.writer == nil {
		return nil, ErrUnavailable
	}
	pragmas := []string{
		"PRAGMA synchronous=OFF",
		fmt.Sprintf("PRAGMA cache_size=%d", bulkCacheKB),
		fmt.Sprintf("PRAGMA mmap_size=%d", bulkMmapBytes),
	}
	for _, pragma := range pragmas {
		if _, err := p.writer.ExecContext(ctx, pragma); err != nil {
			return nil, fmt.Errorf("failed to apply bulk pragma: %w", err)
		}
	}
	tx, err := p.writer.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin bulk transaction: %w", err)
	}
	p.mode = ModeBulk
	return tx, nil
}

// ExitBulk commits the bulk transaction, restores write-mode pragmas, and
// runs VACUUM+ANALYZE. On commit failure the transaction is rolled back
// and the caller should treat this as IndexingFailed per the design.
func (p *Pool) ExitBulk(ctx context.Context, tx *sql.Tx) error {
	if p == nil || p.writer == nil {
		return ErrUnavailable
	}
	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to commit bulk transaction: %w", err)
	}
	p.mode = ModeNormal

	restore := []string{
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-64000",
		"PRAGMA mmap_size=32212254720",
	}
	for _, pragma := range restore {
		if _, err := p.writer.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to restore write pragma: %w", err)
		}
	}

	if _, err := p.writer.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("failed to vacuum: %w", err)
	}
	if _, err := p.writer.ExecContext(ctx, "ANALYZE"); err != nil {
		return fmt.Errorf("failed to analyze: %w", err)
	}
	return nil
}

// Mode reports the pool's current pragma profile.
func (p *Pool) Mode() Mode {
	if p == nil {
		return ModeNormal
	}
	return p.mode
}

// Path returns the backing file path, used by search_stats() to size the
// on-disk index.
func (p *Pool) Path() string {
	if p == nil {
		return ""
	}
	return p.path
}
