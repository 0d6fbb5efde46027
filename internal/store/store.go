package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"
)

// Logger is the minimal structured-logging surface Store needs — just
// enough to report a malformed row without aborting the query it came
// from.
type Logger interface {
	Warn(format string, args ...interface{})
}

// noopLogger discards everything; used when New is called without a
// logger so Store never has to nil-check before logging.
type noopLogger struct{}

func (noopLogger) Warn(string, ...interface{}) {}

// Store is the entry point this package exposes to the rest of the
// service: a thin wrapper over Pool that turns raw rows into
// Entry/Metadata values. Method naming and the fmt.Errorf("...: %w", err)
// wrapping throughout are consistent across every exported method.
type Store struct {
	pool *Pool
	logger Logger
}

// New wraps an already-opened Pool. logger may be nil, in which case
// Store logs nowhere.
func New(pool *Pool, logger Logger) *Store {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Store{pool: pool, logger: logger}
}

// UpsertEntry inserts or replaces a single entry, keyed on full_path.
func (s *Store) UpsertEntry(ctx context.Context, e Entry) error {
	return s.pool.Write(ctx, func(db *sql.DB) error {
			_, err := db.ExecContext(ctx, upsertSQL,
				e.Name, e.FullPath, e.IsDirectory, nullableString(e.FileExtension, e.HasExtension),
				nullableInt64(e.Size, e.HasSize), epoch(e.DateModified), epoch(e.DateAdded))
			if err != nil {
				return fmt.Errorf("failed to upsert entry %q: %w", e.FullPath, err)
			}
			return nil
		})
}

// UpsertEntries inserts or replaces a batch inside one transaction, used
// by both full indexing (bulk-mode tx supplied by the caller) and the
// change monitor's coalesced batches (tx nil, a fresh transaction opened
// here).
func (s *Store) UpsertEntries(ctx context.Context, tx *sql.Tx, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if tx != nil {
		return upsertBatch(ctx, tx, entries)
	}
	return s.pool.Write(ctx, func(db *sql.DB) error {
			txn, err := db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("failed to begin batch transaction: %w", err)
			}
			if err := upsertBatch(ctx, txn, entries); err != nil {
				txn.Rollback()
				return err
			}
			if err := txn.Commit(); err != nil {
				return fmt.Errorf("failed to commit batch: %w", err)
			}
			return nil
		})
}

func upsertBatch(ctx context.Context, tx *sql.Tx, entries []Entry) error {
	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare batch upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		_, err := stmt.ExecContext(ctx,
			e.Name, e.FullPath, e.IsDirectory, nullableString(e.FileExtension, e.HasExtension),
			nullableInt64(e.Size, e.HasSize), epoch(e.DateModified), epoch(e.DateAdded))
		if err != nil {
			return fmt.Errorf("failed to upsert entry %q: %w", e.FullPath, err)
		}
	}
	return nil
}

const upsertSQL = `
INSERT INTO file_entries (name, full_path, is_directory, file_extension, size, date_modified, date_added)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(full_path) DO UPDATE SET
name = excluded.name,
is_directory = excluded.is_directory,
file_extension = excluded.file_extension,
size = excluded.size,
date_modified = excluded.date_modified
`

// DeleteEntry removes a single entry by full path.
func (s *Store) DeleteEntry(ctx context.Context, fullPath string) error {
	return s.pool.Write(ctx, func(db *sql.DB) error {
			_, err := db.ExecContext(ctx, `DELETE FROM file_entries WHERE full_path = ?`, fullPath)
			if err != nil {
				return fmt.Errorf("failed to delete entry %q: %w", fullPath, err)
			}
			return nil
		})
}

// DeleteEntries removes every entry at or below each of the given paths
// (a directory delete removes its full subtree), used both for the
// change monitor's folder-removal events and for subtree re-scans.
func (s *Store) DeleteEntries(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	return s.pool.Write(ctx, func(db *sql.DB) error {
			txn, err := db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("failed to begin delete transaction: %w", err)
			}
			stmt, err := txn.PrepareContext(ctx,
				`DELETE FROM file_entries WHERE full_path = ? OR full_path LIKE ? ESCAPE '\'`)
			if err != nil {
				txn.Rollback()
				return fmt.Errorf("failed to prepare delete: %w", err)
			}
			for _, p := range paths {
				prefix := escapeLike(strings.TrimRight(p, "/")) + "/%"
				if _, err := stmt.ExecContext(ctx, p, prefix); err != nil {
					stmt.Close()
					txn.Rollback()
					return fmt.Errorf("failed to delete subtree %q: %w", p, err)
				}
			}
			stmt.Close()
			if err := txn.Commit(); err != nil {
				return fmt.Errorf("failed to commit delete: %w", err)
			}
			return nil
		})
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Truncate empties the entry table, used before a full reindex so stale
// rows from removed roots never linger.
func (s *Store) Truncate(ctx context.Context) error {
	return s.pool.Write(ctx, func(db *sql.DB) error {
			if _, err := db.ExecContext(ctx, `DELETE FROM file_entries`); err != nil {
				return fmt.Errorf("failed to truncate file_entries: %w", err)
			}
			return nil
		})
}

// FileCount returns the current row count.
func (s *Store) FileCount(ctx context.Context) (int, error) {
	var count int
	err := s.pool.Read(ctx, func(db *sql.DB) error {
			return db.QueryRowContext(ctx, `SELECT COUNT(*) FROM file_entries`).Scan(&count)
		})
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// SearchStats reports row count and the on-disk size of the index file
// (main db file plus its WAL and SHM sidecars, per the index_size_bytes
// contract).
func (s *Store) SearchStats(ctx context.Context) (SearchStats, error) {
	count, err := s.FileCount(ctx)
	if err != nil {
		return SearchStats{}, err
	}

	var size int64
	for _, suffix := range []string{"", "-wal", "-shm"} {
		info, err := os.Stat(s.pool.Path() + suffix)
		if err == nil {
			size += info.Size()
		}
	}

	return SearchStats{TotalFiles: count, IndexSizeBytes: size}, nil
}

// GetMetadata reads the single indexing_metadata row.
func (s *Store) GetMetadata(ctx context.Context) (Metadata, error) {
	var m Metadata
	var lastIndexed sql.NullFloat64
	var indexedPaths sql.NullString
	var lastEventID sql.NullInt64
	var fingerprint sql.NullInt64

	err := s.pool.Read(ctx, func(db *sql.DB) error {
			return db.QueryRowContext(ctx, `
				SELECT is_indexed, last_indexed_date, indexed_paths, total_files_indexed,
				indexing_version, last_event_id, roots_fingerprint
				FROM indexing_metadata WHERE id = 1
				`).Scan(&m.IsIndexed, &lastIndexed, &indexedPaths, &m.TotalFilesIndexed,
				&m.IndexingVersion, &lastEventID, &fingerprint)
		})
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	if lastIndexed.Valid {
		m.LastIndexedDate = time.Unix(0, int64(lastIndexed.Float64*float64(time.Second)))
		m.HasLastIndexed = true
	}
	if indexedPaths.Valid && indexedPaths.String != "" {
		m.IndexedPaths = strings.Split(indexedPaths.String, "\x1f")
	}
	if lastEventID.Valid {
		m.LastEventID = lastEventID.Int64
		m.HasLastEventID = true
	}
	if fingerprint.Valid {
		m.RootsFingerprint = uint64(fingerprint.Int64)
		m.HasFingerprint = true
	}

	return m, nil
}

// SetMetadata overwrites the single indexing_metadata row after a
// successful full or smart index run.
func (s *Store) SetMetadata(ctx context.Context, m Metadata) error {
	return s.pool.Write(ctx, func(db *sql.DB) error {
			_, err := db.ExecContext(ctx, `
				UPDATE indexing_metadata SET
				is_indexed = ?, last_indexed_date = ?, indexed_paths = ?,
				total_files_indexed = ?, indexing_version = ?, last_event_id = ?,
				roots_fingerprint = ?
				WHERE id = 1
				`, m.IsIndexed, epoch(m.LastIndexedDate), strings.Join(m.IndexedPaths, "\x1f"),
				m.TotalFilesIndexed, m.IndexingVersion, int64(m.LastEventID), int64(m.RootsFingerprint))
			if err != nil {
				return fmt.Errorf("failed to write metadata: %w", err)
			}
			return nil
		})
}

// IndexingStatus adapts GetMetadata plus a live FileCount into the
// indexing_status() contract of the design.
func (s *Store) IndexingStatus(ctx context.Context) (IndexingStatus, error) {
	m, err := s.GetMetadata(ctx)
	if err != nil {
		return IndexingStatus{}, err
	}
	count, err := s.FileCount(ctx)
	if err != nil {
		return IndexingStatus{}, err
	}
	return IndexingStatus{
		IsIndexed: m.IsIndexed,
		LastIndexedDate: m.LastIndexedDate,
		HasLastIndexed: m.HasLastIndexed,
		IndexedPaths: m.IndexedPaths,
		FileCount: count,
	}, nil
}

// Search runs a planner-built WHERE clause against file_entries, ordered
// by name length then name (shortest, most-relevant matches first per
// the design), bound to ctx so a caller's cancellation aborts the scan.
func (s *Store) Search(ctx context.Context, where string, bindings []interface{}, limit int) ([]Entry, error) {
	query := fmt.Sprintf(`
		SELECT name, full_path, is_directory, file_extension, size, date_modified, date_added
		FROM file_entries
		WHERE %s
		ORDER BY LENGTH(name), name
		LIMIT ?
		`, where)
	args := append(append([]interface{}{}, bindings...), limit)

	var entries []Entry
	err := s.pool.Read(ctx, func(db *sql.DB) error {
			rows, err := db.QueryContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("failed to execute search query: %w", err)
			}
			defer rows.Close()

			for rows.Next() {
				var e Entry
				var ext sql.NullString
				var size sql.NullInt64
				var dateModified, dateAdded float64
				if err := rows.Scan(&e.Name, &e.FullPath, &e.IsDirectory, &ext, &size, &dateModified, &dateAdded); err != nil {
					s.logger.Warn("search: skipping malformed row: %v", err)
					continue
				}
				if ext.Valid {
					e.FileExtension = ext.String
					e.HasExtension = true
				}
				if size.Valid {
					e.Size = size.Int64
					e.HasSize = true
				}
				e.DateModified = time.Unix(0, int64(dateModified*float64(time.Second)))
				e.DateAdded = time.Unix(0, int64(dateAdded*float64(time.Second)))
				entries = append(entries, e)
			}
			return rows.Err()
		})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func nullableString(v string, has bool) interface{} {
	if !has {
		return nil
	}
	return v
}

func nullableInt64(v int64, has bool) interface{} {
	if !has {
		return nil
	}
	return v
}

func epoch(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / float64(time.Second)
}
