package store

// schemaSQL creates the entry table, its secondary indexes, the FTS5
// shadow table on name, and the triggers that keep the two in lockstep.
// Kept as one statement batch (not per-statement migrations) because
// this table's shape is fixed and never needs additive column
// migrations beyond the one-time date_added backfill handled in
// migrations.go.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS file_entries (
	name TEXT NOT NULL,
	full_path TEXT NOT NULL UNIQUE,
	is_directory BOOLEAN NOT NULL,
	file_extension TEXT,
	size INTEGER,
	date_modified REAL NOT NULL,
	date_added REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_file_entries_name_nocase ON file_entries(name COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_file_entries_extension ON file_entries(file_extension) WHERE file_extension IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_file_entries_size ON file_entries(size);
CREATE INDEX IF NOT EXISTS idx_file_entries_date_modified ON file_entries(date_modified);
CREATE INDEX IF NOT EXISTS idx_file_entries_is_directory ON file_entries(is_directory);

CREATE VIRTUAL TABLE IF NOT EXISTS file_entries_fts USING fts5(
	name,
	content='file_entries',
	content_rowid='rowid',
	tokenize='unicode61'
);

CREATE TRIGGER IF NOT EXISTS file_entries_ai AFTER INSERT ON file_entries BEGIN
	INSERT INTO file_entries_fts(rowid, name) VALUES (new.rowid, new.name);
END;

CREATE TRIGGER IF NOT EXISTS file_entries_ad AFTER DELETE ON file_entries BEGIN
	INSERT INTO file_entries_fts(file_entries_fts, rowid, name) VALUES('delete', old.rowid, old.name);
END;

CREATE TRIGGER IF NOT EXISTS file_entries_au AFTER UPDATE ON file_entries BEGIN
	INSERT INTO file_entries_fts(file_entries_fts, rowid, name) VALUES('delete', old.rowid, old.name);
	INSERT INTO file_entries_fts(rowid, name) VALUES (new.rowid, new.name);
END;

CREATE TABLE IF NOT EXISTS indexing_metadata (
	id INTEGER PRIMARY KEY,
	is_indexed BOOLEAN NOT NULL DEFAULT 0,
	last_indexed_date REAL,
	indexed_paths TEXT,
	total_files_indexed INTEGER DEFAULT 0,
	indexing_version INTEGER DEFAULT 1,
	last_event_id INTEGER,
	roots_fingerprint INTEGER
);

INSERT OR IGNORE INTO indexing_metadata (id, is_indexed, indexing_version) VALUES (1, 0, 1);
`
