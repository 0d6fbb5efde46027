package store

import "time"

// Entry is the canonical per-item record held in the index: one row per
// indexed file, directory, or bundle.
type Entry struct {
	Name string
	FullPath string
	IsDirectory bool
	FileExtension string // empty for directories and extensionless files
	HasExtension bool
	Size int64
	HasSize bool
	DateModified time.Time
	DateAdded time.Time
}

// Metadata is the single-row indexing_metadata table.
type Metadata struct {
	IsIndexed bool
	LastIndexedDate time.Time
	HasLastIndexed bool
	IndexedPaths []string
	TotalFilesIndexed int
	IndexingVersion int
	LastEventID int64
	HasLastEventID bool
	RootsFingerprint uint64
	HasFingerprint bool
}

// SearchStats reports on-disk index size and row count, per the design.
type SearchStats struct {
	TotalFiles int
	IndexSizeBytes int64
}

// IndexingStatus mirrors the indexing_status() contract from the design.
type IndexingStatus struct {
	IsIndexed bool
	LastIndexedDate time.Time
	HasLastIndexed bool
	IndexedPaths []string
	FileCount int
}
