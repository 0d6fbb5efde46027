package store

import (
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// RootsFingerprint hashes a sorted, newline-joined root set into a single
// uint64. The indexer stores it in the metadata row after each full index;
// the smart-indexing decision does not read it back. Mirrors the quick-equality fingerprint
// pattern used over file content in standardbeagle-lci's content store,
// applied here to a root-path set instead of file bytes.
func RootsFingerprint(roots []string) uint64 {
	sorted := append([]string(nil), roots...)
	sort.Strings(sorted)
	return xxhash.Sum64String(strings.Join(sorted, "\n"))
}
