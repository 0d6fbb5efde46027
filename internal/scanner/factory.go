// Package scanner turns filesystem items into store.Entry values and
// enumerates directories with the exclusion policy applied.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akelsh/seek/internal/store"
)

// bundleSuffixes are the default opaque-package extensions the factory
// treats as a single file-like entry rather than descending into, per
// the bundle Open Question. Configurable via WithBundleSuffixes.
var bundleSuffixes = map[string]struct{}{
	".app": {}, ".bundle": {}, ".framework": {}, ".xcodeproj": {},
	".plugin": {}, ".kext": {}, ".prefpane": {}, ".workflow": {},
}

// Factory derives a store.Entry from a filesystem path plus its os.FileInfo.
type Factory struct {
	excluder func(path, name string, isDirectory bool) bool
	bundleExts map[string]struct{}
	logger func(format string, args ...interface{})
}

// NewFactory builds a Factory. excluder is typically policy.Policy.Exclude;
// logFn receives skip/error notices in a printf-style logging idiom and
// may be nil to discard them.
func NewFactory(excluder func(path, name string, isDirectory bool) bool, logFn func(format string, args ...interface{})) *Factory {
	if logFn == nil {
		logFn = func(string, ...interface{}) {}
	}
	return &Factory{excluder: excluder, bundleExts: bundleSuffixes, logger: logFn}
}

// IsBundle reports whether name's suffix marks it as an opaque package.
func (f *Factory) IsBundle(name string) bool {
	_, ok := f.bundleExts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Build derives an Entry for path. now is substituted for a read-failure
// mtime fallback, per the "fallback now if unavailable" rule.
func (f *Factory) Build(path string, info fs.FileInfo, now time.Time) store.Entry {
	name := filepath.Base(path)
	isDir := info.IsDir()

	e := store.Entry{
		Name: name,
		FullPath: path,
		IsDirectory: isDir,
		DateModified: modTimeOrNow(info, now),
		DateAdded: now,
	}

	switch {
	case isDir && f.IsBundle(name):
		e.IsDirectory = true
		e.FileExtension = strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
		e.HasExtension = e.FileExtension != ""
		e.Size, e.HasSize = f.rollupBundleSize(path), true
	case isDir:
		// ordinary directory: size stays unset (None) per the design.
	default:
		if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
			e.FileExtension = strings.TrimPrefix(ext, ".")
			e.HasExtension = true
		}
		e.Size, e.HasSize = info.Size(), true
	}

	return e
}

func modTimeOrNow(info fs.FileInfo, now time.Time) time.Time {
	if info == nil {
		return now
	}
	t := info.ModTime()
	if t.IsZero() {
		return now
	}
	return t
}

// rollupBundleSize sums the sizes of every non-directory descendant of a
// bundle directory, including descendants that would be hidden to the
// scanner at the top level — the rollup always counts everything inside
// the bundle. A per-child Lstat/read error is logged and skipped rather
// than aborting the rollup; only symlinks are skipped.
func (f *Factory) rollupBundleSize(root string) int64 {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				f.logger("scanner: skipping unreadable bundle descendant %q: %v", path, err)
				return nil
			}
			if path == root {
				return nil
			}
			if d.Type()&fs.ModeSymlink != 0 {
				return nil
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				f.logger("scanner: skipping unreadable bundle descendant %q: %v", path, err)
				return nil
			}
			total += info.Size()
			return nil
		})
	if err != nil {
		f.logger("scanner: bundle rollup for %q ended early: %v", root, err)
	}
	return total
}

// statOrLstat is used by callers that need to distinguish a symlink from
// its target without following it.
func statOrLstat(path string) (os.FileInfo, error) {
	return os.Lstat(path)
}
