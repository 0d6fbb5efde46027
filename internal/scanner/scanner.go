package scanner

import (
	"os"
	"path/filepath"
	"time"

	"github.com/akelsh/seek/internal/store"
)

// Scanner enumerates one directory at a time with the exclusion policy
// and bundle/symlink rules applied. It never recurses on its own except
// via ScanRecursive and ChangedSubtreeRoots, which are single-threaded
// convenience paths for small subtrees and tests; the parallel crawl
// itself is driven by internal/queue against ScanOneLevel.
type Scanner struct {
	factory *Factory
	logger func(format string, args ...interface{})
}

// New builds a Scanner around factory.
func New(factory *Factory, logFn func(format string, args ...interface{})) *Scanner {
	if logFn == nil {
		logFn = func(string, ...interface{}) {}
	}
	return &Scanner{factory: factory, logger: logFn}
}

// Child is one directory entry discovered by ScanOneLevel, pre-classified
// so the work-queue coordinator can decide whether to enqueue it.
type Child struct {
	Path string
	IsDirectory bool
	Entry store.Entry // valid when not a directory to descend into (file or bundle)
}

// ScanOneLevel lists dir's immediate children, classifying each as
// skip (symlink/excluded), a directory to enqueue, or a file/bundle
// entry, per the per-directory processing rules. It does not
// emit an entry for dir itself; callers add that separately.
func (s *Scanner) ScanOneLevel(dir string) (children []Child, symlinkCount, excludedCount int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		s.logger("scanner: treating unreadable directory %q as empty: %v", dir, err)
		return nil, 0, 0
	}

	now := time.Now()
	for _, de := range entries {
		path := filepath.Join(dir, de.Name())

		if de.Type()&os.ModeSymlink != 0 {
			symlinkCount++
			continue
		}

		if s.factory.excluder != nil && s.factory.excluder(path, de.Name(), de.IsDir()) {
			excludedCount++
			continue
		}

		if de.IsDir() && s.factory.IsBundle(de.Name()) {
			info, err := de.Info()
			if err != nil {
				s.logger("scanner: skipping unreadable bundle %q: %v", path, err)
				continue
			}
			children = append(children, Child{Path: path, IsDirectory: false, Entry: s.factory.Build(path, info, now)})
			continue
		}

		if de.IsDir() {
			children = append(children, Child{Path: path, IsDirectory: true})
			continue
		}

		info, err := de.Info()
		if err != nil {
			s.logger("scanner: skipping unreadable file %q: %v", path, err)
			continue
		}
		children = append(children, Child{Path: path, IsDirectory: false, Entry: s.factory.Build(path, info, now)})
	}

	return children, symlinkCount, excludedCount
}

// ScanRootLevelFiles returns only the non-directory entries directly
// inside root — used by the indexer before the root's subdirectories are
// pushed onto the coordinator.
func (s *Scanner) ScanRootLevelFiles(root string) []store.Entry {
	children, _, _ := s.ScanOneLevel(root)
	var files []store.Entry
	for _, c := range children {
		if !c.IsDirectory {
			files = append(files, c.Entry)
		}
	}
	return files
}

// TopLevelDirectories returns root's immediate subdirectories, minus
// bundles and anything excluded by policy.
func (s *Scanner) TopLevelDirectories(root string) []string {
	children, _, _ := s.ScanOneLevel(root)
	var dirs []string
	for _, c := range children {
		if c.IsDirectory {
			dirs = append(dirs, c.Path)
		}
	}
	return dirs
}

// SelfEntry builds the Entry for dir itself, without descending into it.
func (s *Scanner) SelfEntry(dir string) store.Entry {
	info, err := os.Lstat(dir)
	if err != nil {
		s.logger("scanner: SelfEntry cannot stat %q: %v", dir, err)
		return store.Entry{Name: filepath.Base(dir), FullPath: dir, IsDirectory: true, DateModified: time.Now(), DateAdded: time.Now()}
	}
	return s.factory.Build(dir, info, time.Now())
}

// ScanRecursive walks dir single-threaded, returning every entry in the
// subtree (directory entries included). Used by small-subtree rebuilds
// and tests where spinning up the full coordinator is unwarranted.
func (s *Scanner) ScanRecursive(dir string) []store.Entry {
	var result []store.Entry

	info, err := os.Lstat(dir)
	if err != nil {
		s.logger("scanner: ScanRecursive cannot stat root %q: %v", dir, err)
		return nil
	}
	result = append(result, s.factory.Build(dir, info, time.Now()))

	children, _, _ := s.ScanOneLevel(dir)
	for _, c := range children {
		if c.IsDirectory {
			result = append(result, s.ScanRecursive(c.Path)...)
		} else {
			result = append(result, c.Entry)
		}
	}
	return result
}

// ChangedSubtreeRoots prunes unchanged trees by comparing each
// directory's mtime against since; a directory whose own mtime exceeds
// since is reported as-is and not descended into (its subtree is assumed
// changed and will be rescanned wholesale by the caller).
func (s *Scanner) ChangedSubtreeRoots(dir string, since time.Time) []string {
	info, err := os.Lstat(dir)
	if err != nil {
		s.logger("scanner: ChangedSubtreeRoots cannot stat %q: %v", dir, err)
		return nil
	}
	if info.ModTime().After(since) {
		return []string{dir}
	}

	var changed []string
	dirs := s.TopLevelDirectories(dir)
	for _, d := range dirs {
		changed = append(changed, s.ChangedSubtreeRoots(d, since)...)
	}
	return changed
}
