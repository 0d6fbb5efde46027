package scanner

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func noExclude(string, string, bool) bool { return false }

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestScanOneLevelClassifiesFilesAndDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), 10)
	if err := os.Mkdir(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}

	s := New(NewFactory(noExclude, nil), nil)
	children, symlinks, excluded := s.ScanOneLevel(root)

	if symlinks != 0 || excluded != 0 {
		t.Errorf("symlinks=%d excluded=%d, want 0, 0", symlinks, excluded)
	}
	if len(children) != 2 {
		t.Fatalf("len(children) = %d, want 2", len(children))
	}

	var sawFile, sawDir bool
	for _, c := range children {
		if c.IsDirectory {
			sawDir = true
		} else {
			sawFile = true
			if c.Entry.Size != 10 || !c.Entry.HasSize {
				t.Errorf("file entry size = %d (has=%v), want 10 (true)", c.Entry.Size, c.Entry.HasSize)
			}
		}
	}
	if !sawFile || !sawDir {
		t.Errorf("sawFile=%v sawDir=%v, want both true", sawFile, sawDir)
	}
}

func TestScanOneLevelExcludesPolicyMatches(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "node_modules"), 0o755); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}
	exclude := func(path, name string, isDir bool) bool { return name == "node_modules" }

	s := New(NewFactory(exclude, nil), nil)
	children, _, excluded := s.ScanOneLevel(root)

	if excluded != 1 {
		t.Errorf("excluded = %d, want 1", excluded)
	}
	if len(children) != 0 {
		t.Errorf("len(children) = %d, want 0", len(children))
	}
}

func TestFactoryBuildBundleRollsUpSize(t *testing.T) {
	root := t.TempDir()
	bundle := filepath.Join(root, "Example.app")
	writeFile(t, filepath.Join(bundle, "Contents", "a.bin"), 100)
	writeFile(t, filepath.Join(bundle, "Contents", "b.bin"), 50)

	info, err := os.Lstat(bundle)
	if err != nil {
		t.Fatalf("Lstat() error = %v", err)
	}

	f := NewFactory(noExclude, nil)
	e := f.Build(bundle, info, time.Now())

	if !e.IsDirectory {
		t.Errorf("bundle entry IsDirectory = false, want true")
	}
	if !e.HasSize || e.Size != 150 {
		t.Errorf("bundle entry size = %d (has=%v), want 150 (true)", e.Size, e.HasSize)
	}
	if e.FileExtension != "app" {
		t.Errorf("bundle entry FileExtension = %q, want \"app\"", e.FileExtension)
	}
}

func TestFactoryBuildOrdinaryDirectoryHasNoSize(t *testing.T) {
	root := t.TempDir()
	info, err := os.Lstat(root)
	if err != nil {
		t.Fatalf("Lstat() error = %v", err)
	}

	f := NewFactory(noExclude, nil)
	e := f.Build(root, info, time.Now())

	if e.HasSize {
		t.Errorf("ordinary directory HasSize = true, want false")
	}
}

func TestScanRootLevelFilesExcludesDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), 1)
	if err := os.Mkdir(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}

	s := New(NewFactory(noExclude, nil), nil)
	files := s.ScanRootLevelFiles(root)

	if len(files) != 1 || files[0].Name != "a.txt" {
		t.Errorf("ScanRootLevelFiles() = %+v, want one entry named a.txt", files)
	}
}

func TestChangedSubtreeRootsPrunesOldTrees(t *testing.T) {
	root := t.TempDir()
	old := filepath.Join(root, "old")
	writeFile(t, filepath.Join(old, "a.txt"), 1)

	since := time.Now().Add(1 * time.Hour) // future: nothing should look "changed"
	s := New(NewFactory(noExclude, nil), nil)

	roots := s.ChangedSubtreeRoots(root, since)
	if len(roots) != 0 {
		t.Errorf("ChangedSubtreeRoots() = %v, want none (since is in the future)", roots)
	}
}
