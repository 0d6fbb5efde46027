package monitor

import (
	"os"
	"path/filepath"
)

func statPath(path string) (os.FileInfo, error) {
	return os.Lstat(path)
}

func lastPathSegment(path string) string {
	return filepath.Base(path)
}
