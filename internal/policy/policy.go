// Package policy implements the exclusion decision a scan makes before an
// entry ever reaches the indexer: system paths, development directories,
// and volume metadata never get recorded.
package policy

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Policy is the pure exclude(path, name, is_directory) predicate, built
// from three deny sets (system paths, development directories, volume
// metadata) plus a glob extension for configurable dev-directory
// patterns. Field grouping mirrors a case-insensitive allow/deny set
// shape: small maps and slices checked directly, no separate config
// object.
type Policy struct {
	SystemPaths map[string]struct{}
	DevDirectories map[string]struct{}
	VolumeMetadata map[string]struct{}
	DevDirectoryGlobs []string
	HiddenFiles bool // when true, hidden files/dirs are excluded
	DevExtensions bool // when true, a built-in dev-artifact extension set is excluded
	devExtensionSet map[string]struct{}
}

// defaultSystemPaths is the unconditional deny list of absolute system
// paths from the design.
var defaultSystemPaths = []string{
	"/dev", "/private", "/System", "/Volumes", "/.fseventsd", "/tmp",
	"/var/folders", "/usr/bin", "/bin", "/sbin", "/Library/Caches", "/Library/Logs",
	"/proc", "/sys", "/run",
}

// defaultDevDirectories is the configurable deny list of development
// directory basenames from the design, matched case-insensitively.
var defaultDevDirectories = []string{
	"node_modules", ".git", "build", "target", ".venv", "__pycache__",
	".tox", ".mypy_cache", ".pytest_cache", "dist", ".gradle", ".cargo",
}

// defaultVolumeMetadata is the deny list of volume metadata basenames
// from the design.
var defaultVolumeMetadata = []string{
	".spotlight-v100", ".documentrevisions-v100", ".fseventsd", ".trashes",
	".temporaryitems", ".apdisk",
}

// defaultDevExtensions gates opt-in exclusion of common build-artifact
// extensions when DevExtensions is true.
var defaultDevExtensions = []string{
	".o", ".pyc", ".class", ".obj", ".pdb",
}

// New builds a Policy from configured overrides, seeding each set with
// its built-in default plus the caller's extras. A nil extras slice is
// equivalent to defaults only.
func New(extraSystemPaths, extraDevDirectories, extraVolumeMetadata, devDirectoryGlobs []string, hiddenFiles, devExtensions bool) *Policy {
	p := &Policy{
		SystemPaths: toSet(defaultSystemPaths, extraSystemPaths),
		DevDirectories: toSet(defaultDevDirectories, extraDevDirectories),
		VolumeMetadata: toSet(defaultVolumeMetadata, extraVolumeMetadata),
		DevDirectoryGlobs: devDirectoryGlobs,
		HiddenFiles: hiddenFiles,
		DevExtensions: devExtensions,
		devExtensionSet: toSet(defaultDevExtensions, nil),
	}
	return p
}

func toSet(defaults, extra []string) map[string]struct{} {
	set := make(map[string]struct{}, len(defaults)+len(extra))
	for _, v := range defaults {
		set[strings.ToLower(v)] = struct{}{}
	}
	for _, v := range extra {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}

// Exclude decides whether path should be skipped entirely (never
// descended into, never recorded). name is path's basename; is_directory
// distinguishes a directory decision from a file decision.
func (p *Policy) Exclude(path, name string, isDirectory bool) bool {
	if _, ok := p.SystemPaths[path]; ok {
		return true
	}
	for sysPath := range p.SystemPaths {
		if path == sysPath || strings.HasPrefix(path, sysPath+"/") {
			return true
		}
	}

	lowerName := strings.ToLower(name)
	if _, ok := p.VolumeMetadata[lowerName]; ok {
		return true
	}
	if isDirectory {
		if _, ok := p.DevDirectories[lowerName]; ok {
			return true
		}
		for _, glob := range p.DevDirectoryGlobs {
			if matched, _ := doublestar.Match(glob, name); matched {
				return true
			}
			if matched, _ := doublestar.Match(glob, path); matched {
				return true
			}
		}
	}

	if p.HiddenFiles && strings.HasPrefix(name, ".") {
		return true
	}

	if !isDirectory && p.DevExtensions {
		ext := strings.ToLower(filepath.Ext(name))
		if _, ok := p.devExtensionSet[ext]; ok {
			return true
		}
	}

	return false
}
