package monitor

import "github.com/fsnotify/fsnotify"

// EventFlags is the logical, OS-independent change-event bitmask this
// adapter defines, reconstructed here from fsnotify.Op since fsnotify does
// not expose FSEvents-style flags (HistoryDone, RootChanged,
// MustScanSubDirs, Kernel/UserDropped never arise on fsnotify's backends
// and are kept only so the flag vocabulary matches the contract; they are
// set solely by the adapter's own bookkeeping, never by fsnotify itself).
type EventFlags uint32

const (
	FlagHistoryDone EventFlags = 1 << iota
	FlagRootChanged
	FlagMustScanSubDirs
	FlagKernelDropped
	FlagUserDropped
	FlagItemIsDir
	FlagItemCreated
	FlagItemRemoved
	FlagItemRenamed
	FlagItemModified
)

// Event is the adapter's typed output: a path, its reconstructed logical
// flags, and a monotonically increasing event id assigned at acceptance
// time (see DESIGN.md for why this substitutes for a kernel event id).
type Event struct {
	Path string
	Flags EventFlags
	EventID int64
}

// translateOp maps an fsnotify.Op onto the structural-change flags the
// event model cares about. Content-modified/metadata-changed ops
// with no structural meaning return FlagItemModified alone, which callers
// ignore per the table's "no structural change -> ignore" rule.
func translateOp(op fsnotify.Op) EventFlags {
	var flags EventFlags
	switch {
	case op&fsnotify.Create != 0:
 flags |= FlagItemCreated
	case op&fsnotify.Remove != 0:
 flags |= FlagItemRemoved
	case op&fsnotify.Rename != 0:
 flags |= FlagItemRemoved | FlagItemRenamed
	case op&fsnotify.Write != 0, op&fsnotify.Chmod != 0:
 flags |= FlagItemModified
	}
	return flags
}

// isStructural reports whether flags represent a create/remove/rename
// that the monitor must queue for an index update, per the design.
func isStructural(flags EventFlags) bool {
	return flags&(FlagItemCreated|FlagItemRemoved|FlagItemRenamed) != 0
}
