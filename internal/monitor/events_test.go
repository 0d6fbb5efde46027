package monitor

import (
	"testing"

	"github.com/fsnotify/fsnotify"
)

func TestTranslateOpStructuralChanges(t *testing.T) {
	tests := []struct {
		op   fsnotify.Op
		want EventFlags
	}{
		{fsnotify.Create, FlagItemCreated},
		{fsnotify.Remove, FlagItemRemoved},
		{fsnotify.Rename, FlagItemRemoved | FlagItemRenamed},
		{fsnotify.Write, FlagItemModified},
		{fsnotify.Chmod, FlagItemModified},
	}
	for _, tt := range tests {
		if got := translateOp(tt.op); got != tt.want {
			t.Errorf("translateOp(%v) = %v, want %v", tt.op, got, tt.want)
		}
	}
}

func TestIsStructural(t *testing.T) {
	tests := []struct {
		flags EventFlags
		want  bool
	}{
		{FlagItemCreated, true},
		{FlagItemRemoved, true},
		{FlagItemRenamed, true},
		{FlagItemModified, false},
		{0, false},
	}
	for _, tt := range tests {
		if got := isStructural(tt.flags); got != tt.want {
			t.Errorf("isStructural(%v) = %v, want %v", tt.flags, got, tt.want)
		}
	}
}
