package policy

import "testing"

func newTestPolicy() *Policy {
	return New(nil, nil, nil, []string{"**/*.egg-info"}, true, true)
}

func TestExcludeSystemPath(t *testing.T) {
	p := newTestPolicy()
	tests := []struct {
		path string
		want bool
	}{
		{"/dev", true},
		{"/dev/null", true},
		{"/Users/alice/dev", false},
		{"/home/alice/project", false},
	}
	for _, tt := range tests {
		if got := p.Exclude(tt.path, "x", false); got != tt.want {
			t.Errorf("Exclude(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestExcludeDevDirectoryCaseInsensitive(t *testing.T) {
	p := newTestPolicy()
	for _, name := range []string{"node_modules", "NODE_MODULES", ".git"} {
		if !p.Exclude("/proj/"+name, name, true) {
			t.Errorf("Exclude(%q, isDir=true) = false, want true", name)
		}
	}
	if p.Exclude("/proj/node_modules", "node_modules", false) {
		t.Errorf("dev-directory name should not exclude a file entry")
	}
}

func TestExcludeVolumeMetadata(t *testing.T) {
	p := newTestPolicy()
	if !p.Exclude("/Volumes/Data/.fseventsd", ".fseventsd", true) {
		t.Errorf("Exclude(.fseventsd) = false, want true")
	}
}

func TestExcludeHiddenFilesOptIn(t *testing.T) {
	p := New(nil, nil, nil, nil, false, false)
	if p.Exclude("/home/alice/.bashrc", ".bashrc", false) {
		t.Errorf("hidden files should not be excluded when HiddenFiles is false")
	}
	p.HiddenFiles = true
	if !p.Exclude("/home/alice/.bashrc", ".bashrc", false) {
		t.Errorf("hidden files should be excluded when HiddenFiles is true")
	}
}

func TestExcludeDevDirectoryGlob(t *testing.T) {
	p := newTestPolicy()
	if !p.Exclude("/proj/mypackage.egg-info", "mypackage.egg-info", true) {
		t.Errorf("glob-matched dev directory should be excluded")
	}
}

func TestExcludeDevExtensionsOptIn(t *testing.T) {
	p := New(nil, nil, nil, nil, false, true)
	if !p.Exclude("/proj/main.o", "main.o", false) {
		t.Errorf("Exclude(main.o) = false, want true when DevExtensions is on")
	}
	if p.Exclude("/proj/main.go", "main.go", false) {
		t.Errorf("Exclude(main.go) = true, want false")
	}
}

func TestExcludeOrdinaryFileNotExcluded(t *testing.T) {
	p := newTestPolicy()
	if p.Exclude("/home/alice/docs/report.pdf", "report.pdf", false) {
		t.Errorf("ordinary file should not be excluded")
	}
}
