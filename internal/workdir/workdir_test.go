package workdir

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAllocUnique(t *testing.T) {
	dir, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		p := dir.Alloc(".mp3")
		if seen[p] {
			t.Fatalf("Alloc() returned duplicate path %s", p)
		}
		seen[p] = true
	}
}

func TestAllocExtension(t *testing.T) {
	dir, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	tests := []struct {
		name string
		ext  string
		want string
	}{
		{name: "with dot", ext: ".ogg", want: ".ogg"},
		{name: "without dot", ext: "ogg", want: ".ogg"},
		{name: "empty", ext: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := dir.Alloc(tt.ext)
			if got := filepath.Ext(p); got != tt.want {
				t.Errorf("Alloc(%q) extension = %q, want %q", tt.ext, got, tt.want)
			}
			if !strings.HasPrefix(p, dir.Path()) {
				t.Errorf("Alloc(%q) = %s, not inside %s", tt.ext, p, dir.Path())
			}
		})
	}
}

func TestNewCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "work")
	dir, err := New(path)
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	info, err := os.Stat(dir.Path())
	if err != nil {
		t.Fatalf("stat %s: %v", dir.Path(), err)
	}
	if !info.IsDir() {
		t.Fatalf("%s is not a directory", dir.Path())
	}
}

func TestRemove(t *testing.T) {
	dir, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	p := dir.Alloc(".bin")
	if err := os.WriteFile(p, []byte("payload"), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	if !dir.Remove(p) {
		t.Error("Remove() = false for existing file")
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Errorf("file %s still exists after Remove", p)
	}

	// Never-created and empty paths are swallowed without error
	if dir.Remove(dir.Alloc(".bin")) {
		t.Error("Remove() = true for file that was never created")
	}
	if dir.Remove("") {
		t.Error("Remove(\"\") = true")
	}
}
