package workdir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Dir hands out temp file paths inside a single directory
type Dir struct {
	path string
}

// New returns a Dir rooted at path, creating it if needed. An empty path
// selects the OS temp directory.
func New(path string) (*Dir, error) {
	if path == "" {
		path = os.TempDir()
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory %s: %w", path, err)
	}

	return &Dir{path: path}, nil
}

// Path returns the directory the Dir allocates files in
func (d *Dir) Path() string {
	return d.path
}

// Alloc returns a fresh, unique file path carrying the given extension.
// The file itself is not created; ffmpeg and the downloader create their
// own outputs.
func (d *Dir) Alloc(ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name := fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.NewString(), ext)
	return filepath.Join(d.path, name)
}

// Remove deletes a previously allocated file, best effort. A request's
// files are removed on every exit path and failures are never surfaced,
// so the only signal is the boolean for metrics accounting.
func (d *Dir) Remove(path string) bool {
	if path == "" {
		return false
	}
	return os.Remove(path) == nil
}
