package workspace

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Workspace is an isolated temporary directory scoped to a single
// processing request. All intermediate and output files live inside it,
// and Cleanup removes everything regardless of how the request ended.
type Workspace struct {
	dir string
}

// New creates a fresh workspace directory under root.
func New(root string) (*Workspace, error) {
	dir := filepath.Join(root, "job-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory path.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns the path of name inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Mkdir creates a subdirectory inside the workspace and returns its path.
func (w *Workspace) Mkdir(name string) (string, error) {
	dir := filepath.Join(w.dir, name)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create workspace subdirectory: %w", err)
	}
	return dir, nil
}

// SaveUpload streams an uploaded file into the workspace under a
// sanitized name, disambiguated by index for multi-file uploads.
// Returns the stored path and the number of bytes written.
func (w *Workspace) SaveUpload(index int, filename string, data io.Reader) (string, int64, error) {
	name := fmt.Sprintf("in_%03d_%s", index, SanitizeFilename(filename))
	path := filepath.Join(w.dir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create upload file: %w", err)
	}
	defer file.Close()

	n, err := io.Copy(file, data)
	if err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("failed to write upload file: %w", err)
	}
	return path, n, nil
}

// Cleanup removes the workspace directory and everything in it.
// Safe to call multiple times.
func (w *Workspace) Cleanup() {
	if err := os.RemoveAll(w.dir); err != nil {
		slog.Warn("failed to remove workspace", "dir", w.dir, "error", err)
	}
}

// SweepStale removes workspace directories under root older than maxAge.
// Covers directories orphaned by a crash mid-request.
func SweepStale(root string, maxAge time.Duration) int {
	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read workspace root", "root", root, "error", err)
		}
		return 0
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "job-") {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(root, e.Name())
		if err := os.RemoveAll(path); err != nil {
			slog.Warn("failed to remove stale workspace", "dir", path, "error", err)
			continue
		}
		removed++
	}
	return removed
}

// SanitizeFilename strips directory components and limits length.
func SanitizeFilename(name string) string {
	// Normalize Windows-style backslashes to forward slashes before
	// calling filepath.Base, which is platform-specific.
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)

	if len(name) > 255 {
		ext := filepath.Ext(name)
		name = name[:255-len(ext)] + ext
	}

	if name == "" || name == "." || name == "/" {
		name = "upload.bin"
	}

	return name
}
