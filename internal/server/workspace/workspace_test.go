package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWorkspaceLifecycle(t *testing.T) {
	root := t.TempDir()

	ws, err := New(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(ws.Dir()), "job-") {
		t.Errorf("expected job- prefix, got %s", ws.Dir())
	}

	t.Run("save upload", func(t *testing.T) {
		path, n, err := ws.SaveUpload(0, "report.pdf", strings.NewReader("content"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != int64(len("content")) {
			t.Errorf("expected %d bytes, got %d", len("content"), n)
		}
		if filepath.Base(path) != "in_000_report.pdf" {
			t.Errorf("unexpected stored name: %s", filepath.Base(path))
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read stored file: %v", err)
		}
		if string(data) != "content" {
			t.Errorf("stored content mismatch: %q", data)
		}
	})

	t.Run("upload names strip directory components", func(t *testing.T) {
		path, _, err := ws.SaveUpload(1, "../../etc/passwd", strings.NewReader("x"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if filepath.Base(path) != "in_001_passwd" {
			t.Errorf("unexpected stored name: %s", filepath.Base(path))
		}
		if filepath.Dir(path) != ws.Dir() {
			t.Errorf("file escaped workspace: %s", path)
		}
	})

	t.Run("mkdir creates subdirectory", func(t *testing.T) {
		sub, err := ws.Mkdir("pages")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		info, err := os.Stat(sub)
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory at %s", sub)
		}
	})

	t.Run("cleanup removes everything", func(t *testing.T) {
		ws.Cleanup()
		if _, err := os.Stat(ws.Dir()); !os.IsNotExist(err) {
			t.Errorf("expected workspace to be removed")
		}
		// Second call must not panic or log a failure into the test.
		ws.Cleanup()
	})
}

func TestSweepStale(t *testing.T) {
	root := t.TempDir()

	stale := filepath.Join(root, "job-stale")
	fresh := filepath.Join(root, "job-fresh")
	other := filepath.Join(root, "keepme")
	for _, d := range []string{stale, fresh, other} {
		if err := os.MkdirAll(d, 0700); err != nil {
			t.Fatal(err)
		}
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	removed := SweepStale(root, time.Hour)
	if removed != 1 {
		t.Errorf("expected 1 directory removed, got %d", removed)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("expected stale workspace to be removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("expected fresh workspace to survive")
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("expected non-workspace directory to survive")
	}

	t.Run("missing root is not an error", func(t *testing.T) {
		if n := SweepStale(filepath.Join(root, "nope"), time.Hour); n != 0 {
			t.Errorf("expected 0 removed, got %d", n)
		}
	})
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain name", "report.pdf", "report.pdf"},
		{"unix path traversal", "../../etc/passwd", "passwd"},
		{"windows path", `C:\Users\x\doc.pdf`, "doc.pdf"},
		{"empty", "", "upload.bin"},
		{"dot", ".", "upload.bin"},
		{"slash only", "/", "upload.bin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.in); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	t.Run("long names are truncated preserving extension", func(t *testing.T) {
		got := SanitizeFilename(strings.Repeat("a", 300) + ".pdf")
		if len(got) > 255 {
			t.Errorf("expected length <= 255, got %d", len(got))
		}
		if !strings.HasSuffix(got, ".pdf") {
			t.Errorf("expected .pdf suffix, got %q", got)
		}
	})
}
