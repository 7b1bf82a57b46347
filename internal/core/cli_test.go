package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePDFArgs(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.7"), 0644); err != nil {
		t.Fatal(err)
	}
	txtPath := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txtPath, []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("accepts existing PDF files", func(t *testing.T) {
		out, err := ValidatePDFArgs([]string{pdfPath}, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out) != 1 || out[0] != filepath.Clean(pdfPath) {
			t.Errorf("unexpected result: %v", out)
		}
	})

	t.Run("rejects too few arguments", func(t *testing.T) {
		_, err := ValidatePDFArgs([]string{pdfPath}, 2)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("rejects non-PDF extension", func(t *testing.T) {
		_, err := ValidatePDFArgs([]string{txtPath}, 1)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if verr.Arg != txtPath {
			t.Errorf("expected offending arg %q, got %q", txtPath, verr.Arg)
		}
	})

	t.Run("rejects missing file", func(t *testing.T) {
		_, err := ValidatePDFArgs([]string{filepath.Join(dir, "gone.pdf")}, 1)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("rejects directories", func(t *testing.T) {
		sub := filepath.Join(dir, "folder.pdf")
		if err := os.MkdirAll(sub, 0755); err != nil {
			t.Fatal(err)
		}
		_, err := ValidatePDFArgs([]string{sub}, 1)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}
