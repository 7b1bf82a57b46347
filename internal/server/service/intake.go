package service

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Sentinel errors for upload intake and the share service.
var (
	ErrNotFound         = errors.New("share not found")
	ErrExpired          = errors.New("share has expired")
	ErrPasswordRequired = errors.New("password required")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrInvalidToken     = errors.New("invalid deletion token")
	ErrDownloadLimit    = errors.New("download limit reached")
	ErrFileTooLarge     = errors.New("file exceeds maximum allowed size")
	ErrEmptyFile        = errors.New("file is empty")
	ErrInvalidFileType  = errors.New("file type is not allowed")
	ErrMissingFile      = errors.New("no file provided")
)

// Extension allow-lists per route family. The PDF routes restrict to
// their input format, conversion routes derive theirs from the selected
// conversion, and sharing accepts every supported type.
var (
	PDFOnly        = []string{"pdf"}
	ShareableTypes = []string{"pdf", "doc", "docx", "ppt", "pptx", "txt", "csv"}
)

// CheckUpload validates a declared upload against an extension
// allow-list and a size ceiling. It runs before any bytes are processed.
func CheckUpload(filename string, size int64, maxSize int64, allowed []string) error {
	if filename == "" {
		return ErrMissingFile
	}
	if size == 0 {
		return ErrEmptyFile
	}
	if size > maxSize {
		return ErrFileTooLarge
	}

	ext := FileExt(filename)
	for _, a := range allowed {
		if ext == a {
			return nil
		}
	}
	return fmt.Errorf("%w: .%s (allowed: %s)", ErrInvalidFileType, ext, strings.Join(allowed, ", "))
}

// FileExt returns the lower-cased extension of filename without the dot.
func FileExt(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}
