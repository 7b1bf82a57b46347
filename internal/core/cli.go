package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type ValidationError struct {
	Arg   string
	Cause string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Arg, e.Cause)
}

// ValidatePDFArgs cleans and checks command-line file arguments: each
// must name an existing regular file with a .pdf extension, and at least
// min arguments must be present.
func ValidatePDFArgs(args []string, min int) ([]string, error) {
	if len(args) < min {
		return nil, &ValidationError{
			Arg:   "<files>",
			Cause: fmt.Sprintf("expected at least %d PDF file(s)", min),
		}
	}

	var out []string
	for _, raw := range args {
		p := filepath.Clean(raw)

		if !strings.EqualFold(filepath.Ext(p), ".pdf") {
			return nil, &ValidationError{Arg: raw, Cause: "not a PDF file"}
		}

		info, err := os.Stat(p)
		if err != nil {
			return nil, &ValidationError{Arg: raw, Cause: "not found or not accessible"}
		}
		if info.IsDir() {
			return nil, &ValidationError{Arg: raw, Cause: "is a directory"}
		}

		out = append(out, p)
	}

	return out, nil
}
