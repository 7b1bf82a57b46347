package core

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText returns the plain text of each page of the PDF at path.
// Pages without extractable text yield empty strings.
func ExtractText(path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF for extraction: %w", err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not abort the whole
			// extraction; record it as empty.
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// ExtractAllText returns the document text as one string with pages
// separated by blank lines.
func ExtractAllText(path string) (string, error) {
	pages, err := ExtractText(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.Join(pages, "\n\n")), nil
}
