package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Sentinel errors for document operations.
var (
	ErrNotEnoughInputs      = errors.New("at least two PDF files are required")
	ErrInvalidRotation      = errors.New("rotation angle must be 90, 180 or 270")
	ErrInvalidPageSelection = errors.New("page selection must be all, odd or even")
	ErrEmptyPassword        = errors.New("password must not be empty")
)

// pdfConf returns a pdfcpu configuration with relaxed validation so that
// slightly malformed but readable documents still process.
func pdfConf() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// MergePDFs concatenates the input files into outPath in the given order.
func MergePDFs(inputs []string, outPath string) error {
	if len(inputs) < 2 {
		return ErrNotEnoughInputs
	}
	if err := api.MergeCreateFile(inputs, outPath, false, pdfConf()); err != nil {
		return fmt.Errorf("failed to merge PDFs: %w", err)
	}
	return nil
}

// SplitPDF writes one single-page PDF per page of input into outDir and
// returns the resulting file paths in page order. Files are renamed to
// page_NNN.pdf so that archive entries sort naturally.
func SplitPDF(input, outDir string) ([]string, error) {
	if err := api.SplitFile(input, outDir, 1, pdfConf()); err != nil {
		return nil, fmt.Errorf("failed to split PDF: %w", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read split output: %w", err)
	}

	// pdfcpu names outputs <base>_<page>.pdf; recover the page number
	// from the suffix so 10 does not sort before 2.
	type page struct {
		num  int
		path string
	}
	var pages []page
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".pdf") {
			continue
		}
		base := strings.TrimSuffix(name, ".pdf")
		idx := strings.LastIndex(base, "_")
		if idx < 0 {
			continue
		}
		n, err := strconv.Atoi(base[idx+1:])
		if err != nil {
			continue
		}
		pages = append(pages, page{num: n, path: filepath.Join(outDir, name)})
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("split produced no pages")
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].num < pages[j].num })

	var out []string
	for _, p := range pages {
		renamed := filepath.Join(outDir, fmt.Sprintf("page_%03d.pdf", p.num))
		if renamed != p.path {
			if err := os.Rename(p.path, renamed); err != nil {
				return nil, fmt.Errorf("failed to rename split page: %w", err)
			}
		}
		out = append(out, renamed)
	}
	return out, nil
}

// CompressPDF rewrites input through the pdfcpu optimizer, which removes
// redundant objects and recompresses streams.
func CompressPDF(input, outPath string) error {
	if err := api.OptimizeFile(input, outPath, pdfConf()); err != nil {
		return fmt.Errorf("failed to compress PDF: %w", err)
	}
	return nil
}

// RotatePDF rotates the selected pages (all, odd or even) of input by
// angle degrees clockwise.
func RotatePDF(input, outPath string, angle int, pages string) error {
	if angle != 90 && angle != 180 && angle != 270 {
		return ErrInvalidRotation
	}

	var selected []string
	switch pages {
	case "", "all":
		selected = nil
	case "odd":
		selected = []string{"odd"}
	case "even":
		selected = []string{"even"}
	default:
		return ErrInvalidPageSelection
	}

	if err := api.RotateFile(input, outPath, angle, selected, pdfConf()); err != nil {
		return fmt.Errorf("failed to rotate PDF: %w", err)
	}
	return nil
}

// EncryptPDF writes a copy of input protected with the given password.
func EncryptPDF(input, outPath, password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	conf := pdfConf()
	conf.UserPW = password
	conf.OwnerPW = password
	if err := api.EncryptFile(input, outPath, conf); err != nil {
		return fmt.Errorf("failed to encrypt PDF: %w", err)
	}
	return nil
}

// DecryptPDF removes password protection from input. The password must
// open the document; a wrong password surfaces as a processing error.
func DecryptPDF(input, outPath, password string) error {
	conf := pdfConf()
	conf.UserPW = password
	conf.OwnerPW = password
	if err := api.DecryptFile(input, outPath, conf); err != nil {
		return fmt.Errorf("failed to decrypt PDF: %w", err)
	}
	return nil
}

// PageCount returns the number of pages in the document at path.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return n, nil
}
