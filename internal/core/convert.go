package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	docx "github.com/fumiama/go-docx"
	"github.com/go-pdf/fpdf"
)

// ConversionType names a supported document conversion.
type ConversionType string

const (
	PDFToDocx ConversionType = "pdf_to_docx"
	PDFToText ConversionType = "pdf_to_txt"
	PDFToCSV  ConversionType = "pdf_to_csv"
	PDFToPptx ConversionType = "pdf_to_pptx"
	DocxToPDF ConversionType = "docx_to_pdf"
	TextToPDF ConversionType = "txt_to_pdf"
	CSVToPDF  ConversionType = "csv_to_pdf"
	PptxToPDF ConversionType = "pptx_to_pdf"
)

var (
	ErrUnknownConversion = errors.New("unsupported conversion type")
	ErrNoTables          = errors.New("no tabular content found in PDF")
)

// conversions maps each conversion type to its implementation and the
// filename offered for download.
var conversions = map[ConversionType]struct {
	run     func(input, outPath string) error
	outName string
	inExt   string
}{
	PDFToDocx: {convertPDFToDocx, "converted.docx", "pdf"},
	PDFToText: {convertPDFToText, "converted.txt", "pdf"},
	PDFToCSV:  {convertPDFToCSV, "converted.csv", "pdf"},
	PDFToPptx: {convertPDFToPptx, "converted.pptx", "pdf"},
	DocxToPDF: {convertDocxToPDF, "converted.pdf", "docx"},
	TextToPDF: {convertTextToPDF, "converted.pdf", "txt"},
	CSVToPDF:  {convertCSVToPDF, "converted.pdf", "csv"},
	PptxToPDF: {convertPptxToPDF, "converted.pdf", "pptx"},
}

// Convert runs the named conversion from input to outPath.
func Convert(kind ConversionType, input, outPath string) error {
	c, ok := conversions[kind]
	if !ok {
		return ErrUnknownConversion
	}
	return c.run(input, outPath)
}

// ConversionOutputName returns the download filename for a conversion,
// or an error when the type is unknown.
func ConversionOutputName(kind ConversionType) (string, error) {
	c, ok := conversions[kind]
	if !ok {
		return "", ErrUnknownConversion
	}
	return c.outName, nil
}

// ConversionInputExt returns the required input extension for a conversion.
func ConversionInputExt(kind ConversionType) (string, error) {
	c, ok := conversions[kind]
	if !ok {
		return "", ErrUnknownConversion
	}
	return c.inExt, nil
}

func convertPDFToText(input, outPath string) error {
	text, err := ExtractAllText(input)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, []byte(text+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write text output: %w", err)
	}
	return nil
}

func convertPDFToDocx(input, outPath string) error {
	text, err := ExtractAllText(input)
	if err != nil {
		return err
	}

	doc := docx.New().WithDefaultTheme()
	for _, para := range splitParagraphs(text) {
		doc.AddParagraph().AddText(para)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create DOCX output: %w", err)
	}
	defer f.Close()

	if _, err := doc.WriteTo(f); err != nil {
		return fmt.Errorf("failed to write DOCX output: %w", err)
	}
	return nil
}

func convertDocxToPDF(input, outPath string) error {
	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("failed to open DOCX input: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat DOCX input: %w", err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return fmt.Errorf("failed to parse DOCX: %w", err)
	}

	var paras []string
	for _, it := range doc.Document.Body.Items {
		if p, ok := it.(*docx.Paragraph); ok {
			if s := strings.TrimSpace(p.String()); s != "" {
				paras = append(paras, s)
			}
		}
	}
	return renderTextPDF(paras, outPath)
}

func convertTextToPDF(input, outPath string) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("failed to read text input: %w", err)
	}
	return renderTextPDF(splitParagraphs(string(data)), outPath)
}

func convertCSVToPDF(input, outPath string) error {
	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("failed to open CSV input: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("CSV input is empty")
	}

	cols := 0
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}

	doc := fpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.AddPage()
	colWidth := 190.0 / float64(cols)

	for i, row := range rows {
		style := ""
		if i == 0 {
			style = "B" // header row
		}
		doc.SetFont("Helvetica", style, 9)
		for c := 0; c < cols; c++ {
			cell := ""
			if c < len(row) {
				cell = row[c]
			}
			doc.CellFormat(colWidth, 7, tr(cell), "1", 0, "L", false, 0, "")
		}
		doc.Ln(-1)
	}

	if err := doc.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("failed to write PDF output: %w", err)
	}
	return nil
}

// tableSplit matches runs of two or more spaces, or tabs, used as column
// separators when recovering tabular text from a PDF.
var tableSplit = regexp.MustCompile(`\t+| {2,}`)

func convertPDFToCSV(input, outPath string) error {
	pages, err := ExtractText(input)
	if err != nil {
		return err
	}

	var records [][]string
	for _, page := range pages {
		for _, line := range strings.Split(page, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			fields := tableSplit.Split(line, -1)
			if len(fields) < 2 {
				continue
			}
			records = append(records, fields)
		}
	}
	if len(records) == 0 {
		return ErrNoTables
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV output: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write CSV output: %w", err)
	}
	return nil
}

// renderTextPDF lays the paragraphs out on A4 pages.
func renderTextPDF(paras []string, outPath string) error {
	doc := fpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetFont("Helvetica", "", 11)
	doc.AddPage()

	for _, para := range paras {
		doc.MultiCell(0, 5, tr(para), "", "L", false)
		doc.Ln(3)
	}

	if err := doc.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("failed to write PDF output: %w", err)
	}
	return nil
}

// splitParagraphs breaks text on blank lines and drops empty chunks.
func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
