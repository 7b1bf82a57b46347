package api

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"pdfpress/internal/server/config"

	"github.com/go-pdf/fpdf"
	"github.com/labstack/echo/v4"
)

func testHandler(t *testing.T) *Handler {
	t.Helper()
	return &Handler{cfg: &config.Config{
		WorkPath:      t.TempDir(),
		MaxUploadSize: 10 << 20,
	}}
}

func testPDFBytes(t *testing.T, pages int) []byte {
	t.Helper()
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	for i := 1; i <= pages; i++ {
		doc.AddPage()
		doc.Cell(40, 10, fmt.Sprintf("page %d", i))
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("failed to build test PDF: %v", err)
	}
	return buf.Bytes()
}

type filePart struct {
	field string
	name  string
	data  []byte
}

// multipartBody assembles a multipart form from file parts and plain
// fields, returning the body and its content type.
func multipartBody(t *testing.T, files []filePart, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range files {
		fw, err := mw.CreateFormFile(p.field, p.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(p.data); err != nil {
			t.Fatal(err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func doRequest(t *testing.T, h echo.HandlerFunc, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

// assertWorkPathEmpty verifies no workspace survived the request.
func assertWorkPathEmpty(t *testing.T, h *Handler) {
	t.Helper()
	entries, err := os.ReadDir(h.cfg.WorkPath)
	if err != nil {
		t.Fatalf("failed to read work path: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty work path, found %d entries", len(entries))
	}
}

func TestHandleMerge(t *testing.T) {
	t.Run("merges two PDFs", func(t *testing.T) {
		h := testHandler(t)
		body, ct := multipartBody(t, []filePart{
			{"files", "a.pdf", testPDFBytes(t, 2)},
			{"files", "b.pdf", testPDFBytes(t, 3)},
		}, nil)

		rec := doRequest(t, h.HandleMerge, body, ct)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if rec.Body.Len() == 0 {
			t.Error("expected PDF bytes in response")
		}
		assertWorkPathEmpty(t, h)
	})

	t.Run("rejects a single file", func(t *testing.T) {
		h := testHandler(t)
		body, ct := multipartBody(t, []filePart{
			{"files", "a.pdf", testPDFBytes(t, 1)},
		}, nil)

		rec := doRequest(t, h.HandleMerge, body, ct)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects a non-PDF upload", func(t *testing.T) {
		h := testHandler(t)
		body, ct := multipartBody(t, []filePart{
			{"files", "a.pdf", testPDFBytes(t, 1)},
			{"files", "b.txt", []byte("not a pdf")},
		}, nil)

		rec := doRequest(t, h.HandleMerge, body, ct)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		assertWorkPathEmpty(t, h)
	})

	t.Run("corrupt input is a processing failure", func(t *testing.T) {
		h := testHandler(t)
		body, ct := multipartBody(t, []filePart{
			{"files", "a.pdf", []byte("%PDF-1.7 garbage")},
			{"files", "b.pdf", []byte("%PDF-1.7 garbage")},
		}, nil)

		rec := doRequest(t, h.HandleMerge, body, ct)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		assertWorkPathEmpty(t, h)
	})
}

func TestHandleSplit(t *testing.T) {
	h := testHandler(t)
	body, ct := multipartBody(t, []filePart{
		{"file", "doc.pdf", testPDFBytes(t, 3)},
	}, nil)

	rec := doRequest(t, h.HandleSplit, body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(echo.HeaderContentType); got != "application/zip" {
		t.Errorf("expected application/zip, got %s", got)
	}
	assertWorkPathEmpty(t, h)
}

func TestHandleRotate(t *testing.T) {
	t.Run("rotates with defaults", func(t *testing.T) {
		h := testHandler(t)
		body, ct := multipartBody(t, []filePart{
			{"file", "doc.pdf", testPDFBytes(t, 2)},
		}, nil)

		rec := doRequest(t, h.HandleRotate, body, ct)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		assertWorkPathEmpty(t, h)
	})

	t.Run("invalid rotation is a client error", func(t *testing.T) {
		h := testHandler(t)
		body, ct := multipartBody(t, []filePart{
			{"file", "doc.pdf", testPDFBytes(t, 2)},
		}, map[string]string{"rotation": "45"})

		rec := doRequest(t, h.HandleRotate, body, ct)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		assertWorkPathEmpty(t, h)
	})
}

func TestHandleEncrypt(t *testing.T) {
	t.Run("requires a password", func(t *testing.T) {
		h := testHandler(t)
		body, ct := multipartBody(t, []filePart{
			{"file", "doc.pdf", testPDFBytes(t, 1)},
		}, nil)

		rec := doRequest(t, h.HandleEncrypt, body, ct)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("encrypts with a password", func(t *testing.T) {
		h := testHandler(t)
		body, ct := multipartBody(t, []filePart{
			{"file", "doc.pdf", testPDFBytes(t, 1)},
		}, map[string]string{"password": "hunter2"})

		rec := doRequest(t, h.HandleEncrypt, body, ct)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		assertWorkPathEmpty(t, h)
	})
}

func TestHandleConvert(t *testing.T) {
	t.Run("pdf to txt", func(t *testing.T) {
		h := testHandler(t)
		body, ct := multipartBody(t, []filePart{
			{"file", "doc.pdf", testPDFBytes(t, 2)},
		}, map[string]string{"conversion_type": "pdf_to_txt"})

		rec := doRequest(t, h.HandleConvert, body, ct)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !bytes.Contains(rec.Body.Bytes(), []byte("page 1")) {
			t.Errorf("expected extracted text in response")
		}
		assertWorkPathEmpty(t, h)
	})

	t.Run("unknown conversion type", func(t *testing.T) {
		h := testHandler(t)
		body, ct := multipartBody(t, []filePart{
			{"file", "doc.pdf", testPDFBytes(t, 1)},
		}, map[string]string{"conversion_type": "pdf_to_xlsx"})

		rec := doRequest(t, h.HandleConvert, body, ct)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("input extension must match conversion", func(t *testing.T) {
		h := testHandler(t)
		body, ct := multipartBody(t, []filePart{
			{"file", "doc.pdf", testPDFBytes(t, 1)},
		}, map[string]string{"conversion_type": "txt_to_pdf"})

		rec := doRequest(t, h.HandleConvert, body, ct)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestReceiveSingleMissingFile(t *testing.T) {
	h := testHandler(t)
	body, ct := multipartBody(t, nil, map[string]string{"other": "field"})

	rec := doRequest(t, h.HandleCompress, body, ct)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	// Missing file means no workspace was ever created.
	entries, err := os.ReadDir(h.cfg.WorkPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no workspaces, found %d", len(entries))
	}
}

func TestAttachmentFilename(t *testing.T) {
	h := testHandler(t)
	body, ct := multipartBody(t, []filePart{
		{"file", "doc.pdf", testPDFBytes(t, 1)},
	}, nil)

	rec := doRequest(t, h.HandleCompress, body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	cd := rec.Header().Get(echo.HeaderContentDisposition)
	if cd == "" || !strings.Contains(cd, "compressed.pdf") {
		t.Errorf("unexpected content disposition: %q", cd)
	}
}
