package api

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"

	"pdfpress/internal/core"
	"pdfpress/internal/server/service"
	"pdfpress/internal/server/workspace"

	"github.com/labstack/echo/v4"
)

// Document operation handlers. Each one follows the same linear shape:
// validate the upload(s), stage them in a request-scoped workspace, run
// one core operation, and stream the result back. The deferred workspace
// cleanup covers every exit path.

// HandleMerge handles POST /api/pdf/merge.
// Accepts a multipart form with a repeated "files" field; concatenates
// the PDFs in submitted order.
func (h *Handler) HandleMerge(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "multipart form with a 'files' field is required",
		})
	}

	files := form.File["files"]
	if len(files) < 2 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "select at least 2 PDF files to merge",
		})
	}

	ws, err := workspace.New(h.cfg.WorkPath)
	if err != nil {
		return processingError(c, "merge", err)
	}
	defer ws.Cleanup()

	inputs := make([]string, 0, len(files))
	for i, fh := range files {
		path, err := h.stageUpload(ws, i, fh, service.PDFOnly)
		if err != nil {
			return mapServiceError(c, err)
		}
		inputs = append(inputs, path)
	}

	out := ws.Path("merged.pdf")
	if err := core.MergePDFs(inputs, out); err != nil {
		return processingError(c, "merge", err)
	}

	return c.Attachment(out, "merged.pdf")
}

// HandleSplit handles POST /api/pdf/split.
// Splits the PDF into single-page files and returns them as one zip.
func (h *Handler) HandleSplit(c echo.Context) error {
	ws, input, err := h.receiveSingle(c, service.PDFOnly)
	if err != nil {
		return mapServiceError(c, err)
	}
	defer ws.Cleanup()

	outDir, err := ws.Mkdir("pages")
	if err != nil {
		return processingError(c, "split", err)
	}

	pages, err := core.SplitPDF(input, outDir)
	if err != nil {
		return processingError(c, "split", err)
	}

	// Multi-file output is bundled into an in-memory zip.
	archive, err := core.ZipFiles(pages)
	if err != nil {
		return processingError(c, "split", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", "split_pages.zip"))
	return c.Blob(http.StatusOK, "application/zip", archive)
}

// HandleCompress handles POST /api/pdf/compress.
func (h *Handler) HandleCompress(c echo.Context) error {
	ws, input, err := h.receiveSingle(c, service.PDFOnly)
	if err != nil {
		return mapServiceError(c, err)
	}
	defer ws.Cleanup()

	out := ws.Path("compressed.pdf")
	if err := core.CompressPDF(input, out); err != nil {
		return processingError(c, "compress", err)
	}

	if in, errIn := os.Stat(input); errIn == nil {
		if res, errOut := os.Stat(out); errOut == nil && in.Size() > 0 {
			slog.Info("compressed document",
				"original_bytes", in.Size(),
				"compressed_bytes", res.Size(),
				"ratio", fmt.Sprintf("%.2f", float64(res.Size())/float64(in.Size())),
			)
		}
	}

	return c.Attachment(out, "compressed.pdf")
}

// HandleRotate handles POST /api/pdf/rotate.
// Form fields: "rotation" (90/180/270, default 90) and "pages"
// (all/odd/even, default all).
func (h *Handler) HandleRotate(c echo.Context) error {
	rotation := 90
	if v := c.FormValue("rotation"); v != "" {
		rotation, _ = strconv.Atoi(v)
	}
	pages := c.FormValue("pages")
	if pages == "" {
		pages = "all"
	}

	ws, input, err := h.receiveSingle(c, service.PDFOnly)
	if err != nil {
		return mapServiceError(c, err)
	}
	defer ws.Cleanup()

	out := ws.Path("rotated.pdf")
	if err := core.RotatePDF(input, out, rotation, pages); err != nil {
		return mapCoreError(c, "rotate", err)
	}

	return c.Attachment(out, "rotated.pdf")
}

// HandleEncrypt handles POST /api/pdf/encrypt.
// Requires a non-empty "password" form field.
func (h *Handler) HandleEncrypt(c echo.Context) error {
	password := c.FormValue("password")
	if password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "password is required",
		})
	}

	ws, input, err := h.receiveSingle(c, service.PDFOnly)
	if err != nil {
		return mapServiceError(c, err)
	}
	defer ws.Cleanup()

	out := ws.Path("protected.pdf")
	if err := core.EncryptPDF(input, out, password); err != nil {
		return mapCoreError(c, "encrypt", err)
	}

	return c.Attachment(out, "protected.pdf")
}

// HandleDecrypt handles POST /api/pdf/decrypt.
// The "password" form field must open the document; a wrong password is
// reported as a processing failure, not echoed back in detail.
func (h *Handler) HandleDecrypt(c echo.Context) error {
	password := c.FormValue("password")

	ws, input, err := h.receiveSingle(c, service.PDFOnly)
	if err != nil {
		return mapServiceError(c, err)
	}
	defer ws.Cleanup()

	out := ws.Path("decrypted.pdf")
	if err := core.DecryptPDF(input, out, password); err != nil {
		return processingError(c, "decrypt", err)
	}

	return c.Attachment(out, "decrypted.pdf")
}

// HandleConvert handles POST /api/convert.
// The "conversion_type" form field selects the conversion; the uploaded
// file's extension must match the conversion's input format.
func (h *Handler) HandleConvert(c echo.Context) error {
	kind := core.ConversionType(c.FormValue("conversion_type"))

	inExt, err := core.ConversionInputExt(kind)
	if err != nil {
		return mapCoreError(c, "convert", err)
	}
	outName, err := core.ConversionOutputName(kind)
	if err != nil {
		return mapCoreError(c, "convert", err)
	}

	ws, input, err := h.receiveSingle(c, []string{inExt})
	if err != nil {
		return mapServiceError(c, err)
	}
	defer ws.Cleanup()

	out := ws.Path(outName)
	if err := core.Convert(kind, input, out); err != nil {
		return mapCoreError(c, "convert", err)
	}

	return c.Attachment(out, outName)
}

// receiveSingle validates and stages the single "file" upload of a
// processing request into a fresh workspace. On success the caller owns
// the workspace and must defer its cleanup.
func (h *Handler) receiveSingle(c echo.Context, allowed []string) (*workspace.Workspace, string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "", service.ErrMissingFile
	}

	ws, err := workspace.New(h.cfg.WorkPath)
	if err != nil {
		return nil, "", err
	}

	path, err := h.stageUpload(ws, 0, fh, allowed)
	if err != nil {
		ws.Cleanup()
		return nil, "", err
	}
	return ws, path, nil
}

// stageUpload checks one multipart file against the allow-list and size
// ceiling, then copies it into the workspace.
func (h *Handler) stageUpload(ws *workspace.Workspace, index int, fh *multipart.FileHeader, allowed []string) (string, error) {
	if err := service.CheckUpload(fh.Filename, fh.Size, h.cfg.MaxUploadSize, allowed); err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	path, _, err := ws.SaveUpload(index, fh.Filename, src)
	return path, err
}
