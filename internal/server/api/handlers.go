package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"pdfpress/internal/core"
	"pdfpress/internal/server/config"
	"pdfpress/internal/server/database"
	"pdfpress/internal/server/service"

	"github.com/labstack/echo/v4"
)

// Handler contains the HTTP handlers for the pdfpress API.
type Handler struct {
	shares *service.ShareService
	db     *database.DB
	cfg    *config.Config
}

// NewHandler creates a new handler with the given dependencies.
func NewHandler(shares *service.ShareService, db *database.DB, cfg *config.Config) *Handler {
	return &Handler{shares: shares, db: db, cfg: cfg}
}

// HandleIndex handles GET /.
// Returns a JSON index of the available operations.
func (h *Handler) HandleIndex(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"service": "pdfpress",
		"operations": echo.Map{
			"merge":    "POST /api/pdf/merge (multipart 'files', >= 2 PDFs)",
			"split":    "POST /api/pdf/split (multipart 'file')",
			"compress": "POST /api/pdf/compress (multipart 'file')",
			"rotate":   "POST /api/pdf/rotate (multipart 'file', 'rotation', 'pages')",
			"encrypt":  "POST /api/pdf/encrypt (multipart 'file', 'password')",
			"decrypt":  "POST /api/pdf/decrypt (multipart 'file', 'password')",
			"convert":  "POST /api/convert (multipart 'file', 'conversion_type')",
			"share":    "POST /api/share/upload (multipart 'file', optional 'password', 'expiry_hours', 'max_downloads')",
			"retrieve": "GET /shared/:code",
		},
		"max_upload_size": h.cfg.MaxUploadSize,
	})
}

// HandleShareUpload handles POST /api/share/upload.
// Accepts a multipart form with a "file" field plus optional sharing
// options, and returns the access code, URLs and deletion token.
func (h *Handler) HandleShareUpload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "file is required (use form field 'file')",
		})
	}

	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to read uploaded file",
		})
	}
	defer src.Close()

	opts := service.ShareOptions{
		Password:    c.FormValue("password"),
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
	}
	if v := c.FormValue("expiry_hours"); v != "" {
		opts.ExpiryHours, _ = strconv.Atoi(v)
	}
	if v := c.FormValue("max_downloads"); v != "" {
		opts.MaxDownloads, _ = strconv.Atoi(v)
	}

	result, err := h.shares.Create(c.Request().Context(), fh.Filename, src, fh.Size, opts)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, result)
}

// HandleSharedDownload handles GET /shared/:code.
// Serves the shared file as an attachment. Accepts an optional
// "password" query param for protected shares.
func (h *Handler) HandleSharedDownload(c echo.Context) error {
	code := c.Param("code")
	password := c.QueryParam("password")
	if password == "" {
		password = c.FormValue("password")
	}

	filePath, filename, err := h.shares.Download(c.Request().Context(), code, password)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Attachment(filePath, filename)
}

// HandleShareInfo handles GET /api/share/:code.
// Returns share metadata without serving the file.
func (h *Handler) HandleShareInfo(c echo.Context) error {
	info, err := h.shares.GetInfo(c.Request().Context(), c.Param("code"))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, info)
}

// HandleShareQR handles GET /api/share/:code/qr.
// Returns a PNG QR code encoding the share retrieval URL.
func (h *Handler) HandleShareQR(c echo.Context) error {
	png, err := h.shares.QRCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Blob(http.StatusOK, "image/png", png)
}

// HandleShareDelete handles DELETE /api/share/:code/:token.
// Deletes a share using the deletion token provided at upload time.
func (h *Handler) HandleShareDelete(c echo.Context) error {
	code := c.Param("code")
	token := c.Param("token")

	if err := h.shares.Delete(c.Request().Context(), code, token); err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "share deleted successfully",
	})
}

// HandleHealth handles GET /health.
// Returns the health status of the server, including database connectivity.
func (h *Handler) HandleHealth(c echo.Context) error {
	status := "healthy"
	dbStatus := "connected"

	if err := h.db.HealthCheck(c.Request().Context()); err != nil {
		status = "degraded"
		dbStatus = fmt.Sprintf("error: %v", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":   status,
		"database": dbStatus,
	})
}

// HandleStats handles GET /api/stats.
// Returns aggregate sharing statistics.
func (h *Handler) HandleStats(c echo.Context) error {
	stats, err := h.shares.GetStats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to retrieve stats",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_shares":       stats.TotalShares,
		"active_shares":      stats.ActiveShares,
		"total_downloads":    stats.TotalDownloads,
		"storage_used_bytes": stats.StorageUsed,
		"storage_used_human": humanizeBytes(stats.StorageUsed),
	})
}

// mapServiceError translates service-layer errors into appropriate HTTP responses.
func mapServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrExpired):
		// Expired records are not servable; both read as not found.
		return c.JSON(http.StatusNotFound, echo.Map{"error": "share not found or expired"})
	case errors.Is(err, service.ErrPasswordRequired):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "password required"})
	case errors.Is(err, service.ErrInvalidPassword):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid password"})
	case errors.Is(err, service.ErrInvalidToken):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid deletion token"})
	case errors.Is(err, service.ErrDownloadLimit):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "download limit reached"})
	case errors.Is(err, service.ErrFileTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{
			"error": "file exceeds maximum allowed size",
		})
	case errors.Is(err, service.ErrMissingFile),
		errors.Is(err, service.ErrEmptyFile),
		errors.Is(err, service.ErrInvalidFileType):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		slog.Error("request failed", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}

// mapCoreError distinguishes bad operation parameters (client errors)
// from genuine processing failures.
func mapCoreError(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, core.ErrNotEnoughInputs),
		errors.Is(err, core.ErrInvalidRotation),
		errors.Is(err, core.ErrInvalidPageSelection),
		errors.Is(err, core.ErrEmptyPassword),
		errors.Is(err, core.ErrUnknownConversion),
		errors.Is(err, core.ErrNoTables):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return processingError(c, op, err)
	}
}

// processingError logs the underlying library failure server-side and
// returns a generic message; malformed input details stay in the logs.
func processingError(c echo.Context, op string, err error) error {
	slog.Error("document processing failed", "operation", op, "error", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{
		"error": fmt.Sprintf("failed to %s document", op),
	})
}

// humanizeBytes formats a byte count into a human-readable string.
func humanizeBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
