package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pdfpress/internal/core"
	"pdfpress/internal/server/service"

	"github.com/labstack/echo/v4"
)

func mapOnRecorder(t *testing.T, mapFn func(echo.Context, error) error, err error) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := mapFn(c, err); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"unknown share", service.ErrNotFound, http.StatusNotFound, "share not found or expired"},
		{"expired share reads as not found", service.ErrExpired, http.StatusNotFound, "share not found or expired"},
		{"password required", service.ErrPasswordRequired, http.StatusUnauthorized, "password required"},
		{"invalid password", service.ErrInvalidPassword, http.StatusForbidden, "invalid password"},
		{"invalid deletion token", service.ErrInvalidToken, http.StatusForbidden, "invalid deletion token"},
		{"download limit", service.ErrDownloadLimit, http.StatusForbidden, "download limit reached"},
		{"oversize file", service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "maximum allowed size"},
		{"missing file", service.ErrMissingFile, http.StatusBadRequest, "no file provided"},
		{"empty file", service.ErrEmptyFile, http.StatusBadRequest, "file is empty"},
		{"disallowed type", service.ErrInvalidFileType, http.StatusBadRequest, "not allowed"},
		{"unexpected error", errors.New("pool exhausted"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := mapOnRecorder(t, mapServiceError, tt.err)
			if rec.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("expected body containing %q, got %s", tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestMapCoreError(t *testing.T) {
	mapFn := func(c echo.Context, err error) error {
		return mapCoreError(c, "rotate", err)
	}

	t.Run("parameter errors are client errors", func(t *testing.T) {
		for _, err := range []error{
			core.ErrNotEnoughInputs,
			core.ErrInvalidRotation,
			core.ErrInvalidPageSelection,
			core.ErrEmptyPassword,
			core.ErrUnknownConversion,
			core.ErrNoTables,
		} {
			rec := mapOnRecorder(t, mapFn, err)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%v: expected 400, got %d", err, rec.Code)
			}
		}
	})

	t.Run("library failures are generic processing errors", func(t *testing.T) {
		rec := mapOnRecorder(t, mapFn, errors.New("xref table corrupt"))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "xref") {
			t.Errorf("library detail leaked into response: %s", rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "failed to rotate document") {
			t.Errorf("expected generic message, got %s", rec.Body.String())
		}
	})
}

func TestHumanizeBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}
	for _, tt := range tests {
		if got := humanizeBytes(tt.in); got != tt.want {
			t.Errorf("humanizeBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
