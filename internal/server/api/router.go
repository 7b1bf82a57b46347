package api

import (
	"fmt"

	"pdfpress/internal/server/config"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SetupRouter creates and configures the echo router with all routes and middleware.
func SetupRouter(handler *Handler, cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
	}))
	e.Use(RequestLogger())

	// Reject oversized request bodies before handlers read them.
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.MaxUploadSize>>20)))

	// Rate limiter on processing and share-upload endpoints
	limiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// Index, health & stats
	e.GET("/", handler.HandleIndex)
	e.GET("/health", handler.HandleHealth)
	e.GET("/api/stats", handler.HandleStats)

	// Document processing (rate-limited)
	pdf := e.Group("/api/pdf", limiter.Middleware())
	pdf.POST("/merge", handler.HandleMerge)
	pdf.POST("/split", handler.HandleSplit)
	pdf.POST("/compress", handler.HandleCompress)
	pdf.POST("/rotate", handler.HandleRotate)
	pdf.POST("/encrypt", handler.HandleEncrypt)
	pdf.POST("/decrypt", handler.HandleDecrypt)

	e.POST("/api/convert", handler.HandleConvert, limiter.Middleware())

	// Sharing
	e.POST("/api/share/upload", handler.HandleShareUpload, limiter.Middleware())
	e.GET("/api/share/:code", handler.HandleShareInfo)
	e.GET("/api/share/:code/qr", handler.HandleShareQR)
	e.DELETE("/api/share/:code/:token", handler.HandleShareDelete)

	// Public retrieval by access code
	e.GET("/shared/:code", handler.HandleSharedDownload)

	return e
}
