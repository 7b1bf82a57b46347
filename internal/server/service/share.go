package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"time"

	"pdfpress/internal/server/config"
	"pdfpress/internal/server/database"
	"pdfpress/internal/server/storage"
	"pdfpress/internal/server/workspace"

	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/crypto/bcrypt"
)

// accessCodeLength matches the format printed on QR cards: 8 characters
// from an uppercase alphanumeric alphabet.
const accessCodeLength = 8

// codeAttempts bounds the collision-retry loop for access codes.
const codeAttempts = 10

// ShareOptions are the optional knobs accepted at share creation.
type ShareOptions struct {
	Password     string
	ExpiryHours  int
	MaxDownloads int
	Title        string
	Description  string
}

// ShareResult is returned after a successful share upload.
type ShareResult struct {
	AccessCode    string    `json:"access_code"`
	ShareURL      string    `json:"share_url"`
	QRCodeURL     string    `json:"qr_code_url"`
	DeletionToken string    `json:"deletion_token"`
	ExpiresAt     time.Time `json:"expires_at"`
	Filename      string    `json:"filename"`
	Size          int64     `json:"size"`
}

// ShareInfo is returned for metadata queries.
type ShareInfo struct {
	AccessCode    string     `json:"access_code"`
	Filename      string     `json:"filename"`
	FileType      string     `json:"file_type"`
	Size          int64      `json:"size"`
	Title         string     `json:"title,omitempty"`
	Description   string     `json:"description,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     time.Time  `json:"expires_at"`
	DownloadCount int        `json:"download_count"`
	MaxDownloads  int        `json:"max_downloads,omitempty"`
	HasPassword   bool       `json:"has_password"`
	LastAccessed  *time.Time `json:"last_accessed,omitempty"`
}

// ShareService contains the business logic for the file-sharing subsystem.
type ShareService struct {
	repo  *database.Repository
	store storage.Store
	cfg   *config.Config
}

// NewShareService creates a new share service.
func NewShareService(repo *database.Repository, store storage.Store, cfg *config.Config) *ShareService {
	return &ShareService{
		repo:  repo,
		store: store,
		cfg:   cfg,
	}
}

// Create validates the upload, persists the file under a fresh access
// code, and creates the share record.
func (s *ShareService) Create(ctx context.Context, filename string, data io.Reader, size int64, opts ShareOptions) (*ShareResult, error) {
	if err := CheckUpload(filename, size, s.cfg.ShareMaxSize, ShareableTypes); err != nil {
		return nil, err
	}

	code, err := s.generateAccessCode(ctx)
	if err != nil {
		return nil, err
	}

	deletionToken, err := generateSecureToken(24)
	if err != nil {
		return nil, fmt.Errorf("failed to generate deletion token: %w", err)
	}
	deletionToken = "del_" + deletionToken

	ext := FileExt(filename)
	storedName := code + "." + ext

	storedBytes, err := s.store.Save(storedName, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store shared file: %w", err)
	}
	if storedBytes == 0 {
		s.store.Delete(storedName)
		return nil, ErrEmptyFile
	}

	var passwordHash *string
	if opts.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.DefaultCost)
		if err != nil {
			s.store.Delete(storedName)
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		h := string(hash)
		passwordHash = &h
	}

	now := time.Now().UTC()
	share := &database.Share{
		AccessCode:       code,
		Filename:         storedName,
		OriginalFilename: workspace.SanitizeFilename(filename),
		FileType:         ext,
		FileSize:         storedBytes,
		Title:            opts.Title,
		Description:      opts.Description,
		PasswordHash:     passwordHash,
		MaxDownloads:     opts.MaxDownloads,
		DeletionToken:    deletionToken,
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.expiry(opts.ExpiryHours)),
	}

	if err := s.repo.Create(ctx, share); err != nil {
		// Clean up stored file on DB failure
		s.store.Delete(storedName)
		return nil, fmt.Errorf("failed to create share record: %w", err)
	}

	slog.Info("share created",
		"access_code", code,
		"filename", share.OriginalFilename,
		"size", storedBytes,
		"expires_at", share.ExpiresAt,
		"has_password", passwordHash != nil,
	)

	return &ShareResult{
		AccessCode:    code,
		ShareURL:      fmt.Sprintf("%s/shared/%s", s.cfg.BaseURL, code),
		QRCodeURL:     fmt.Sprintf("%s/api/share/%s/qr", s.cfg.BaseURL, code),
		DeletionToken: deletionToken,
		ExpiresAt:     share.ExpiresAt,
		Filename:      share.OriginalFilename,
		Size:          storedBytes,
	}, nil
}

// Download validates access (expiry, download limit, password), records
// the download, and returns the stored file path and download name.
func (s *ShareService) Download(ctx context.Context, code, password string) (filePath string, filename string, err error) {
	share, err := s.getAlive(ctx, code)
	if err != nil {
		return "", "", err
	}

	if share.MaxDownloads > 0 && share.DownloadCount >= share.MaxDownloads {
		return "", "", ErrDownloadLimit
	}

	if share.PasswordHash != nil {
		if password == "" {
			return "", "", ErrPasswordRequired
		}
		if err := bcrypt.CompareHashAndPassword([]byte(*share.PasswordHash), []byte(password)); err != nil {
			return "", "", ErrInvalidPassword
		}
	}

	path, err := s.store.GetPath(share.Filename)
	if err != nil {
		return "", "", fmt.Errorf("shared file not found on disk: %w", err)
	}

	// Record the download (best-effort, don't fail the download)
	if err := s.repo.RecordDownload(ctx, code); err != nil {
		slog.Error("failed to record download", "access_code", code, "error", err)
	}

	return path, share.OriginalFilename, nil
}

// GetInfo returns metadata about a share without serving the file.
func (s *ShareService) GetInfo(ctx context.Context, code string) (*ShareInfo, error) {
	share, err := s.getAlive(ctx, code)
	if err != nil {
		return nil, err
	}

	return &ShareInfo{
		AccessCode:    share.AccessCode,
		Filename:      share.OriginalFilename,
		FileType:      share.FileType,
		Size:          share.FileSize,
		Title:         share.Title,
		Description:   share.Description,
		CreatedAt:     share.CreatedAt,
		ExpiresAt:     share.ExpiresAt,
		DownloadCount: share.DownloadCount,
		MaxDownloads:  share.MaxDownloads,
		HasPassword:   share.PasswordHash != nil,
		LastAccessed:  share.LastAccessed,
	}, nil
}

// QRCode renders a PNG QR code pointing at the share retrieval URL.
func (s *ShareService) QRCode(ctx context.Context, code string) ([]byte, error) {
	if _, err := s.getAlive(ctx, code); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/shared/%s", s.cfg.BaseURL, code)
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	return png, nil
}

// Delete validates the deletion token and removes the share.
func (s *ShareService) Delete(ctx context.Context, code, token string) error {
	share, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, database.ErrShareNotFound) {
			return ErrNotFound
		}
		return err
	}

	if share.DeletionToken != token {
		return ErrInvalidToken
	}

	// Delete file from storage
	if err := s.store.Delete(share.Filename); err != nil {
		slog.Error("failed to delete shared file", "access_code", code, "error", err)
		// Continue with DB deletion even if file deletion fails
	}

	if err := s.repo.Delete(ctx, code); err != nil {
		return fmt.Errorf("failed to delete share record: %w", err)
	}

	slog.Info("share deleted", "access_code", code, "filename", share.OriginalFilename)
	return nil
}

// GetStats returns aggregate sharing statistics.
func (s *ShareService) GetStats(ctx context.Context) (*database.Stats, error) {
	return s.repo.GetStats(ctx)
}

// getAlive looks up a share and folds expiry into not-found semantics:
// expired records are not servable.
func (s *ShareService) getAlive(ctx context.Context, code string) (*database.Share, error) {
	share, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, database.ErrShareNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := checkAlive(share, time.Now()); err != nil {
		return nil, err
	}
	return share, nil
}

// checkAlive reports whether the share is still servable at the given
// time. Expired shares read as gone.
func checkAlive(share *database.Share, now time.Time) error {
	if now.After(share.ExpiresAt) {
		return ErrExpired
	}
	return nil
}

// expiry clamps a requested expiry in hours to the configured maximum,
// falling back to the default when unset or invalid.
func (s *ShareService) expiry(hours int) time.Duration {
	if hours <= 0 {
		return s.cfg.DefaultExpiry
	}
	d := time.Duration(hours) * time.Hour
	if d > s.cfg.MaxExpiry {
		return s.cfg.MaxExpiry
	}
	return d
}

// generateAccessCode produces an unused uppercase alphanumeric code,
// retrying on the (unlikely) collision.
func (s *ShareService) generateAccessCode(ctx context.Context) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := randomString(accessCodeAlphabet, accessCodeLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate access code: %w", err)
		}
		exists, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique access code after %d attempts", codeAttempts)
}

const accessCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generateSecureToken produces a cryptographically secure, URL-safe random string.
func generateSecureToken(length int) (string, error) {
	return randomString(tokenAlphabet, length)
}

func randomString(alphabet string, length int) (string, error) {
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", fmt.Errorf("crypto/rand failure: %w", err)
		}
		result[i] = alphabet[n.Int64()]
	}
	return string(result), nil
}
