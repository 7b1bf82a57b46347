package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var (
	ErrShareNotFound = errors.New("share not found")
)

const shareColumns = `access_code, filename, original_filename, file_type, file_size,
	   title, description, password_hash, download_count, max_downloads,
	   deletion_token, created_at, expires_at, last_accessed`

// Repository provides CRUD operations for shares.
type Repository struct {
	db *DB
}

// NewRepository creates a new Repository.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

func scanShare(row pgx.Row) (*Share, error) {
	share := &Share{}
	err := row.Scan(
		&share.AccessCode,
		&share.Filename,
		&share.OriginalFilename,
		&share.FileType,
		&share.FileSize,
		&share.Title,
		&share.Description,
		&share.PasswordHash,
		&share.DownloadCount,
		&share.MaxDownloads,
		&share.DeletionToken,
		&share.CreatedAt,
		&share.ExpiresAt,
		&share.LastAccessed,
	)
	if err != nil {
		return nil, err
	}
	return share, nil
}

// Create inserts a new share record.
func (r *Repository) Create(ctx context.Context, share *Share) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO shares (
			access_code, filename, original_filename, file_type, file_size,
			title, description, password_hash, download_count, max_downloads,
			deletion_token, created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		share.AccessCode,
		share.Filename,
		share.OriginalFilename,
		share.FileType,
		share.FileSize,
		share.Title,
		share.Description,
		share.PasswordHash,
		share.DownloadCount,
		share.MaxDownloads,
		share.DeletionToken,
		share.CreatedAt,
		share.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create share: %w", err)
	}
	return nil
}

// GetByCode retrieves a share by its access code. Expiry is checked by
// the service layer so expired-but-unswept rows map to the same error.
func (r *Repository) GetByCode(ctx context.Context, code string) (*Share, error) {
	share, err := scanShare(r.db.Pool.QueryRow(ctx,
		"SELECT "+shareColumns+" FROM shares WHERE access_code = $1", code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrShareNotFound
		}
		return nil, fmt.Errorf("failed to get share: %w", err)
	}
	return share, nil
}

// CodeExists reports whether an access code is already taken.
func (r *Repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM shares WHERE access_code = $1)", code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check access code: %w", err)
	}
	return exists, nil
}

// RecordDownload atomically increments the download counter and stamps
// the last access time.
func (r *Repository) RecordDownload(ctx context.Context, code string) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE shares SET download_count = download_count + 1, last_accessed = NOW()
		WHERE access_code = $1
	`, code)
	if err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrShareNotFound
	}
	return nil
}

// Delete removes a share record by access code.
func (r *Repository) Delete(ctx context.Context, code string) error {
	tag, err := r.db.Pool.Exec(ctx, "DELETE FROM shares WHERE access_code = $1", code)
	if err != nil {
		return fmt.Errorf("failed to delete share: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrShareNotFound
	}
	return nil
}

// GetExpired returns all shares whose expiration time has passed.
func (r *Repository) GetExpired(ctx context.Context) ([]*Share, error) {
	rows, err := r.db.Pool.Query(ctx,
		"SELECT "+shareColumns+" FROM shares WHERE expires_at < NOW()")
	if err != nil {
		return nil, fmt.Errorf("failed to query expired shares: %w", err)
	}
	defer rows.Close()

	var shares []*Share
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expired share: %w", err)
		}
		shares = append(shares, share)
	}
	return shares, rows.Err()
}

// GetStats returns aggregate sharing statistics.
func (r *Repository) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := r.db.Pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE expires_at > NOW()),
			COALESCE(SUM(download_count), 0),
			COALESCE(SUM(file_size) FILTER (WHERE expires_at > NOW()), 0)
		FROM shares
	`).Scan(
		&stats.TotalShares,
		&stats.ActiveShares,
		&stats.TotalDownloads,
		&stats.StorageUsed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return stats, nil
}
