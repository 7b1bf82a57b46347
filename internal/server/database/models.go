package database

import "time"

// Share represents a shared file record in the database.
type Share struct {
	AccessCode       string
	Filename         string // stored name under the storage path
	OriginalFilename string
	FileType         string
	FileSize         int64
	Title            string
	Description      string
	PasswordHash     *string // nil when no password set
	DownloadCount    int
	MaxDownloads     int // 0 = unlimited
	DeletionToken    string
	CreatedAt        time.Time
	ExpiresAt        time.Time
	LastAccessed     *time.Time
}

// Stats holds aggregate sharing statistics.
type Stats struct {
	TotalShares    int64
	ActiveShares   int64
	TotalDownloads int64
	StorageUsed    int64
}
