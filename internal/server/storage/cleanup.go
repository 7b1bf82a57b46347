package storage

import (
	"context"
	"log/slog"
	"time"

	"pdfpress/internal/server/database"
	"pdfpress/internal/server/workspace"
)

// CleanupService periodically removes expired shares from both the
// database and file storage, and sweeps stale workspace directories
// left behind by interrupted processing requests.
type CleanupService struct {
	repo     *database.Repository
	store    Store
	workRoot string
	interval time.Duration
	done     chan struct{}
}

// staleWorkspaceAge is how old an orphaned workspace directory must be
// before the sweeper removes it. Requests finish in seconds; anything
// this old belongs to a crashed request.
const staleWorkspaceAge = time.Hour

// NewCleanupService creates a new cleanup service.
func NewCleanupService(repo *database.Repository, store Store, workRoot string, interval time.Duration) *CleanupService {
	return &CleanupService{
		repo:     repo,
		store:    store,
		workRoot: workRoot,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins the cleanup loop in a background goroutine.
func (cs *CleanupService) Start(ctx context.Context) {
	slog.Info("cleanup service started", "interval", cs.interval)

	go func() {
		ticker := time.NewTicker(cs.interval)
		defer ticker.Stop()

		// Run once immediately on start
		cs.runCleanup(ctx)

		for {
			select {
			case <-ticker.C:
				cs.runCleanup(ctx)
			case <-ctx.Done():
				slog.Info("cleanup service stopping")
				close(cs.done)
				return
			}
		}
	}()
}

// Wait blocks until the cleanup service has fully stopped.
func (cs *CleanupService) Wait() {
	<-cs.done
}

func (cs *CleanupService) runCleanup(ctx context.Context) {
	slog.Info("running cleanup cycle")

	if removed := workspace.SweepStale(cs.workRoot, staleWorkspaceAge); removed > 0 {
		slog.Info("removed stale workspaces", "count", removed)
	}

	expired, err := cs.repo.GetExpired(ctx)
	if err != nil {
		slog.Error("failed to get expired shares", "error", err)
		return
	}

	if len(expired) == 0 {
		slog.Info("no expired shares to clean up")
		return
	}

	var cleaned, failed int
	for _, share := range expired {
		// Delete file from storage
		if err := cs.store.Delete(share.Filename); err != nil {
			slog.Error("failed to delete shared file",
				"access_code", share.AccessCode,
				"error", err,
			)
			failed++
			continue
		}

		// Delete record from database
		if err := cs.repo.Delete(ctx, share.AccessCode); err != nil {
			slog.Error("failed to delete share record",
				"access_code", share.AccessCode,
				"error", err,
			)
			failed++
			continue
		}

		cleaned++
		slog.Info("cleaned up expired share",
			"access_code", share.AccessCode,
			"filename", share.OriginalFilename,
			"expired_at", share.ExpiresAt,
		)
	}

	slog.Info("cleanup cycle complete",
		"cleaned", cleaned,
		"failed", failed,
		"total_expired", len(expired),
	)
}
