package background

import (
	"context"
	"log/slog"
	"time"
)

// AttemptPurger removes login attempts created before the cutoff.
type AttemptPurger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupManager periodically purges stale login attempts. An attempt left
// behind by an abandoned login stays valid until the cleanup reaps it, so
// the TTL bounds how long an unconsumed code can live.
type CleanupManager struct {
	attempts AttemptPurger
	logger   *slog.Logger
	ttl      time.Duration
	interval time.Duration
	stopCh   chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	attempts AttemptPurger,
	logger *slog.Logger,
	ttl time.Duration,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		attempts: attempts,
		logger:   logger,
		ttl:      ttl,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic cleanup task; it blocks until Stop is called or
// the context is cancelled.
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cutoff := time.Now().UTC().Add(-cm.ttl)
	deleted, err := cm.attempts.DeleteOlderThan(cleanupCtx, cutoff)
	if err != nil {
		cm.logger.Error("failed to purge stale login attempts", slog.Any("error", err))
		return
	}

	if deleted > 0 {
		cm.logger.Info("purged stale login attempts", slog.Int64("deleted", deleted))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
