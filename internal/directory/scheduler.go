package directory

// scheduler.go provides the background auto-refresh loop.
//
// The dataset is a manually edited file, so the directory periodically
// re-fetches it to pick up edits without a restart. The loop is long-running
// and context-aware for graceful shutdown. Refresh failures never fail the
// application; the store absorbs them through its fallback chain.

import (
	"context"
	"log/slog"
	"time"
)

// StartAutoRefresh runs a background refresh loop until ctx is cancelled.
// It refreshes immediately on start, then every interval.
//
// privileged reports whether an admin session is currently active; cycles
// are skipped while it returns true so a refresh cannot clobber the list an
// administrator is inspecting. It is an explicit dependency rather than a
// shared flag. A nil privileged never skips.
func (s *Store) StartAutoRefresh(ctx context.Context, interval time.Duration, privileged func() bool) {
	slog.Info("auto-refresh scheduler started", "interval", interval)

	s.runRefreshCycle(ctx, privileged)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("auto-refresh scheduler stopped")
			return
		case <-ticker.C:
			s.runRefreshCycle(ctx, privileged)
		}
	}
}

// runRefreshCycle performs one guarded refresh.
func (s *Store) runRefreshCycle(ctx context.Context, privileged func() bool) {
	if privileged != nil && privileged() {
		slog.Debug("auto-refresh skipped: privileged session active")
		return
	}

	start := time.Now()
	records := s.Refresh(ctx)
	slog.Debug("auto-refresh cycle completed",
		"providers", len(records),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
