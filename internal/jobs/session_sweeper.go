// session_sweeper.go implements the SessionSweeper background job, which
// periodically bulk-deletes expired tenant sessions. Expired sessions are
// already rejected at validation time; the sweeper only reclaims storage, so
// its interval is a cost knob rather than a security one.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/capturelog/capturelog/internal/services"
)

// SessionSweeper periodically removes expired sessions from storage.
type SessionSweeper struct {
	sessions *services.SessionService
	interval time.Duration
	stopChan chan struct{}
}

// NewSessionSweeper creates a new SessionSweeper. interval controls how often
// the sweep runs (default 1h).
func NewSessionSweeper(sessions *services.SessionService, interval time.Duration) *SessionSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SessionSweeper{
		sessions: sessions,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the background sweep loop. It runs an initial sweep
// immediately, then repeats on the configured interval. The loop exits when
// ctx is cancelled or Stop() is called.
func (s *SessionSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("session sweeper started", "interval", s.interval)

	// Run once immediately on startup
	s.runSweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.runSweep(ctx)
		case <-s.stopChan:
			slog.Info("session sweeper stopped")
			return
		case <-ctx.Done():
			slog.Info("session sweeper context cancelled")
			return
		}
	}
}

// Stop signals the background loop to exit.
func (s *SessionSweeper) Stop() {
	close(s.stopChan)
}

// runSweep deletes all sessions past their expiry.
func (s *SessionSweeper) runSweep(ctx context.Context) {
	deleted, err := s.sessions.CleanupExpiredSessions(ctx)
	if err != nil {
		slog.Error("session sweep failed", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("session sweep completed", "deleted", deleted)
	}
}
