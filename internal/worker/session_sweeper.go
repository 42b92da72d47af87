// Package worker hosts the background loops of the service. Workers are
// ticker-driven, stop on context cancellation and are started through the
// cmd layer's startWorker helper.
package worker

import (
	"context"
	"log/slog"
	"time"
)

// SessionTable defines the sweep operation required of the chat session
// manager. The abstraction allows testing with a fake table.
type SessionTable interface {
	SweepExpired(now time.Time) int
}

// SessionSweeper periodically expires idle chat sessions.
type SessionSweeper struct {
	sessions SessionTable
	interval time.Duration
}

// NewSessionSweeper creates a sweeper over the given session table.
func NewSessionSweeper(sessions SessionTable, interval time.Duration) *SessionSweeper {
	return &SessionSweeper{sessions: sessions, interval: interval}
}

// Run starts the sweep loop. It blocks until ctx is cancelled. The first
// sweep happens after one full interval; there is nothing to expire at
// startup.
func (s *SessionSweeper) Run(ctx context.Context) {
	slog.Info("session sweeper started",
		"component", "worker",
		"worker", "session-sweeper",
		"interval", s.interval.String(),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped",
				"component", "worker",
				"worker", "session-sweeper",
			)
			return
		case now := <-ticker.C:
			if removed := s.sessions.SweepExpired(now); removed > 0 {
				slog.Info("idle sessions swept",
					"component", "worker",
					"worker", "session-sweeper",
					"removed", removed,
				)
			}
		}
	}
}
