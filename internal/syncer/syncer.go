// Package syncer throttles session-document writes so the runtime can request
// persistence on every state change without flooding the store. Writes are
// coalesced to at most one per interval; forced writes bypass the limiter and
// are used for lifecycle transitions that must not be dropped.
package syncer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"focusd/internal/logging"
	"focusd/internal/store"
)

// Writer is the slice of the store the syncer needs.
type Writer interface {
	UpdateFields(ctx context.Context, id string, fields store.Fields) error
}

// Syncer rate-limits partial updates to a session document.
type Syncer struct {
	mu       sync.Mutex
	writer   Writer
	interval time.Duration
	lastSync time.Time
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Syncer writing through the given store surface. An interval
// of zero disables throttling.
func New(writer Writer, interval time.Duration, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Syncer{
		writer:   writer,
		interval: interval,
		logger:   logger.With(logging.String(logging.FieldComponent, "syncer")),
		now:      time.Now,
	}
}

// Sync writes the given fields for the session, unless a non-forced write
// lands inside the rate-limit window. It reports whether the write happened.
func (s *Syncer) Sync(ctx context.Context, sessionID string, fields store.Fields, force bool) (bool, error) {
	s.mu.Lock()
	now := s.now()
	if !force && s.interval > 0 && !s.lastSync.IsZero() && now.Sub(s.lastSync) < s.interval {
		s.mu.Unlock()
		s.logger.Debug("sync skipped by rate limit",
			logging.String(logging.FieldSessionID, sessionID))
		return false, nil
	}
	s.lastSync = now
	s.mu.Unlock()

	if err := s.writer.UpdateFields(ctx, sessionID, fields); err != nil {
		s.logger.Warn("session sync failed",
			logging.String(logging.FieldSessionID, sessionID),
			logging.Error(err))
		return false, err
	}
	return true, nil
}

// Reset clears the rate-limit window. Called when a new session starts so the
// first write of a session is never throttled by the previous one.
func (s *Syncer) Reset() {
	s.mu.Lock()
	s.lastSync = time.Time{}
	s.mu.Unlock()
}
