// Package daemon assembles the focusd runtime: single-instance locking, the
// session store, the session controller, and the service clients it needs.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"focusd/internal/config"
	"focusd/internal/logging"
	"focusd/internal/notifications"
	"focusd/internal/services"
	"focusd/internal/services/facedetect"
	"focusd/internal/services/screenllm"
	"focusd/internal/session"
	"focusd/internal/sessionlog"
	"focusd/internal/store"
)

// LockFileName is created under the data dir to enforce a single daemon.
const LockFileName = "focusd.lock"

// Daemon owns the long-lived runtime state.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	st         *store.Store
	controller *session.Controller
	notifier   notifications.Service
	lockPath   string
	lock       *flock.Flock
	startedAt  time.Time
}

// Status summarizes the daemon for IPC consumers.
type Status struct {
	Running      bool
	PID          int
	StartedAt    time.Time
	DBPath       string
	LockFilePath string
	LogPath      string
	Session      session.Snapshot
}

// New builds the daemon, acquires the instance lock, opens the store, and
// closes any session documents orphaned by a previous crash.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("daemon: config required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("daemon: ensure directories: %w", err)
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, LockFileName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("daemon: acquire lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "daemon", "start",
			"another focusd instance is already running", nil)
	}

	st, err := store.Open(cfg)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	closed, err := st.CloseStale(context.Background())
	if err != nil {
		logger.Warn("failed to close stale sessions", logging.Error(err))
	} else if closed > 0 {
		logger.Info("closed stale sessions from previous run",
			logging.Int("count", closed),
			logging.String(logging.FieldEventType, "stale_sessions_closed"),
		)
	}

	classifier := screenllm.NewClient(cfg.Classifier.APIKey,
		screenllm.WithBaseURL(cfg.Classifier.BaseURL),
		screenllm.WithModel(cfg.Classifier.Model),
		screenllm.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Classifier.TimeoutSeconds) * time.Second,
		}),
	)
	detector := facedetect.NewClient(cfg.Detector.BaseURL,
		facedetect.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Detector.TimeoutSeconds) * time.Second,
		}),
	)
	notifier := notifications.NewService(cfg)

	controller, err := session.NewController(session.Options{
		Config:     cfg,
		Store:      st,
		Notifier:   notifier,
		Classifier: classifier,
		Summarizer: classifier,
		Detector:   detector,
		Logger:     logger,
	})
	if err != nil {
		_ = st.Close()
		_ = lock.Unlock()
		return nil, err
	}

	d := &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		st:         st,
		controller: controller,
		notifier:   notifier,
		lockPath:   lockPath,
		lock:       lock,
		startedAt:  time.Now(),
	}
	d.logger.Info("focusd daemon ready",
		logging.String("lock", lockPath),
		logging.String("db", st.Path()),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	return d, nil
}

// Close ends any active session, then releases the store and instance lock.
func (d *Daemon) Close(ctx context.Context) error {
	if err := d.controller.Close(ctx); err != nil {
		d.logger.Error("failed to end session during shutdown",
			logging.Error(err),
			logging.String(logging.FieldEventType, "shutdown_end_failed"),
		)
	}
	if err := d.st.Close(); err != nil {
		d.logger.Warn("failed to close session store", logging.Error(err))
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.logger.Info("focusd daemon stopped",
		logging.String(logging.FieldEventType, "daemon_stopped"))
	return nil
}

// Status reports daemon and session state.
func (d *Daemon) Status() Status {
	return Status{
		Running:      true,
		PID:          os.Getpid(),
		StartedAt:    d.startedAt,
		DBPath:       d.st.Path(),
		LockFilePath: d.lockPath,
		LogPath:      d.LogPath(),
		Session:      d.controller.Status(),
	}
}

// StartSession begins a focus session. A session document still open in the
// store blocks a second start even when this process does not own it, e.g.
// one written by a crashed run that has not been cleaned up yet.
func (d *Daemon) StartSession(ctx context.Context, opts session.StartOptions) (string, error) {
	if !d.controller.Active() {
		open, err := d.st.CountOpen(ctx, d.cfg.Session.UserID)
		if err != nil {
			return "", err
		}
		if open > 0 {
			return "", services.Wrap(services.ErrValidation, "daemon", "start session",
				fmt.Sprintf("%d open session(s) already stored for this user; inspect them with `focusctl history list`", open), nil)
		}
	}
	return d.controller.Start(ctx, opts)
}

// EndSession finishes the active focus session.
func (d *Daemon) EndSession(ctx context.Context) (string, error) {
	return d.controller.End(ctx)
}

// SessionStatus returns the live session snapshot.
func (d *Daemon) SessionStatus() session.Snapshot {
	return d.controller.Status()
}

// SessionLog returns the active session's activity log.
func (d *Daemon) SessionLog() []sessionlog.Entry {
	return d.controller.LogEntries()
}

// ListSessions returns stored sessions for the configured user, newest
// first.
func (d *Daemon) ListSessions(ctx context.Context, limit int) ([]*store.Session, error) {
	return d.st.ListByUser(ctx, d.cfg.Session.UserID, limit)
}

// GetSession returns one stored session.
func (d *Daemon) GetSession(ctx context.Context, id string) (*store.Session, error) {
	sess, err := d.st.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, services.Wrap(services.ErrNotFound, "daemon", "get session",
			fmt.Sprintf("session %s not found", id), nil)
	}
	return sess, nil
}

// DeleteSession removes a stored session. The active session cannot be
// deleted; end it first.
func (d *Daemon) DeleteSession(ctx context.Context, id string) error {
	if snapshot := d.controller.Status(); snapshot.SessionID == id && d.controller.Active() {
		return services.Wrap(services.ErrValidation, "daemon", "delete session",
			"cannot delete the active session; end it first", nil)
	}
	return d.st.Delete(ctx, id)
}

// TestNotification sends a test push notification.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, err.Error(), err
	}
	return true, "test notification sent", nil
}

// LogPath returns the daemon log file location.
func (d *Daemon) LogPath() string {
	return filepath.Join(d.cfg.Paths.LogDir, logging.LogFileName)
}
