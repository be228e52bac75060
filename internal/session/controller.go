// Package session owns the focus-session state machine.
//
// The controller is the single writer for all session state. The run clock,
// presence monitor, and screen auditor deliver observations from their own
// goroutines; every observation serializes through the controller's mutex
// and reads the state as it is at that moment, so a stale observation from a
// slow collaborator can never act on a session that has since paused or
// ended.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"focusd/internal/audit"
	"focusd/internal/capture"
	"focusd/internal/config"
	"focusd/internal/logging"
	"focusd/internal/notifications"
	"focusd/internal/presence"
	"focusd/internal/services"
	"focusd/internal/sessionlog"
	"focusd/internal/store"
	"focusd/internal/syncer"
)

// State is the controller's lifecycle position.
type State string

const (
	StateIdle         State = "idle"
	StateInitializing State = "initializing"
	StateRunning      State = "running"
	StatePaused       State = "paused"
	StateStopped      State = "stopped"
)

// FocusState is the advisory attention readout shown in status output.
type FocusState string

const (
	FocusFocused     FocusState = "focus"
	FocusAway        FocusState = "away"
	FocusDistraction FocusState = "distraction"
)

const eventWriteTimeout = 10 * time.Second

// Store is the persistence surface the controller needs.
type Store interface {
	Create(ctx context.Context, input store.NewSessionInput) (*store.Session, error)
	UpdateFields(ctx context.Context, id string, fields store.Fields) error
	Delete(ctx context.Context, id string) error
}

// Detector extends the presence detector with the readiness probe used to
// gate webcam session starts.
type Detector interface {
	presence.Detector
	Ping(ctx context.Context) error
}

// Summarizer produces the end-of-session summary.
type Summarizer interface {
	Summarize(ctx context.Context, entries []sessionlog.Entry) (string, error)
}

type lifecycle interface {
	Start(ctx context.Context)
	Stop()
}

// Options wires a Controller. WebcamSource and ScreenSource default to the
// ffmpeg-backed sources; tests inject fakes.
type Options struct {
	Config     *config.Config
	Store      Store
	Notifier   notifications.Service
	Classifier audit.Classifier
	Summarizer Summarizer
	Detector   Detector
	Logger     *slog.Logger

	WebcamSource capture.Source
	ScreenSource capture.Source
}

// StartOptions selects what a new session monitors.
type StartOptions struct {
	Webcam bool
	Screen bool
	Goal   *store.Goal
}

// Snapshot is a point-in-time copy of the controller state.
type Snapshot struct {
	State         State
	FocusState    FocusState
	SessionID     string
	StartedAt     time.Time
	Elapsed       int64
	Goal          *store.Goal
	WebcamEnabled bool
	ScreenEnabled bool
	LogLen        int
}

// Controller drives focus sessions end to end.
type Controller struct {
	cfg        *config.Config
	st         Store
	sync       *syncer.Syncer
	notifier   notifications.Service
	classifier audit.Classifier
	summarizer Summarizer
	detector   Detector
	logger     *slog.Logger

	webcamSource  capture.Source
	screenSource  capture.Source
	now           func() time.Time
	clockInterval time.Duration

	mu            sync.Mutex
	state         State
	ending        bool // End teardown in progress; Start is rejected until the final write is issued
	focusState    FocusState
	sessionID     string
	startedAt     time.Time
	elapsed       int64
	log           *sessionlog.Log
	goal          *store.Goal
	webcamEnabled bool
	screenEnabled bool
	awayStartedAt time.Time
	runCancel     context.CancelFunc
	wg            sync.WaitGroup
	monitor       lifecycle
	auditor       lifecycle
}

// NewController builds a controller in the idle state.
func NewController(opts Options) (*Controller, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("session controller: config required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("session controller: store required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(opts.Config)
	}

	syncInterval := time.Duration(opts.Config.Session.SyncIntervalSeconds) * time.Second
	return &Controller{
		cfg:           opts.Config,
		st:            opts.Store,
		sync:          syncer.New(opts.Store, syncInterval, logger),
		notifier:      notifier,
		classifier:    opts.Classifier,
		summarizer:    opts.Summarizer,
		detector:      opts.Detector,
		logger:        logging.NewComponentLogger(logger, "session-controller"),
		webcamSource:  opts.WebcamSource,
		screenSource:  opts.ScreenSource,
		now:           time.Now,
		clockInterval: time.Second,
		state:         StateIdle,
		focusState:    FocusFocused,
		log:           sessionlog.NewLog(),
	}, nil
}

// Start begins a new session. It validates configuration, probes the
// requested capture paths, creates the session document, and launches the
// run clock and monitors. Any failure rolls everything back and returns the
// controller to idle.
func (c *Controller) Start(ctx context.Context, opts StartOptions) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateIdle, StateStopped:
	default:
		return "", services.Wrap(services.ErrValidation, "session", "start",
			fmt.Sprintf("a session is already %s", c.state), nil)
	}
	if c.ending {
		return "", services.Wrap(services.ErrValidation, "session", "start",
			"previous session is still shutting down", nil)
	}
	if c.cfg.Session.MonitoringDisabled {
		return "", services.Wrap(services.ErrConfiguration, "session", "start",
			"monitoring is disabled in configuration", nil)
	}
	userID := strings.TrimSpace(c.cfg.Session.UserID)
	if userID == "" {
		return "", services.Wrap(services.ErrConfiguration, "session", "start",
			"no user configured; set [session] user_id", nil)
	}

	c.state = StateInitializing
	c.logger.Info("session initializing",
		logging.String(logging.FieldEventType, "session_initializing"),
		logging.Bool("webcam", opts.Webcam),
		logging.Bool("screen", opts.Screen),
	)

	var docID string
	fail := func(err error) (string, error) {
		if docID != "" {
			deleteCtx, cancel := context.WithTimeout(context.Background(), eventWriteTimeout)
			if deleteErr := c.st.Delete(deleteCtx, docID); deleteErr != nil {
				c.logger.Warn("failed to delete partial session record",
					logging.Error(deleteErr),
					logging.String(logging.FieldSessionID, docID),
				)
			}
			cancel()
		}
		c.state = StateIdle
		c.logger.Warn("session start failed, rolled back",
			logging.Error(err),
			logging.String(logging.FieldEventType, "session_start_failed"),
		)
		c.notifyAsync(func(ctx context.Context) error {
			return c.notifier.NotifyError(ctx, err, "session start")
		})
		return "", err
	}

	var goal *store.Goal
	if opts.Goal != nil && strings.TrimSpace(opts.Goal.Description) != "" {
		goalCopy := *opts.Goal
		goalCopy.Completed = false
		goal = &goalCopy
	}

	doc, err := c.st.Create(ctx, store.NewSessionInput{
		UserID:        userID,
		Goal:          goal,
		WebcamEnabled: opts.Webcam,
		ScreenEnabled: opts.Screen,
	})
	if err != nil {
		return fail(services.Wrap(services.ErrUnavailable, "session", "start",
			"failed to create session record", err))
	}
	docID = doc.ID

	var (
		webcamSource capture.Source
		screenSource capture.Source
	)
	if opts.Webcam {
		webcamSource = c.webcamSource
		if webcamSource == nil {
			webcamSource = capture.NewWebcamSource(c.cfg)
		}
		if err := c.probeSource(ctx, webcamSource); err != nil {
			return fail(err)
		}
		if c.detector == nil {
			return fail(services.Wrap(services.ErrConfiguration, "session", "start",
				"webcam monitoring requested but no face detector configured", nil))
		}
		if err := c.detector.Ping(ctx); err != nil {
			return fail(err)
		}
	}
	if opts.Screen {
		screenSource = c.screenSource
		if screenSource == nil {
			screenSource = capture.NewScreenSource(c.cfg)
		}
		if err := c.probeSource(ctx, screenSource); err != nil {
			return fail(err)
		}
		if c.classifier == nil {
			return fail(services.Wrap(services.ErrConfiguration, "session", "start",
				"screen monitoring requested but no classifier configured", nil))
		}
	}

	c.sessionID = doc.ID
	c.startedAt = doc.StartTime
	c.elapsed = 0
	c.log = sessionlog.NewLog()
	c.goal = goal
	c.webcamEnabled = opts.Webcam
	c.screenEnabled = opts.Screen
	c.awayStartedAt = time.Time{}
	c.focusState = FocusFocused
	c.state = StateRunning
	c.sync.Reset()

	runCtx, cancel := context.WithCancel(context.Background())
	c.runCancel = cancel

	c.wg.Add(1)
	go c.clockLoop(runCtx)

	if opts.Webcam {
		c.monitor = presence.NewMonitor(presence.Options{
			Source:         webcamSource,
			Detector:       c.detector,
			Events:         c,
			Logger:         c.logger,
			SampleInterval: time.Duration(c.cfg.Session.SampleIntervalMillis) * time.Millisecond,
			AwayThreshold:  time.Duration(c.cfg.Session.AwayThresholdSeconds) * time.Second,
		})
		c.monitor.Start(runCtx)
	}
	if opts.Screen {
		c.auditor = audit.NewAuditor(audit.Options{
			Source:     screenSource,
			Classifier: c.classifier,
			Events:     c,
			Logger:     c.logger,
			Categories: c.configuredCategories(),
			Interval:   time.Duration(c.cfg.Session.AuditIntervalSeconds) * time.Second,
		})
		c.auditor.Start(runCtx)
	}

	goalText := ""
	if goal != nil {
		goalText = goal.Description
	}
	c.notifyAsync(func(ctx context.Context) error {
		return c.notifier.NotifySessionStarted(ctx, goalText)
	})

	c.logger.Info("session started",
		logging.String(logging.FieldSessionID, doc.ID),
		logging.String(logging.FieldUserID, userID),
		logging.String(logging.FieldEventType, "session_started"),
	)
	return doc.ID, nil
}

// End finishes the active session: stops the loops, closes any open absence
// span, summarizes, and forces a final write of the completed document. A
// Start arriving while teardown is still in flight is rejected, so the
// stopped state only becomes restartable after the final write has been
// issued.
func (c *Controller) End(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.state != StateRunning && c.state != StatePaused {
		c.mu.Unlock()
		return "", services.Wrap(services.ErrValidation, "session", "end", "no active session", nil)
	}

	id := c.sessionID
	c.state = StateStopped
	c.ending = true
	cancel := c.runCancel
	c.runCancel = nil
	monitor, auditor := c.monitor, c.auditor
	c.monitor, c.auditor = nil, nil

	if !c.awayStartedAt.IsZero() {
		c.log.Append(sessionlog.NewEntry(sessionlog.CategoryAway, "", c.now().Sub(c.awayStartedAt)))
		c.awayStartedAt = time.Time{}
	}

	elapsed := c.elapsed
	sessionLog := c.log
	screenEnabled := c.screenEnabled
	c.goal = nil
	c.focusState = FocusFocused
	c.mu.Unlock()

	// Loops must be stopped outside the lock: their event callbacks take it.
	if cancel != nil {
		cancel()
	}
	if monitor != nil {
		monitor.Stop()
	}
	if auditor != nil {
		auditor.Stop()
	}
	c.wg.Wait()

	entries := sessionLog.Snapshot()
	summary := c.summarize(ctx, entries, screenEnabled)

	endTime := c.now().UTC()
	status := store.StatusCompleted
	fields := store.Fields{
		TotalFocusTime: &elapsed,
		Status:         &status,
		EndTime:        &endTime,
		Summary:        &summary,
		Logs:           entries,
		LogsSet:        true,
	}
	if _, err := c.sync.Sync(ctx, id, fields, true); err != nil {
		c.logger.Error("final session sync failed",
			logging.Error(err),
			logging.String(logging.FieldSessionID, id),
			logging.String(logging.FieldEventType, "session_final_sync_failed"),
			logging.String(logging.FieldErrorHint, "check the session database"),
			logging.String(logging.FieldImpact, "stored session may remain marked active"),
		)
	}

	c.notifyAsync(func(ctx context.Context) error {
		return c.notifier.NotifySessionCompleted(ctx, time.Duration(elapsed)*time.Second, summary)
	})

	c.logger.Info("session ended",
		logging.String(logging.FieldSessionID, id),
		logging.Int64("total_focus_seconds", elapsed),
		logging.Int("log_entries", len(entries)),
		logging.String(logging.FieldEventType, "session_ended"),
	)

	c.mu.Lock()
	c.ending = false
	c.mu.Unlock()
	return id, nil
}

// Close ends any active session. Called on daemon shutdown so a teardown
// mid-session still lands a completed document.
func (c *Controller) Close(ctx context.Context) error {
	if !c.Active() {
		return nil
	}
	_, err := c.End(ctx)
	if err != nil && services.IsStartFatal(err) {
		return err
	}
	return nil
}

// Active reports whether a session is currently running or paused.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateRunning || c.state == StatePaused
}

// Status returns a copy of the current controller state.
func (c *Controller) Status() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := Snapshot{
		State:         c.state,
		FocusState:    c.focusState,
		SessionID:     c.sessionID,
		StartedAt:     c.startedAt,
		Elapsed:       c.elapsed,
		WebcamEnabled: c.webcamEnabled,
		ScreenEnabled: c.screenEnabled,
		LogLen:        c.log.Len(),
	}
	if c.goal != nil {
		goalCopy := *c.goal
		snapshot.Goal = &goalCopy
	}
	return snapshot
}

// LogEntries returns an ordered copy of the active session's activity log.
func (c *Controller) LogEntries() []sessionlog.Entry {
	c.mu.Lock()
	sessionLog := c.log
	c.mu.Unlock()
	return sessionLog.Snapshot()
}

// PresenceLost implements presence.Events. Pauses the run clock.
func (c *Controller) PresenceLost(awayStartedAt time.Time) {
	c.mu.Lock()
	if c.state != StateRunning {
		c.mu.Unlock()
		return
	}
	c.state = StatePaused
	c.focusState = FocusAway
	c.awayStartedAt = awayStartedAt
	id := c.sessionID
	c.mu.Unlock()

	c.logger.Info("session paused, user away",
		logging.String(logging.FieldSessionID, id),
		logging.String(logging.FieldEventType, "session_paused"),
	)

	status := store.StatusPaused
	c.syncEvent(id, store.Fields{Status: &status}, true)
}

// PresenceRegained implements presence.Events. Records the absence and
// resumes the run clock.
func (c *Controller) PresenceRegained(awayFor time.Duration) {
	c.mu.Lock()
	if c.state != StatePaused {
		c.mu.Unlock()
		return
	}
	c.log.Append(sessionlog.NewEntry(sessionlog.CategoryAway, "", awayFor))
	c.state = StateRunning
	c.focusState = FocusFocused
	c.awayStartedAt = time.Time{}
	id := c.sessionID
	elapsed := c.elapsed
	entries := c.log.Snapshot()
	c.mu.Unlock()

	c.logger.Info("session resumed",
		logging.String(logging.FieldSessionID, id),
		logging.Duration("away_for", awayFor),
		logging.String(logging.FieldEventType, "session_resumed"),
	)

	status := store.StatusActive
	c.syncEvent(id, store.Fields{
		Status:         &status,
		TotalFocusTime: &elapsed,
		Logs:           entries,
		LogsSet:        true,
	}, true)
}

// ScreenClassified implements audit.Events. Appends one activity entry and
// updates the advisory focus state; a distraction never pauses the clock.
func (c *Controller) ScreenClassified(category sessionlog.Category, reasoning string, durationSeconds int64) {
	c.mu.Lock()
	if c.state != StateRunning && c.state != StatePaused {
		c.mu.Unlock()
		return
	}
	c.log.Append(sessionlog.NewEntry(category, reasoning, time.Duration(durationSeconds)*time.Second))
	if c.state == StateRunning {
		if category == sessionlog.CategoryDistraction {
			c.focusState = FocusDistraction
		} else {
			c.focusState = FocusFocused
		}
	}
	id := c.sessionID
	elapsed := c.elapsed
	entries := c.log.Snapshot()
	c.mu.Unlock()

	c.syncEvent(id, store.Fields{
		TotalFocusTime: &elapsed,
		Logs:           entries,
		LogsSet:        true,
	}, false)
}

// AuditFailed implements audit.Events.
func (c *Controller) AuditFailed(err error) {
	c.logger.Warn("screen audit failed",
		logging.Error(err),
		logging.String(logging.FieldEventType, "audit_failed"),
		logging.String(logging.FieldErrorHint, "check classifier connectivity and api key"),
		logging.String(logging.FieldImpact, "activity log unchanged for this interval"),
	)
	c.notifyAsync(func(ctx context.Context) error {
		return c.notifier.NotifyAuditFailed(ctx, err.Error())
	})
}

func (c *Controller) clockLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.clockInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

// tick advances the run clock by one second. Elapsed time accrues only in
// the running state; this is the sole writer of totalFocusTime.
func (c *Controller) tick() {
	c.mu.Lock()
	if c.state != StateRunning {
		c.mu.Unlock()
		return
	}
	c.elapsed++

	goalJustCompleted := false
	var completedGoal store.Goal
	if c.goal != nil && !c.goal.Completed && c.goal.TargetDuration > 0 && c.elapsed >= c.goal.TargetDuration {
		c.goal.Completed = true
		completedGoal = *c.goal
		goalJustCompleted = true
	}

	id := c.sessionID
	elapsed := c.elapsed
	entries := c.log.Snapshot()
	c.mu.Unlock()

	if goalJustCompleted {
		ctx, cancel := context.WithTimeout(context.Background(), eventWriteTimeout)
		if err := c.st.UpdateFields(ctx, id, store.Fields{Goal: &completedGoal, GoalSet: true}); err != nil {
			c.logger.Warn("failed to persist goal completion",
				logging.Error(err),
				logging.String(logging.FieldSessionID, id),
			)
		}
		cancel()
		c.logger.Info("session goal reached",
			logging.String(logging.FieldSessionID, id),
			logging.String("goal", completedGoal.Description),
			logging.String(logging.FieldEventType, "goal_completed"),
		)
		c.notifyAsync(func(ctx context.Context) error {
			return c.notifier.NotifyGoalCompleted(ctx, completedGoal.Description)
		})
	}

	c.syncEvent(id, store.Fields{
		TotalFocusTime: &elapsed,
		Logs:           entries,
		LogsSet:        true,
	}, false)
}

// probeSource verifies a capture path works before the session commits to
// it. Transient grab failures do not block the start.
func (c *Controller) probeSource(ctx context.Context, source capture.Source) error {
	_, err := source.Grab(ctx)
	if err != nil && services.IsStartFatal(err) {
		return err
	}
	return nil
}

func (c *Controller) summarize(ctx context.Context, entries []sessionlog.Entry, screenEnabled bool) string {
	if !screenEnabled || c.summarizer == nil {
		return "Screen monitoring was off for this session, so no activity summary is available."
	}
	if len(entries) == 0 {
		return "No activity was recorded during this session."
	}
	summary, err := c.summarizer.Summarize(ctx, entries)
	if err != nil {
		c.logger.Warn("session summary failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "summary_failed"),
			logging.String(logging.FieldImpact, "session stored without a summary"),
		)
		return "Summary unavailable."
	}
	return summary
}

// syncEvent writes fields from an event goroutine with its own deadline;
// errors are already logged by the syncer.
func (c *Controller) syncEvent(id string, fields store.Fields, force bool) {
	ctx, cancel := context.WithTimeout(context.Background(), eventWriteTimeout)
	defer cancel()
	_, _ = c.sync.Sync(ctx, id, fields, force)
}

// notifyAsync delivers a notification without blocking session-state work.
func (c *Controller) notifyAsync(send func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventWriteTimeout)
		defer cancel()
		if err := send(ctx); err != nil {
			c.logger.Debug("notification delivery failed", logging.Error(err))
		}
	}()
}

func (c *Controller) configuredCategories() []sessionlog.Category {
	configured := c.cfg.Session.Categories
	if len(configured) == 0 {
		return sessionlog.DefaultCategories
	}
	categories := make([]sessionlog.Category, 0, len(configured)+1)
	seenDistraction := false
	for _, name := range configured {
		category := sessionlog.ParseCategory(name)
		if category == "" || category == sessionlog.CategoryAway {
			continue
		}
		if category == sessionlog.CategoryDistraction {
			seenDistraction = true
		}
		categories = append(categories, category)
	}
	// Distraction stays in the prompt even with custom labels: the focus
	// state depends on it.
	if !seenDistraction {
		categories = append(categories, sessionlog.CategoryDistraction)
	}
	if len(categories) == 0 {
		return sessionlog.DefaultCategories
	}
	return categories
}
