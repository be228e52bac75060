// Package audit periodically classifies the user's screen into activity
// categories during a session.
//
// The auditor owns only the capture-and-classify cadence. Classification
// results and failures are handed to the session controller through the
// Events interface; the controller decides what lands in the activity log.
package audit

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"focusd/internal/capture"
	"focusd/internal/logging"
	"focusd/internal/services/screenllm"
	"focusd/internal/sessionlog"
)

// Classifier is the slice of the screen-classification client the auditor
// needs.
type Classifier interface {
	ClassifyScreen(ctx context.Context, image []byte, categories []sessionlog.Category) (screenllm.Classification, error)
}

// Events receives audit outcomes. Implementations must be safe to call from
// the auditor goroutine.
type Events interface {
	// ScreenClassified delivers one successful classification. durationSeconds
	// is the audit interval the observation covers.
	ScreenClassified(category sessionlog.Category, reasoning string, durationSeconds int64)
	// AuditFailed reports a capture or classification failure. The interval
	// produces no log entry; the cadence continues.
	AuditFailed(err error)
}

// Auditor runs the periodic screen classification loop.
type Auditor struct {
	source     capture.Source
	classifier Classifier
	events     Events
	logger     *slog.Logger
	categories []sessionlog.Category
	interval   time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Options configures an Auditor.
type Options struct {
	Source     capture.Source
	Classifier Classifier
	Events     Events
	Logger     *slog.Logger
	Categories []sessionlog.Category
	Interval   time.Duration
}

// NewAuditor builds a screen auditor. Interval defaults to 120s when unset.
func NewAuditor(opts Options) *Auditor {
	if opts.Source == nil || opts.Classifier == nil || opts.Events == nil {
		return nil
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = 120 * time.Second
	}
	categories := opts.Categories
	if len(categories) == 0 {
		categories = sessionlog.DefaultCategories
	}
	return &Auditor{
		source:     opts.Source,
		classifier: opts.Classifier,
		events:     opts.Events,
		logger:     logging.NewComponentLogger(logger, "screen-auditor"),
		categories: categories,
		interval:   interval,
	}
}

// Start launches the audit loop. The first audit runs immediately so a
// session never waits a full interval for its first activity entry.
func (a *Auditor) Start(ctx context.Context) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.running = true

	a.wg.Add(1)
	go a.loop(loopCtx)

	a.logger.Info("screen auditor started",
		logging.String(logging.FieldEventType, "screen_auditor_started"),
		logging.Duration("interval", a.interval),
	)
}

// Stop halts the audit loop and waits for any in-flight audit to finish.
func (a *Auditor) Stop() {
	if a == nil {
		return
	}
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	a.wg.Wait()

	a.logger.Info("screen auditor stopped",
		logging.String(logging.FieldEventType, "screen_auditor_stopped"))
}

// Running reports whether the audit loop is active.
func (a *Auditor) Running() bool {
	if a == nil {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

func (a *Auditor) loop(ctx context.Context) {
	defer a.wg.Done()

	a.runAudit(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.runAudit(ctx)
			// A tick that fired while the audit was in flight is stale;
			// drop it instead of auditing back to back.
			select {
			case <-ticker.C:
			default:
			}
		}
	}
}

// runAudit performs one capture-and-classify pass.
func (a *Auditor) runAudit(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	frame, err := a.source.Grab(ctx)
	if err != nil {
		if ctx.Err() == nil {
			a.events.AuditFailed(err)
		}
		return
	}

	result, err := a.classifier.ClassifyScreen(ctx, frame.Data, a.categories)
	if err != nil {
		if ctx.Err() == nil {
			a.events.AuditFailed(err)
		}
		return
	}

	category := a.canonicalCategory(result.Category)
	a.logger.Debug("screen classified",
		logging.String(logging.FieldCategory, string(category)),
		logging.String("reasoning", result.Reasoning),
	)
	a.events.ScreenClassified(category, result.Reasoning, int64(a.interval/time.Second))
}

// canonicalCategory maps the model's answer onto a configured category,
// tolerating case drift. Unrecognized answers pass through as-is: the log
// is an open category space.
func (a *Auditor) canonicalCategory(raw string) sessionlog.Category {
	raw = strings.TrimSpace(raw)
	for _, category := range a.categories {
		if strings.EqualFold(string(category), raw) {
			return category
		}
	}
	return sessionlog.ParseCategory(raw)
}
