// Package presence watches the webcam for the user's face and tells the
// session runtime when they leave and return.
//
// The monitor samples frames on a fast loop and debounces short absences:
// looking down at a notebook for a second does not pause the session. Only
// the session controller mutates session state; the monitor reports
// transitions through the Events interface.
package presence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"focusd/internal/capture"
	"focusd/internal/logging"
	"focusd/internal/services/facedetect"
)

// Detector is the slice of the face-detection client the monitor needs.
type Detector interface {
	DetectFaces(ctx context.Context, frame []byte, timestampMillis int64) (facedetect.Detection, error)
}

// Events receives presence transitions. Implementations must be safe to
// call from the monitor goroutine.
type Events interface {
	// PresenceLost fires once per absence, after the away threshold has
	// elapsed. awayStartedAt is when the face first disappeared.
	PresenceLost(awayStartedAt time.Time)
	// PresenceRegained fires when the face returns after PresenceLost.
	// awayFor is the full measured absence, threshold included.
	PresenceRegained(awayFor time.Duration)
}

// Monitor runs the webcam sampling loop.
type Monitor struct {
	source         capture.Source
	detector       Detector
	events         Events
	logger         *slog.Logger
	sampleInterval time.Duration
	awayThreshold  time.Duration
	now            func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// sampling state, touched only by the loop goroutine
	lastFrameAt int64
	absentSince time.Time
	lostEmitted bool
}

// Options configures a Monitor.
type Options struct {
	Source         capture.Source
	Detector       Detector
	Events         Events
	Logger         *slog.Logger
	SampleInterval time.Duration
	AwayThreshold  time.Duration
}

// NewMonitor builds a presence monitor. SampleInterval defaults to 33ms and
// AwayThreshold to 3s when unset.
func NewMonitor(opts Options) *Monitor {
	if opts.Source == nil || opts.Detector == nil || opts.Events == nil {
		return nil
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	sampleInterval := opts.SampleInterval
	if sampleInterval <= 0 {
		sampleInterval = 33 * time.Millisecond
	}
	awayThreshold := opts.AwayThreshold
	if awayThreshold <= 0 {
		awayThreshold = 3 * time.Second
	}
	return &Monitor{
		source:         opts.Source,
		detector:       opts.Detector,
		events:         opts.Events,
		logger:         logging.NewComponentLogger(logger, "presence-monitor"),
		sampleInterval: sampleInterval,
		awayThreshold:  awayThreshold,
		now:            time.Now,
	}
}

// Start launches the sampling loop.
func (m *Monitor) Start(ctx context.Context) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.lastFrameAt = 0
	m.absentSince = time.Time{}
	m.lostEmitted = false

	m.wg.Add(1)
	go m.loop(loopCtx)

	m.logger.Info("presence monitor started",
		logging.String(logging.FieldEventType, "presence_monitor_started"),
		logging.Duration("sample_interval", m.sampleInterval),
		logging.Duration("away_threshold", m.awayThreshold),
	)
}

// Stop halts the sampling loop and waits for it to exit.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()

	m.logger.Info("presence monitor stopped",
		logging.String(logging.FieldEventType, "presence_monitor_stopped"))
}

// Running reports whether the sampling loop is active.
func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) loop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sample(ctx)
		}
	}
}

// sample grabs one frame, runs detection, and applies the debounce state
// machine. Any per-sample failure drops the observation.
func (m *Monitor) sample(ctx context.Context) {
	frame, err := m.source.Grab(ctx)
	if err != nil {
		if ctx.Err() == nil {
			m.logger.Debug("frame grab failed, dropping sample", logging.Error(err))
		}
		return
	}
	// The source can serve the same frame twice on a fast loop; a repeated
	// capture timestamp carries no new information.
	if frame.CapturedAt == m.lastFrameAt {
		return
	}
	m.lastFrameAt = frame.CapturedAt

	detection, err := m.detector.DetectFaces(ctx, frame.Data, frame.CapturedAt)
	if err != nil {
		if ctx.Err() == nil {
			m.logger.Debug("face detection failed, dropping sample", logging.Error(err))
		}
		return
	}

	m.observe(detection.Present())
}

func (m *Monitor) observe(present bool) {
	now := m.now()

	if present {
		if m.lostEmitted {
			awayFor := now.Sub(m.absentSince)
			m.logger.Info("presence regained",
				logging.String(logging.FieldEventType, "presence_regained"),
				logging.Duration("away_for", awayFor),
			)
			m.events.PresenceRegained(awayFor)
		}
		m.absentSince = time.Time{}
		m.lostEmitted = false
		return
	}

	if m.absentSince.IsZero() {
		m.absentSince = now
		return
	}
	if !m.lostEmitted && now.Sub(m.absentSince) >= m.awayThreshold {
		m.lostEmitted = true
		m.logger.Info("presence lost",
			logging.String(logging.FieldEventType, "presence_lost"),
			logging.Duration("away_threshold", m.awayThreshold),
		)
		m.events.PresenceLost(m.absentSince)
	}
}
