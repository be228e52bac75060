package presence

import (
	"context"
	"errors"
	"testing"
	"time"

	"focusd/internal/capture"
	"focusd/internal/services/facedetect"
)

type scriptedSource struct {
	frames []capture.Frame
	errs   []error
	index  int
}

func (s *scriptedSource) Grab(context.Context) (capture.Frame, error) {
	if s.index >= len(s.frames) {
		return capture.Frame{}, errors.New("script exhausted")
	}
	frame, err := s.frames[s.index], error(nil)
	if s.index < len(s.errs) {
		err = s.errs[s.index]
	}
	s.index++
	return frame, err
}

func (s *scriptedSource) Name() string { return "webcam" }

type scriptedDetector struct {
	present []bool
	err     error
	calls   int
}

func (d *scriptedDetector) DetectFaces(_ context.Context, _ []byte, _ int64) (facedetect.Detection, error) {
	if d.err != nil {
		return facedetect.Detection{}, d.err
	}
	present := false
	if d.calls < len(d.present) {
		present = d.present[d.calls]
	}
	d.calls++
	if present {
		return facedetect.Detection{FaceCount: 1}, nil
	}
	return facedetect.Detection{}, nil
}

type recordedEvents struct {
	lost     []time.Time
	regained []time.Duration
}

func (e *recordedEvents) PresenceLost(awayStartedAt time.Time) {
	e.lost = append(e.lost, awayStartedAt)
}

func (e *recordedEvents) PresenceRegained(awayFor time.Duration) {
	e.regained = append(e.regained, awayFor)
}

func newTestMonitor(events Events) (*Monitor, *time.Time) {
	m := NewMonitor(Options{
		Source:        &scriptedSource{},
		Detector:      &scriptedDetector{},
		Events:        events,
		AwayThreshold: 3 * time.Second,
	})
	current := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }
	return m, &current
}

func TestShortAbsenceIsDebounced(t *testing.T) {
	events := &recordedEvents{}
	m, clock := newTestMonitor(events)

	m.observe(true)
	m.observe(false)
	*clock = clock.Add(2 * time.Second)
	m.observe(false)
	*clock = clock.Add(500 * time.Millisecond)
	m.observe(true)

	if len(events.lost) != 0 {
		t.Fatalf("len(lost) = %d, want 0 for sub-threshold absence", len(events.lost))
	}
	if len(events.regained) != 0 {
		t.Fatalf("len(regained) = %d, want 0", len(events.regained))
	}
}

func TestAbsenceBeyondThresholdEmitsLostThenRegained(t *testing.T) {
	events := &recordedEvents{}
	m, clock := newTestMonitor(events)

	m.observe(true)
	absenceStart := *clock
	m.observe(false)
	*clock = clock.Add(3 * time.Second)
	m.observe(false)

	if len(events.lost) != 1 {
		t.Fatalf("len(lost) = %d, want 1", len(events.lost))
	}
	if !events.lost[0].Equal(absenceStart) {
		t.Errorf("awayStartedAt = %v, want %v", events.lost[0], absenceStart)
	}

	// Further absent samples do not re-emit.
	*clock = clock.Add(5 * time.Second)
	m.observe(false)
	if len(events.lost) != 1 {
		t.Fatalf("len(lost) = %d after continued absence, want 1", len(events.lost))
	}

	*clock = clock.Add(2 * time.Second)
	m.observe(true)
	if len(events.regained) != 1 {
		t.Fatalf("len(regained) = %d, want 1", len(events.regained))
	}
	if events.regained[0] != 10*time.Second {
		t.Errorf("awayFor = %v, want 10s", events.regained[0])
	}
}

func TestRepeatedCycles(t *testing.T) {
	events := &recordedEvents{}
	m, clock := newTestMonitor(events)

	for i := 0; i < 2; i++ {
		m.observe(false)
		*clock = clock.Add(4 * time.Second)
		m.observe(false)
		m.observe(true)
		*clock = clock.Add(time.Second)
	}

	if len(events.lost) != 2 || len(events.regained) != 2 {
		t.Fatalf("events = (%d lost, %d regained), want (2, 2)", len(events.lost), len(events.regained))
	}
}

func TestSampleSkipsRepeatedFrameTimestamp(t *testing.T) {
	detector := &scriptedDetector{present: []bool{true, true, true}}
	source := &scriptedSource{
		frames: []capture.Frame{
			{Data: []byte{1}, CapturedAt: 100},
			{Data: []byte{1}, CapturedAt: 100},
			{Data: []byte{2}, CapturedAt: 133},
		},
	}
	m := NewMonitor(Options{
		Source:   source,
		Detector: detector,
		Events:   &recordedEvents{},
	})

	ctx := context.Background()
	m.sample(ctx)
	m.sample(ctx)
	m.sample(ctx)

	if detector.calls != 2 {
		t.Fatalf("detector.calls = %d, want 2 (duplicate frame skipped)", detector.calls)
	}
}

func TestSampleDropsOnErrors(t *testing.T) {
	events := &recordedEvents{}
	grabErr := errors.New("device busy")
	source := &scriptedSource{
		frames: []capture.Frame{{}, {Data: []byte{1}, CapturedAt: 100}},
		errs:   []error{grabErr, nil},
	}
	detector := &scriptedDetector{err: errors.New("sidecar down")}
	m := NewMonitor(Options{Source: source, Detector: detector, Events: events})

	ctx := context.Background()
	m.sample(ctx) // grab failure
	m.sample(ctx) // detection failure

	if len(events.lost) != 0 || len(events.regained) != 0 {
		t.Fatal("errors must not produce presence events")
	}
}

func TestStartStop(t *testing.T) {
	source := &scriptedSource{frames: make([]capture.Frame, 1000)}
	m := NewMonitor(Options{
		Source:         source,
		Detector:       &scriptedDetector{},
		Events:         &recordedEvents{},
		SampleInterval: time.Millisecond,
	})

	m.Start(context.Background())
	if !m.Running() {
		t.Fatal("monitor should be running after Start")
	}
	m.Start(context.Background()) // idempotent

	m.Stop()
	if m.Running() {
		t.Fatal("monitor should not be running after Stop")
	}
	m.Stop() // idempotent
}

func TestNewMonitorRequiresCollaborators(t *testing.T) {
	if m := NewMonitor(Options{}); m != nil {
		t.Fatal("expected nil monitor without collaborators")
	}
	var m *Monitor
	m.Start(context.Background())
	m.Stop()
	if m.Running() {
		t.Fatal("nil monitor should report not running")
	}
}
