package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"focusd/internal/capture"
	"focusd/internal/services/screenllm"
	"focusd/internal/sessionlog"
)

type stubSource struct {
	frame capture.Frame
	err   error
}

func (s *stubSource) Grab(context.Context) (capture.Frame, error) {
	return s.frame, s.err
}

func (s *stubSource) Name() string { return "screen" }

type stubClassifier struct {
	result     screenllm.Classification
	err        error
	categories []sessionlog.Category
}

func (c *stubClassifier) ClassifyScreen(_ context.Context, _ []byte, categories []sessionlog.Category) (screenllm.Classification, error) {
	c.categories = categories
	return c.result, c.err
}

type recordedEvents struct {
	mu         sync.Mutex
	classified []sessionlog.Entry
	failures   []error
	signal     chan struct{}
}

func newRecordedEvents() *recordedEvents {
	return &recordedEvents{signal: make(chan struct{}, 16)}
}

func (e *recordedEvents) ScreenClassified(category sessionlog.Category, reasoning string, durationSeconds int64) {
	e.mu.Lock()
	e.classified = append(e.classified, sessionlog.Entry{
		Category:  category,
		Reasoning: reasoning,
		Duration:  durationSeconds,
	})
	e.mu.Unlock()
	e.signal <- struct{}{}
}

func (e *recordedEvents) AuditFailed(err error) {
	e.mu.Lock()
	e.failures = append(e.failures, err)
	e.mu.Unlock()
	e.signal <- struct{}{}
}

func (e *recordedEvents) snapshot() ([]sessionlog.Entry, []error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]sessionlog.Entry(nil), e.classified...), append([]error(nil), e.failures...)
}

func TestRunAuditSuccess(t *testing.T) {
	events := newRecordedEvents()
	classifier := &stubClassifier{
		result: screenllm.Classification{Category: "Coding", Reasoning: "Editor visible."},
	}
	a := NewAuditor(Options{
		Source:     &stubSource{frame: capture.Frame{Data: []byte{1}, CapturedAt: 1}},
		Classifier: classifier,
		Events:     events,
		Categories: []sessionlog.Category{"Coding", sessionlog.CategoryDistraction},
		Interval:   120 * time.Second,
	})

	a.runAudit(context.Background())

	classified, failures := events.snapshot()
	if len(failures) != 0 {
		t.Fatalf("failures = %v, want none", failures)
	}
	if len(classified) != 1 {
		t.Fatalf("len(classified) = %d, want 1", len(classified))
	}
	entry := classified[0]
	if entry.Category != "Coding" {
		t.Errorf("Category = %q, want Coding", entry.Category)
	}
	if entry.Duration != 120 {
		t.Errorf("Duration = %d, want 120", entry.Duration)
	}
	if len(classifier.categories) != 2 {
		t.Errorf("classifier received %d categories, want 2", len(classifier.categories))
	}
}

func TestRunAuditGrabFailure(t *testing.T) {
	events := newRecordedEvents()
	grabErr := errors.New("display gone")
	a := NewAuditor(Options{
		Source:     &stubSource{err: grabErr},
		Classifier: &stubClassifier{},
		Events:     events,
	})

	a.runAudit(context.Background())

	classified, failures := events.snapshot()
	if len(classified) != 0 {
		t.Fatal("failed audit must not classify")
	}
	if len(failures) != 1 || !errors.Is(failures[0], grabErr) {
		t.Fatalf("failures = %v, want grab error", failures)
	}
}

func TestRunAuditClassifierFailure(t *testing.T) {
	events := newRecordedEvents()
	classifyErr := errors.New("model overloaded")
	a := NewAuditor(Options{
		Source:     &stubSource{frame: capture.Frame{Data: []byte{1}}},
		Classifier: &stubClassifier{err: classifyErr},
		Events:     events,
	})

	a.runAudit(context.Background())

	_, failures := events.snapshot()
	if len(failures) != 1 || !errors.Is(failures[0], classifyErr) {
		t.Fatalf("failures = %v, want classifier error", failures)
	}
}

func TestCanonicalCategory(t *testing.T) {
	a := NewAuditor(Options{
		Source:     &stubSource{},
		Classifier: &stubClassifier{},
		Events:     newRecordedEvents(),
		Categories: []sessionlog.Category{"Academic Research", sessionlog.CategoryDistraction},
	})

	cases := []struct {
		raw  string
		want sessionlog.Category
	}{
		{"academic research", "Academic Research"},
		{"DISTRACTION", sessionlog.CategoryDistraction},
		{" away ", sessionlog.CategoryAway},
		{"Gaming", "Gaming"},
	}
	for _, tc := range cases {
		if got := a.canonicalCategory(tc.raw); got != tc.want {
			t.Errorf("canonicalCategory(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestStartRunsImmediateAudit(t *testing.T) {
	events := newRecordedEvents()
	a := NewAuditor(Options{
		Source:     &stubSource{frame: capture.Frame{Data: []byte{1}}},
		Classifier: &stubClassifier{result: screenllm.Classification{Category: "Coding"}},
		Events:     events,
		Interval:   time.Hour,
	})

	a.Start(context.Background())
	defer a.Stop()

	select {
	case <-events.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("expected an immediate audit on start")
	}

	classified, _ := events.snapshot()
	if len(classified) != 1 {
		t.Fatalf("len(classified) = %d, want 1 immediate audit", len(classified))
	}
}

func TestStartStopIdempotent(t *testing.T) {
	a := NewAuditor(Options{
		Source:     &stubSource{err: errors.New("no display")},
		Classifier: &stubClassifier{},
		Events:     newRecordedEvents(),
		Interval:   time.Hour,
	})

	a.Start(context.Background())
	a.Start(context.Background())
	if !a.Running() {
		t.Fatal("auditor should be running")
	}
	a.Stop()
	a.Stop()
	if a.Running() {
		t.Fatal("auditor should be stopped")
	}
}
