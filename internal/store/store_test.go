package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"focusd/internal/config"
	"focusd/internal/sessionlog"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SocketPath = filepath.Join(base, "focusd.sock")

	s, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, NewSessionInput{
		UserID:        "user-1",
		Goal:          &Goal{Description: "write report", TargetDuration: 1800},
		WebcamEnabled: true,
		ScreenEnabled: true,
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated session id")
	}
	if created.Status != StatusActive {
		t.Fatalf("new session status = %q, want %q", created.Status, StatusActive)
	}

	got, err := s.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got == nil {
		t.Fatal("expected session, got nil")
	}
	if got.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", got.UserID)
	}
	if got.Goal == nil || got.Goal.Description != "write report" {
		t.Errorf("Goal = %+v, want description 'write report'", got.Goal)
	}
	if got.Goal.TargetDuration != 1800 {
		t.Errorf("Goal.TargetDuration = %d, want 1800", got.Goal.TargetDuration)
	}
	if !got.WebcamEnabled || !got.ScreenEnabled {
		t.Errorf("capture flags = (%v, %v), want both true", got.WebcamEnabled, got.ScreenEnabled)
	}
	if got.EndTime != nil {
		t.Errorf("EndTime = %v, want nil", got.EndTime)
	}
	if len(got.Logs) != 0 {
		t.Errorf("Logs length = %d, want 0", len(got.Logs))
	}
	if !got.Open() {
		t.Error("new session should report open")
	}
}

func TestGetByIDMissing(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetByID(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for unknown id, got %+v", got)
	}
}

func TestCreateRequiresUserID(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Create(context.Background(), NewSessionInput{UserID: "  "}); err == nil {
		t.Fatal("expected error for blank user id")
	}
}

func TestUpdateFieldsPartial(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, NewSessionInput{UserID: "user-1"})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	focus := int64(420)
	status := StatusPaused
	entry := sessionlog.NewEntry(sessionlog.CategoryAway, "stepped out", 12*time.Second)
	if err := s.UpdateFields(ctx, created.ID, Fields{
		TotalFocusTime: &focus,
		Status:         &status,
		Logs:           []sessionlog.Entry{entry},
		LogsSet:        true,
	}); err != nil {
		t.Fatalf("UpdateFields() error: %v", err)
	}

	got, err := s.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.TotalFocusTime != 420 {
		t.Errorf("TotalFocusTime = %d, want 420", got.TotalFocusTime)
	}
	if got.Status != StatusPaused {
		t.Errorf("Status = %q, want %q", got.Status, StatusPaused)
	}
	if len(got.Logs) != 1 || got.Logs[0].Category != sessionlog.CategoryAway {
		t.Errorf("Logs = %+v, want single away entry", got.Logs)
	}
	// Untouched fields keep their stored values.
	if got.EndTime != nil {
		t.Errorf("EndTime = %v, want nil", got.EndTime)
	}
	if got.Summary != "" {
		t.Errorf("Summary = %q, want empty", got.Summary)
	}
}

func TestUpdateFieldsCompletion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, NewSessionInput{
		UserID: "user-1",
		Goal:   &Goal{Description: "finish draft"},
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	end := time.Now().UTC()
	status := StatusCompleted
	summary := "Worked on the draft with one short break."
	goal := &Goal{Description: "finish draft", Completed: true}
	if err := s.UpdateFields(ctx, created.ID, Fields{
		Status:  &status,
		EndTime: &end,
		Summary: &summary,
		Goal:    goal,
		GoalSet: true,
	}); err != nil {
		t.Fatalf("UpdateFields() error: %v", err)
	}

	got, err := s.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.Open() {
		t.Error("completed session should not report open")
	}
	if got.EndTime == nil {
		t.Fatal("expected end time to be set")
	}
	if got.Summary != summary {
		t.Errorf("Summary = %q, want %q", got.Summary, summary)
	}
	if got.Goal == nil || !got.Goal.Completed {
		t.Errorf("Goal = %+v, want completed", got.Goal)
	}
}

func TestUpdateFieldsUnknownSession(t *testing.T) {
	s := newTestStore(t)

	status := StatusCompleted
	err := s.UpdateFields(context.Background(), "no-such-id", Fields{Status: &status})
	if err == nil {
		t.Fatal("expected error for unknown session id")
	}
}

func TestUpdateFieldsEmptyIsNoop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, NewSessionInput{UserID: "user-1"})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := s.UpdateFields(ctx, created.ID, Fields{}); err != nil {
		t.Fatalf("empty UpdateFields() error: %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, NewSessionInput{UserID: "user-1"})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := s.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	got, err := s.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got != nil {
		t.Fatal("expected session to be gone after delete")
	}
	if err := s.Delete(ctx, created.ID); err == nil {
		t.Fatal("expected error deleting already-deleted session")
	}
}

func TestListByUserOrderAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		created, err := s.Create(ctx, NewSessionInput{UserID: "user-1"})
		if err != nil {
			t.Fatalf("Create() error: %v", err)
		}
		ids = append(ids, created.ID)
		// Distinct start times so ordering is deterministic.
		start := time.Now().UTC().Add(time.Duration(i) * time.Minute)
		if _, err := s.execWithRetry(ctx,
			"UPDATE sessions SET start_time = ? WHERE id = ?",
			formatTime(start), created.ID); err != nil {
			t.Fatalf("adjust start time: %v", err)
		}
	}
	if _, err := s.Create(ctx, NewSessionInput{UserID: "user-2"}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	sessions, err := s.ListByUser(ctx, "user-1", 0)
	if err != nil {
		t.Fatalf("ListByUser() error: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("len(sessions) = %d, want 3", len(sessions))
	}
	if sessions[0].ID != ids[2] || sessions[2].ID != ids[0] {
		t.Errorf("sessions not ordered newest first: %s, %s, %s",
			sessions[0].ID, sessions[1].ID, sessions[2].ID)
	}

	limited, err := s.ListByUser(ctx, "user-1", 2)
	if err != nil {
		t.Fatalf("ListByUser() error: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("len(limited) = %d, want 2", len(limited))
	}
}

func TestCountOpenAndCloseStale(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Create(ctx, NewSessionInput{UserID: "user-1"})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := s.Create(ctx, NewSessionInput{UserID: "user-1"}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	end := time.Now().UTC()
	status := StatusCompleted
	if err := s.UpdateFields(ctx, first.ID, Fields{Status: &status, EndTime: &end}); err != nil {
		t.Fatalf("UpdateFields() error: %v", err)
	}

	count, err := s.CountOpen(ctx, "user-1")
	if err != nil {
		t.Fatalf("CountOpen() error: %v", err)
	}
	if count != 1 {
		t.Fatalf("CountOpen() = %d, want 1", count)
	}

	closed, err := s.CloseStale(ctx)
	if err != nil {
		t.Fatalf("CloseStale() error: %v", err)
	}
	if closed != 1 {
		t.Fatalf("CloseStale() = %d, want 1", closed)
	}

	count, err = s.CountOpen(ctx, "user-1")
	if err != nil {
		t.Fatalf("CountOpen() error: %v", err)
	}
	if count != 0 {
		t.Fatalf("CountOpen() after CloseStale = %d, want 0", count)
	}

	sessions, err := s.ListByUser(ctx, "user-1", 0)
	if err != nil {
		t.Fatalf("ListByUser() error: %v", err)
	}
	for _, session := range sessions {
		if session.EndTime == nil {
			t.Errorf("session %s has no end time after CloseStale", session.ID)
		}
	}
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		input string
		want  Status
		ok    bool
	}{
		{"active", StatusActive, true},
		{"PAUSED", StatusPaused, true},
		{" completed ", StatusCompleted, true},
		{"running", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseStatus(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseStatus(%q) = (%q, %v), want (%q, %v)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}
