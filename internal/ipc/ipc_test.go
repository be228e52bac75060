package ipc

import (
	"context"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"focusd/internal/config"
	"focusd/internal/daemon"
)

func newTestHarness(t *testing.T) (*Client, func() bool) {
	t.Helper()
	base := t.TempDir()

	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SocketPath = filepath.Join(base, "focusd.sock")
	cfg.Session.UserID = "user-1"
	cfg.Notifications.NtfyTopic = ""

	d, err := daemon.New(cfg, nil)
	if err != nil {
		t.Fatalf("daemon.New() error: %v", err)
	}
	t.Cleanup(func() { _ = d.Close(context.Background()) })

	var shutdownCalled atomic.Bool
	server, err := NewServer(context.Background(), cfg.Paths.SocketPath, d,
		func() { shutdownCalled.Store(true) }, nil)
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)

	client, err := Dial(cfg.Paths.SocketPath)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return client, shutdownCalled.Load
}

func TestStatusRoundTrip(t *testing.T) {
	client, _ := newTestHarness(t)

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if !status.Running {
		t.Error("daemon should report running")
	}
	if status.PID == 0 {
		t.Error("expected a pid")
	}
	if status.Session.State != "idle" {
		t.Errorf("session state = %q, want idle", status.Session.State)
	}
}

func TestSessionLifecycleOverIPC(t *testing.T) {
	client, _ := newTestHarness(t)

	started, err := client.SessionStart(SessionStartRequest{
		GoalDescription:    "write tests",
		GoalTargetDuration: 3600,
	})
	if err != nil {
		t.Fatalf("SessionStart() error: %v", err)
	}
	if started.SessionID == "" {
		t.Fatal("expected session id")
	}

	status, err := client.SessionStatus()
	if err != nil {
		t.Fatalf("SessionStatus() error: %v", err)
	}
	if status.Session.State != "running" {
		t.Errorf("state = %q, want running", status.Session.State)
	}
	if status.Session.Goal == nil || status.Session.Goal.Description != "write tests" {
		t.Errorf("goal = %+v, want write tests", status.Session.Goal)
	}

	// Starting twice is rejected.
	if _, err := client.SessionStart(SessionStartRequest{}); err == nil {
		t.Fatal("expected error for double start")
	}

	entries, err := client.SessionLog()
	if err != nil {
		t.Fatalf("SessionLog() error: %v", err)
	}
	if len(entries.Entries) != 0 {
		t.Errorf("len(entries) = %d, want 0", len(entries.Entries))
	}

	ended, err := client.SessionEnd()
	if err != nil {
		t.Fatalf("SessionEnd() error: %v", err)
	}
	if ended.SessionID != started.SessionID {
		t.Errorf("ended id = %q, want %q", ended.SessionID, started.SessionID)
	}

	// Ending again is rejected.
	if _, err := client.SessionEnd(); err == nil {
		t.Fatal("expected error ending without a session")
	}

	history, err := client.HistoryList(0)
	if err != nil {
		t.Fatalf("HistoryList() error: %v", err)
	}
	if len(history.Sessions) != 1 {
		t.Fatalf("len(history) = %d, want 1", len(history.Sessions))
	}
	stored := history.Sessions[0]
	if stored.ID != started.SessionID {
		t.Errorf("stored id = %q, want %q", stored.ID, started.SessionID)
	}
	if stored.Status != "completed" {
		t.Errorf("stored status = %q, want completed", stored.Status)
	}
	if stored.EndTime == nil {
		t.Error("stored session missing end time")
	}
}

func TestHistoryShowAndDelete(t *testing.T) {
	client, _ := newTestHarness(t)

	started, err := client.SessionStart(SessionStartRequest{})
	if err != nil {
		t.Fatalf("SessionStart() error: %v", err)
	}

	// The active session cannot be deleted.
	if _, err := client.HistoryDelete(started.SessionID); err == nil {
		t.Fatal("expected error deleting active session")
	}

	if _, err := client.SessionEnd(); err != nil {
		t.Fatalf("SessionEnd() error: %v", err)
	}

	shown, err := client.HistoryShow(started.SessionID)
	if err != nil {
		t.Fatalf("HistoryShow() error: %v", err)
	}
	if shown.Session.ID != started.SessionID {
		t.Errorf("shown id = %q, want %q", shown.Session.ID, started.SessionID)
	}

	deleted, err := client.HistoryDelete(started.SessionID)
	if err != nil {
		t.Fatalf("HistoryDelete() error: %v", err)
	}
	if !deleted.Deleted {
		t.Fatal("expected deletion")
	}

	if _, err := client.HistoryShow(started.SessionID); err == nil ||
		!strings.Contains(err.Error(), "not found") {
		t.Fatalf("HistoryShow after delete = %v, want not found", err)
	}
}

func TestShutdownRequest(t *testing.T) {
	client, shutdownCalled := newTestHarness(t)

	resp, err := client.Shutdown()
	if err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
	if !resp.Stopping {
		t.Fatal("expected stopping=true")
	}

	deadline := time.Now().Add(time.Second)
	for !shutdownCalled() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !shutdownCalled() {
		t.Fatal("shutdown callback was not invoked")
	}
}

func TestTestNotification(t *testing.T) {
	client, _ := newTestHarness(t)

	resp, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification() error: %v", err)
	}
	if !resp.Sent {
		t.Fatal("noop notifier should report sent")
	}
}
