package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerFormatsComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger = NewComponentLogger(logger, "session-controller")
	logger.Info("session started", String(FieldSessionID, "abc123"), Int("elapsed", 0))

	line := buf.String()
	if !strings.Contains(line, "INFO session-controller: session started") {
		t.Fatalf("unexpected console line: %q", line)
	}
	if !strings.Contains(line, "session_id=abc123") || !strings.Contains(line, "elapsed=0") {
		t.Fatalf("expected attrs in console line: %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Warn("audit failed", String("reason", "classifier timed out"))
	if !strings.Contains(buf.String(), `reason="classifier timed out"`) {
		t.Fatalf("expected quoted value: %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if parseLevel("nonsense") != slog.LevelInfo {
		t.Fatal("expected fallback to info level")
	}
	if parseLevel("debug") != slog.LevelDebug {
		t.Fatal("expected debug level")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("should not panic", Error(nil))
}
