package main

import (
	"strings"
	"testing"
)

func TestRenderStatusLine(t *testing.T) {
	plain := renderStatusLine("Focusd", statusOK, "Running (pid 1)", false)
	if !strings.HasPrefix(plain, "  Focusd:") {
		t.Fatalf("line = %q, want indented label prefix", plain)
	}
	if !strings.Contains(plain, "[OK] Running (pid 1)") {
		t.Fatalf("line = %q, want tag followed by message", plain)
	}
	if strings.Contains(plain, ansiGreen) {
		t.Fatalf("line = %q, plain output must not contain escapes", plain)
	}

	colored := renderStatusLine("Focusd", statusOK, "Running (pid 1)", true)
	if !strings.Contains(colored, ansiGreen+"[OK]"+ansiReset) {
		t.Fatalf("line = %q, want only the tag colored", colored)
	}
	if !strings.HasSuffix(colored, "Running (pid 1)") {
		t.Fatalf("line = %q, message must stay outside the escape sequence", colored)
	}

	warn := renderStatusLine("State", statusWarn, "", false)
	if !strings.HasSuffix(warn, "[WARN]") {
		t.Fatalf("line = %q, empty message should end at the tag", warn)
	}
}

func TestRenderSectionHeader(t *testing.T) {
	if got := renderSectionHeader("  Daemon ", false); got != "--- Daemon ---" {
		t.Fatalf("header = %q, want trimmed title in rules", got)
	}
	colored := renderSectionHeader("Daemon", true)
	if !strings.HasPrefix(colored, ansiBold) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("header = %q, want bold wrapping", colored)
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"ID", "Focus Time"},
		[][]string{{"abc123", "59s"}, {"short-row"}},
		"Focus Time",
	)
	if !strings.Contains(out, "Focus Time") {
		t.Fatalf("table = %q, headers must keep their written case", out)
	}
	if strings.Contains(out, "FOCUS TIME") {
		t.Fatalf("table = %q, headers must not be upper-cased", out)
	}
	if strings.Contains(out, "<nil>") {
		t.Fatalf("table = %q, short rows must pad with empty cells", out)
	}

	if got := renderTable(nil, nil); got != "" {
		t.Fatalf("renderTable(nil) = %q, want empty", got)
	}
}
