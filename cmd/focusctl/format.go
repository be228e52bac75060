package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"focusd/internal/ipc"
)

var titleCaser = cases.Title(language.English)

func titleCase(value string) string {
	return titleCaser.String(strings.TrimSpace(value))
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// formatSeconds renders a second count as 1h 02m 03s, dropping leading zero
// units.
func formatSeconds(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %02dm %02ds", hours, minutes, secs)
	case minutes > 0:
		return fmt.Sprintf("%dm %02ds", minutes, secs)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}

func printSnapshot(stdout io.Writer, snapshot ipc.SessionSnapshot, colorize bool) {
	if snapshot.State == "idle" || snapshot.State == "stopped" {
		fmt.Fprintln(stdout, renderStatusLine("Session", statusInfo, "No active session", colorize))
		return
	}

	stateKind := statusOK
	if snapshot.State == "paused" {
		stateKind = statusWarn
	}
	fmt.Fprintln(stdout, renderStatusLine("Session", stateKind, snapshot.SessionID, colorize))
	fmt.Fprintln(stdout, renderStatusLine("State", stateKind, titleCase(snapshot.State), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Focus", statusInfo, titleCase(snapshot.FocusState), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Started", statusInfo, snapshot.StartedAt.Local().Format(time.RFC1123), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Focus time", statusInfo, formatSeconds(snapshot.Elapsed), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Webcam", statusInfo, yesNo(snapshot.WebcamEnabled), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Screen", statusInfo, yesNo(snapshot.ScreenEnabled), colorize))
	if snapshot.Goal != nil {
		detail := snapshot.Goal.Description
		kind := statusInfo
		if snapshot.Goal.Completed {
			detail += " (completed)"
			kind = statusOK
		} else if snapshot.Goal.TargetDuration > 0 {
			remaining := snapshot.Goal.TargetDuration - snapshot.Elapsed
			if remaining < 0 {
				remaining = 0
			}
			detail += fmt.Sprintf(" (%s remaining)", formatSeconds(remaining))
		}
		fmt.Fprintln(stdout, renderStatusLine("Goal", kind, detail, colorize))
	}
	fmt.Fprintln(stdout, renderStatusLine("Log entries", statusInfo, fmt.Sprintf("%d", snapshot.LogLen), colorize))
}
