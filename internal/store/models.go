package store

import (
	"strings"
	"time"

	"focusd/internal/sessionlog"
)

// Status is the persisted lifecycle state of a session document. It is
// coarser than the runtime state machine: running and paused both persist as
// active/paused, and stopped persists as completed.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case StatusActive, StatusPaused, StatusCompleted:
		return normalized, true
	default:
		return "", false
	}
}

// Goal is an optional user-declared target for a session. Completed flips
// false→true at most once while the session runs and is never reset.
type Goal struct {
	Description    string `json:"description"`
	TargetDuration int64  `json:"targetDuration,omitempty"`
	Completed      bool   `json:"completed"`
}

// Session is the aggregate document persisted per focus session.
type Session struct {
	ID             string
	UserID         string
	StartTime      time.Time
	EndTime        *time.Time
	TotalFocusTime int64
	Status         Status
	Logs           []sessionlog.Entry
	Goal           *Goal
	Summary        string
	WebcamEnabled  bool
	ScreenEnabled  bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Open reports whether the document is in a non-terminal status.
func (s *Session) Open() bool {
	return s != nil && s.Status != StatusCompleted
}

// Fields describes a partial update. Nil pointers leave the stored value
// untouched; Logs is only written when LogsSet is true so an empty log can
// still be persisted explicitly.
type Fields struct {
	TotalFocusTime *int64
	Status         *Status
	EndTime        *time.Time
	Summary        *string
	Logs           []sessionlog.Entry
	LogsSet        bool
	Goal           *Goal
	GoalSet        bool
}
