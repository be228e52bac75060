package ipc

import (
	"time"

	"focusd/internal/session"
	"focusd/internal/sessionlog"
	"focusd/internal/store"
)

// ServiceName is the JSON-RPC service label all methods hang off.
const ServiceName = "Focusd"

// LogEntry mirrors sessionlog.Entry on the wire.
type LogEntry struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Category  string `json:"category"`
	Reasoning string `json:"reasoning"`
	Duration  int64  `json:"duration"`
}

// Goal mirrors store.Goal on the wire.
type Goal struct {
	Description    string `json:"description"`
	TargetDuration int64  `json:"targetDuration,omitempty"`
	Completed      bool   `json:"completed"`
}

// SessionInfo is the wire form of a stored session document.
type SessionInfo struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	StartTime      time.Time  `json:"startTime"`
	EndTime        *time.Time `json:"endTime,omitempty"`
	TotalFocusTime int64      `json:"totalFocusTime"`
	Status         string     `json:"status"`
	Logs           []LogEntry `json:"logs"`
	Goal           *Goal      `json:"goal,omitempty"`
	Summary        string     `json:"summary,omitempty"`
	WebcamEnabled  bool       `json:"webcamEnabled"`
	ScreenEnabled  bool       `json:"screenEnabled"`
}

// SessionSnapshot is the wire form of the live controller state.
type SessionSnapshot struct {
	State         string    `json:"state"`
	FocusState    string    `json:"focusState"`
	SessionID     string    `json:"sessionId,omitempty"`
	StartedAt     time.Time `json:"startedAt"`
	Elapsed       int64     `json:"elapsed"`
	Goal          *Goal     `json:"goal,omitempty"`
	WebcamEnabled bool      `json:"webcamEnabled"`
	ScreenEnabled bool      `json:"screenEnabled"`
	LogLen        int       `json:"logLen"`
}

type StatusRequest struct{}

type StatusResponse struct {
	Running      bool            `json:"running"`
	PID          int             `json:"pid"`
	StartedAt    time.Time       `json:"startedAt"`
	DBPath       string          `json:"dbPath"`
	LockFilePath string          `json:"lockFilePath"`
	LogPath      string          `json:"logPath"`
	Session      SessionSnapshot `json:"session"`
}

type ShutdownRequest struct{}

type ShutdownResponse struct {
	Stopping bool `json:"stopping"`
}

type SessionStartRequest struct {
	Webcam             bool   `json:"webcam"`
	Screen             bool   `json:"screen"`
	GoalDescription    string `json:"goalDescription,omitempty"`
	GoalTargetDuration int64  `json:"goalTargetDuration,omitempty"`
}

type SessionStartResponse struct {
	SessionID string `json:"sessionId"`
}

type SessionEndRequest struct{}

type SessionEndResponse struct {
	SessionID string `json:"sessionId"`
}

type SessionStatusRequest struct{}

type SessionStatusResponse struct {
	Session SessionSnapshot `json:"session"`
}

type SessionLogRequest struct{}

type SessionLogResponse struct {
	Entries []LogEntry `json:"entries"`
}

type HistoryListRequest struct {
	Limit int `json:"limit"`
}

type HistoryListResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

type HistoryShowRequest struct {
	ID string `json:"id"`
}

type HistoryShowResponse struct {
	Session SessionInfo `json:"session"`
}

type HistoryDeleteRequest struct {
	ID string `json:"id"`
}

type HistoryDeleteResponse struct {
	Deleted bool `json:"deleted"`
}

type TestNotificationRequest struct{}

type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

func convertEntries(entries []sessionlog.Entry) []LogEntry {
	converted := make([]LogEntry, 0, len(entries))
	for _, entry := range entries {
		converted = append(converted, LogEntry{
			ID:        entry.ID,
			Timestamp: entry.Timestamp,
			Category:  string(entry.Category),
			Reasoning: entry.Reasoning,
			Duration:  entry.Duration,
		})
	}
	return converted
}

func convertGoal(goal *store.Goal) *Goal {
	if goal == nil {
		return nil
	}
	return &Goal{
		Description:    goal.Description,
		TargetDuration: goal.TargetDuration,
		Completed:      goal.Completed,
	}
}

func convertSession(sess *store.Session) SessionInfo {
	return SessionInfo{
		ID:             sess.ID,
		UserID:         sess.UserID,
		StartTime:      sess.StartTime,
		EndTime:        sess.EndTime,
		TotalFocusTime: sess.TotalFocusTime,
		Status:         string(sess.Status),
		Logs:           convertEntries(sess.Logs),
		Goal:           convertGoal(sess.Goal),
		Summary:        sess.Summary,
		WebcamEnabled:  sess.WebcamEnabled,
		ScreenEnabled:  sess.ScreenEnabled,
	}
}

func convertSnapshot(snapshot session.Snapshot) SessionSnapshot {
	return SessionSnapshot{
		State:         string(snapshot.State),
		FocusState:    string(snapshot.FocusState),
		SessionID:     snapshot.SessionID,
		StartedAt:     snapshot.StartedAt,
		Elapsed:       snapshot.Elapsed,
		Goal:          convertGoal(snapshot.Goal),
		WebcamEnabled: snapshot.WebcamEnabled,
		ScreenEnabled: snapshot.ScreenEnabled,
		LogLen:        snapshot.LogLen,
	}
}
