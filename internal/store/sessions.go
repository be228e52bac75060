package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"focusd/internal/sessionlog"
)

const sessionColumns = `id, user_id, start_time, end_time, total_focus_time, status,
	logs_json, goal_json, summary, webcam_enabled, screen_enabled, created_at, updated_at`

// NewSessionInput carries the caller-chosen parameters for a new session
// document.
type NewSessionInput struct {
	UserID        string
	Goal          *Goal
	WebcamEnabled bool
	ScreenEnabled bool
}

// Create inserts a new active session document and returns it.
func (s *Store) Create(ctx context.Context, input NewSessionInput) (*Session, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.New("user id is required")
	}

	now := time.Now().UTC()
	session := &Session{
		ID:            uuid.New().String(),
		UserID:        userID,
		StartTime:     now,
		Status:        StatusActive,
		Logs:          []sessionlog.Entry{},
		Goal:          input.Goal,
		WebcamEnabled: input.WebcamEnabled,
		ScreenEnabled: input.ScreenEnabled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	logsJSON, err := marshalLogs(session.Logs)
	if err != nil {
		return nil, err
	}
	goalJSON, err := marshalGoal(session.Goal)
	if err != nil {
		return nil, err
	}

	_, err = s.execWithRetry(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, NULL, 0, ?, ?, ?, '', ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		formatTime(session.StartTime),
		string(session.Status),
		logsJSON,
		goalJSON,
		boolToInt(session.WebcamEnabled),
		boolToInt(session.ScreenEnabled),
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return session, nil
}

// GetByID returns the session with the given id, or nil when absent.
func (s *Store) GetByID(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return session, nil
}

// UpdateFields applies a partial update to a session document. Only the
// populated members of fields are written; updated_at is always refreshed.
func (s *Store) UpdateFields(ctx context.Context, id string, fields Fields) error {
	setClauses := make([]string, 0, 8)
	args := make([]any, 0, 8)

	if fields.TotalFocusTime != nil {
		setClauses = append(setClauses, "total_focus_time = ?")
		args = append(args, *fields.TotalFocusTime)
	}
	if fields.Status != nil {
		setClauses = append(setClauses, "status = ?")
		args = append(args, string(*fields.Status))
	}
	if fields.EndTime != nil {
		setClauses = append(setClauses, "end_time = ?")
		args = append(args, formatTime(*fields.EndTime))
	}
	if fields.Summary != nil {
		setClauses = append(setClauses, "summary = ?")
		args = append(args, *fields.Summary)
	}
	if fields.LogsSet {
		logsJSON, err := marshalLogs(fields.Logs)
		if err != nil {
			return err
		}
		setClauses = append(setClauses, "logs_json = ?")
		args = append(args, logsJSON)
	}
	if fields.GoalSet {
		goalJSON, err := marshalGoal(fields.Goal)
		if err != nil {
			return err
		}
		setClauses = append(setClauses, "goal_json = ?")
		args = append(args, goalJSON)
	}
	if len(setClauses) == 0 {
		return nil
	}

	setClauses = append(setClauses, "updated_at = ?")
	args = append(args, formatTime(time.Now().UTC()))
	args = append(args, id)

	res, err := s.execWithRetry(ctx,
		"UPDATE sessions SET "+strings.Join(setClauses, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update session %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session %s: rows affected: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("update session %s: not found", id)
	}
	return nil
}

// Delete removes a session document. Deleting an unknown id is an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.execWithRetry(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session %s: rows affected: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("delete session %s: not found", id)
	}
	return nil
}

// ListByUser returns the user's sessions ordered newest first. A limit of 0
// returns all sessions.
func (s *Store) ListByUser(ctx context.Context, userID string, limit int) ([]*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id = ? ORDER BY start_time DESC`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions for %s: %w", userID, err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// CountOpen returns the number of non-completed sessions for a user.
func (s *Store) CountOpen(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT COUNT(1) FROM sessions WHERE user_id = ? AND status != ?",
		userID, string(StatusCompleted),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count open sessions: %w", err)
	}
	return count, nil
}

// CloseStale marks every non-completed session as completed. The daemon calls
// this at startup so documents orphaned by a crash don't appear active
// forever; their end time is the last recorded update.
func (s *Store) CloseStale(ctx context.Context) (int, error) {
	res, err := s.execWithRetry(ctx, `
		UPDATE sessions
		SET status = ?, end_time = COALESCE(end_time, updated_at), updated_at = ?
		WHERE status != ?`,
		string(StatusCompleted),
		formatTime(time.Now().UTC()),
		string(StatusCompleted),
	)
	if err != nil {
		return 0, fmt.Errorf("close stale sessions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("close stale sessions: rows affected: %w", err)
	}
	return int(affected), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(scanner rowScanner) (*Session, error) {
	var (
		session   Session
		startTime string
		endTime   sql.NullString
		status    string
		logsJSON  string
		goalJSON  sql.NullString
		summary   sql.NullString
		webcam    int
		screen    int
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&session.ID,
		&session.UserID,
		&startTime,
		&endTime,
		&session.TotalFocusTime,
		&status,
		&logsJSON,
		&goalJSON,
		&summary,
		&webcam,
		&screen,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	parsedStatus, ok := ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("unknown session status %q", status)
	}
	session.Status = parsedStatus

	if session.StartTime, err = parseTime(startTime); err != nil {
		return nil, fmt.Errorf("parse start_time: %w", err)
	}
	if endTime.Valid {
		end, parseErr := parseTime(endTime.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse end_time: %w", parseErr)
		}
		session.EndTime = &end
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if session.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	if err := json.Unmarshal([]byte(logsJSON), &session.Logs); err != nil {
		return nil, fmt.Errorf("decode logs: %w", err)
	}
	if goalJSON.Valid && goalJSON.String != "" {
		var goal Goal
		if err := json.Unmarshal([]byte(goalJSON.String), &goal); err != nil {
			return nil, fmt.Errorf("decode goal: %w", err)
		}
		session.Goal = &goal
	}
	session.Summary = summary.String
	session.WebcamEnabled = webcam != 0
	session.ScreenEnabled = screen != 0

	return &session, nil
}

func marshalLogs(entries []sessionlog.Entry) (string, error) {
	if entries == nil {
		entries = []sessionlog.Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("encode logs: %w", err)
	}
	return string(data), nil
}

func marshalGoal(goal *Goal) (any, error) {
	if goal == nil {
		return nil, nil
	}
	data, err := json.Marshal(goal)
	if err != nil {
		return nil, fmt.Errorf("encode goal: %w", err)
	}
	return string(data), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
