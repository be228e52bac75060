package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"focusd/internal/config"
)

const userAgent = "focusd/0.1.0"

// Service defines the notification surface exposed to the session runtime.
type Service interface {
	NotifySessionStarted(ctx context.Context, goal string) error
	NotifySessionCompleted(ctx context.Context, focusTime time.Duration, summary string) error
	NotifyGoalCompleted(ctx context.Context, goal string) error
	NotifyAuditFailed(ctx context.Context, reason string) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		sessions: cfg.Notifications.Sessions,
		goals:    cfg.Notifications.Goals,
		errors:   cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	sessions bool
	goals    bool
	errors   bool
}

func (n *ntfyService) NotifySessionStarted(ctx context.Context, goal string) error {
	if !n.sessions {
		return nil
	}
	message := "Focus session started"
	if goal = strings.TrimSpace(goal); goal != "" {
		message = fmt.Sprintf("Focus session started: %s", goal)
	}
	return n.send(ctx, payload{
		title:   "Focusd - Session Started",
		message: message,
		tags:    []string{"focusd", "session", "started"},
	})
}

func (n *ntfyService) NotifySessionCompleted(ctx context.Context, focusTime time.Duration, summary string) error {
	if !n.sessions {
		return nil
	}
	focusTime = focusTime.Round(time.Second)
	if focusTime < 0 {
		focusTime = 0
	}
	message := fmt.Sprintf("Session complete: %s of focus time", focusTime)
	if summary = strings.TrimSpace(summary); summary != "" {
		message = fmt.Sprintf("%s\n%s", message, summary)
	}
	return n.send(ctx, payload{
		title:   "Focusd - Session Complete",
		message: message,
		tags:    []string{"focusd", "session", "completed"},
	})
}

func (n *ntfyService) NotifyGoalCompleted(ctx context.Context, goal string) error {
	if !n.goals {
		return nil
	}
	goal = strings.TrimSpace(goal)
	return n.send(ctx, payload{
		title:    "Focusd - Goal Reached",
		message:  fmt.Sprintf("Goal reached: %s", goal),
		tags:     []string{"focusd", "goal", "completed"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyAuditFailed(ctx context.Context, reason string) error {
	if !n.errors {
		return nil
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	return n.send(ctx, payload{
		title:   "Focusd - Screen Check Failed",
		message: fmt.Sprintf("Screen classification failed: %s\nActivity log unchanged for this interval", reason),
		tags:    []string{"focusd", "audit", "failed"},
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "Focusd - Error",
		message:  builder.String(),
		tags:     []string{"focusd", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Focusd - Test",
		message:  "Notification system test",
		tags:     []string{"focusd", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifySessionStarted(context.Context, string) error { return nil }
func (noopService) NotifySessionCompleted(context.Context, time.Duration, string) error {
	return nil
}
func (noopService) NotifyGoalCompleted(context.Context, string) error { return nil }
func (noopService) NotifyAuditFailed(context.Context, string) error   { return nil }
func (noopService) NotifyError(context.Context, error, string) error  { return nil }
func (noopService) TestNotification(context.Context) error            { return nil }
