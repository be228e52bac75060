package screenllm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"focusd/internal/sessionlog"
)

func completionBody(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	encoded, _ := json.Marshal(payload)
	return string(encoded)
}

func TestClassifyScreen(t *testing.T) {
	var captured struct {
		auth string
		body map[string]any
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured.body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(completionBody(`{"type": "Coding", "reasoning": "An editor with Go source is visible."}`)))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL), WithModel("test-model"))
	categories := []sessionlog.Category{"Coding", "Browsing", sessionlog.CategoryDistraction}

	result, err := client.ClassifyScreen(context.Background(), []byte{0xFF, 0xD8}, categories)
	if err != nil {
		t.Fatalf("ClassifyScreen() error: %v", err)
	}
	if result.Category != "Coding" {
		t.Errorf("Category = %q, want Coding", result.Category)
	}
	if result.Reasoning == "" {
		t.Error("expected non-empty reasoning")
	}
	if captured.auth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want bearer token", captured.auth)
	}
	if captured.body["model"] != "test-model" {
		t.Errorf("model = %v, want test-model", captured.body["model"])
	}
	if captured.body["response_format"] == nil {
		t.Error("expected JSON response_format to be requested")
	}

	encoded, _ := json.Marshal(captured.body["messages"])
	if !strings.Contains(string(encoded), "data:image/jpeg;base64,") {
		t.Error("expected image data URI in request messages")
	}
	if !strings.Contains(string(encoded), "Browsing") {
		t.Error("expected category names in prompt")
	}
}

func TestClassifyScreenValidation(t *testing.T) {
	client := NewClient("key")
	categories := []sessionlog.Category{sessionlog.CategoryDistraction}

	if _, err := client.ClassifyScreen(context.Background(), nil, categories); err == nil {
		t.Error("expected error for empty image")
	}
	if _, err := client.ClassifyScreen(context.Background(), []byte{1}, nil); err == nil {
		t.Error("expected error for empty categories")
	}
	noKey := NewClient("")
	if _, err := noKey.ClassifyScreen(context.Background(), []byte{1}, categories); err == nil {
		t.Error("expected error for missing api key")
	}
}

func TestClassifyScreenHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("key", WithBaseURL(server.URL))
	_, err := client.ClassifyScreen(context.Background(), []byte{1}, []sessionlog.Category{"Coding"})
	if err == nil || !strings.Contains(err.Error(), "http 429") {
		t.Fatalf("error = %v, want http 429", err)
	}
}

func TestClassifyScreenAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error": {"message": "model overloaded"}}`))
	}))
	defer server.Close()

	client := NewClient("key", WithBaseURL(server.URL))
	_, err := client.ClassifyScreen(context.Background(), []byte{1}, []sessionlog.Category{"Coding"})
	if err == nil || !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("error = %v, want api error message", err)
	}
}

func TestSummarize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		encoded, _ := json.Marshal(body["messages"])
		if !strings.Contains(string(encoded), "Coding") {
			t.Error("expected log entries in request")
		}
		_, _ = w.Write([]byte(completionBody("You spent most of the session writing code with one short break.")))
	}))
	defer server.Close()

	client := NewClient("key", WithBaseURL(server.URL))
	entries := []sessionlog.Entry{
		sessionlog.NewEntry("Coding", "Editing a Go file.", 30*time.Minute),
		sessionlog.NewEntry(sessionlog.CategoryAway, "", 2*time.Minute),
	}

	summary, err := client.Summarize(context.Background(), entries)
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if !strings.Contains(summary, "writing code") {
		t.Errorf("summary = %q, want model content", summary)
	}
}

func TestSummarizeRequiresEntries(t *testing.T) {
	client := NewClient("key")
	if _, err := client.Summarize(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty log")
	}
}

func TestExtractTextMultimodal(t *testing.T) {
	raw := json.RawMessage(`[{"type": "text", "text": "hello "}, {"type": "text", "text": "world"}]`)
	if got := extractText(raw); got != "hello world" {
		t.Fatalf("extractText() = %q, want 'hello world'", got)
	}
	if got := extractText(json.RawMessage(`"plain"`)); got != "plain" {
		t.Fatalf("extractText() = %q, want 'plain'", got)
	}
}
