// Package screenllm classifies screen captures and summarizes sessions via
// an OpenAI-compatible chat completions API.
package screenllm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"focusd/internal/sessionlog"
)

const (
	defaultBaseURL     = "https://openrouter.ai/api/v1"
	defaultModel       = "google/gemini-3-flash-preview"
	jsonResponseType   = "json_object"
	defaultHTTPTimeout = 30 * time.Second
)

// Client wraps an OpenAI-style chat completion endpoint for screen
// classification and session summaries.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default API base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithModel overrides the default model identifier.
func WithModel(model string) Option {
	return func(c *Client) {
		model = strings.TrimSpace(model)
		if model != "" {
			c.model = model
		}
	}
}

// NewClient constructs a classification client.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.model == "" {
		client.model = defaultModel
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// Classification is the model's judgment of a single screen capture.
type Classification struct {
	Category  string `json:"type"`
	Reasoning string `json:"reasoning"`
	Raw       string `json:"-"`
}

// ClassifyScreen asks the model to place a JPEG screen capture into one of
// the given activity categories.
func (c *Client) ClassifyScreen(ctx context.Context, image []byte, categories []sessionlog.Category) (Classification, error) {
	var empty Classification
	if len(image) == 0 {
		return empty, errors.New("screenllm classify: image required")
	}
	if strings.TrimSpace(c.apiKey) == "" {
		return empty, errors.New("screenllm classify: api key required")
	}

	names := make([]string, 0, len(categories))
	for _, category := range categories {
		names = append(names, string(category))
	}
	if len(names) == 0 {
		return empty, errors.New("screenllm classify: categories required")
	}

	dataURI := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
	request := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: classificationPrompt(names)},
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: "Classify this screen capture."},
					{Type: "image_url", ImageURL: &imageURL{URL: dataURI}},
				},
			},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": jsonResponseType},
	}

	content, err := c.complete(ctx, "classify", request)
	if err != nil {
		return empty, err
	}

	var parsed Classification
	parsed.Raw = content
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return empty, fmt.Errorf("screenllm classify: parse payload: %w", err)
	}
	parsed.Category = strings.TrimSpace(parsed.Category)
	parsed.Reasoning = strings.TrimSpace(parsed.Reasoning)
	if parsed.Category == "" {
		return empty, errors.New("screenllm classify: empty category")
	}
	return parsed, nil
}

// Summarize produces a short natural-language summary of a session's
// activity log.
func (c *Client) Summarize(ctx context.Context, entries []sessionlog.Entry) (string, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", errors.New("screenllm summarize: api key required")
	}
	if len(entries) == 0 {
		return "", errors.New("screenllm summarize: no activity to summarize")
	}

	encoded, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("screenllm summarize: encode log: %w", err)
	}

	request := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: summaryPrompt},
			{Role: "user", Content: string(encoded)},
		},
		Temperature: 0.3,
	}

	content, err := c.complete(ctx, "summarize", request)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

func (c *Client) complete(ctx context.Context, operation string, request chatCompletionRequest) (string, error) {
	endpoint, err := url.JoinPath(c.baseURL, "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("screenllm %s: build url: %w", operation, err)
	}
	encoded, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("screenllm %s: encode request: %w", operation, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("screenllm %s: request: %w", operation, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("screenllm %s: request failed: %w", operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("screenllm %s: read body: %w", operation, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("screenllm %s: http %d: %s", operation, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("screenllm %s: decode response: %w", operation, err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("screenllm %s: api error: %s", operation, strings.TrimSpace(completion.Error.Message))
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("screenllm %s: empty choices", operation)
	}
	content := extractText(completion.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("screenllm %s: empty content", operation)
	}
	return content, nil
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

// chatMessage content is either a plain string or a slice of contentPart for
// multimodal messages.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// extractText handles both string and multimodal-array response contents.
func extractText(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var parts []contentPart
	if err := json.Unmarshal(raw, &parts); err == nil {
		var builder strings.Builder
		for _, part := range parts {
			builder.WriteString(part.Text)
		}
		return strings.TrimSpace(builder.String())
	}
	return ""
}
