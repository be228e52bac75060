// Package facedetect talks to the local face-detection sidecar over HTTP.
//
// The sidecar loads the detection model once and exposes two endpoints:
// /healthz for readiness and /detect for per-frame inference. Detection runs
// against JPEG frames and returns the number of faces found.
package facedetect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"focusd/internal/services"
)

const (
	defaultBaseURL     = "http://127.0.0.1:8753"
	defaultHTTPTimeout = 5 * time.Second
)

// Client calls the face-detection sidecar.
type Client struct {
	baseURL    string
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

// NewClient constructs a detector client for the given base URL. An empty
// base URL selects the default local sidecar address.
func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// Detection is the sidecar's answer for one frame.
type Detection struct {
	FaceCount int `json:"faceCount"`
}

// Present reports whether at least one face was found.
func (d Detection) Present() bool {
	return d.FaceCount > 0
}

// Ping verifies the sidecar is up and its model is loaded. Session start
// gates on this when webcam monitoring is enabled.
func (c *Client) Ping(ctx context.Context) error {
	endpoint, err := url.JoinPath(c.baseURL, "/healthz")
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "facedetect", "ping", "invalid detector base url", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "facedetect", "ping", "build request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.classifyTransport(ctx, "ping", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrUnavailable, "facedetect", "ping",
			fmt.Sprintf("detector not ready (http %d)", resp.StatusCode), nil)
	}
	return nil
}

// DetectFaces submits a JPEG frame for inference. timestampMillis identifies
// the frame so the sidecar can drop duplicates.
func (c *Client) DetectFaces(ctx context.Context, frame []byte, timestampMillis int64) (Detection, error) {
	var empty Detection
	if len(frame) == 0 {
		return empty, services.Wrap(services.ErrTransient, "facedetect", "detect", "empty frame", nil)
	}

	endpoint, err := url.JoinPath(c.baseURL, "/detect")
	if err != nil {
		return empty, services.Wrap(services.ErrConfiguration, "facedetect", "detect", "invalid detector base url", err)
	}

	request := detectRequest{
		Image:     frame,
		Timestamp: timestampMillis,
	}
	encoded, err := json.Marshal(request)
	if err != nil {
		return empty, services.Wrap(services.ErrTransient, "facedetect", "detect", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return empty, services.Wrap(services.ErrConfiguration, "facedetect", "detect", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return empty, c.classifyTransport(ctx, "detect", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, services.Wrap(services.ErrTransient, "facedetect", "detect", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return empty, services.Wrap(services.ErrTransient, "facedetect", "detect",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var detection Detection
	if err := json.Unmarshal(body, &detection); err != nil {
		return empty, services.Wrap(services.ErrTransient, "facedetect", "detect", "decode response", err)
	}
	if detection.FaceCount < 0 {
		detection.FaceCount = 0
	}
	return detection, nil
}

// detectRequest carries the frame as base64 (encoding/json encodes []byte
// that way) plus its capture timestamp.
type detectRequest struct {
	Image     []byte `json:"image"`
	Timestamp int64  `json:"timestamp"`
}

func (c *Client) classifyTransport(ctx context.Context, operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "facedetect", operation, "detector request timed out", err)
	}
	return services.Wrap(services.ErrUnavailable, "facedetect", operation, "detector unreachable", err)
}
