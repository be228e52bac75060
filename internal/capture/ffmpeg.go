package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"focusd/internal/config"
	"focusd/internal/services"
)

type commandRunner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execCommandRunner struct{}

func (execCommandRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return nil, fmt.Errorf("%w: %s", err, detail)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// FFmpegSource grabs single frames by running ffmpeg with a one-frame output.
type FFmpegSource struct {
	name    string
	binary  string
	args    []string
	timeout time.Duration
	run     commandRunner
	now     func() time.Time
}

// NewWebcamSource builds a Source that grabs frames from the configured
// video4linux device.
func NewWebcamSource(cfg *config.Config) *FFmpegSource {
	capture := cfg.Capture
	args := []string{
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-f", "v4l2",
	}
	if capture.WebcamCaptureWidth > 0 {
		height := capture.WebcamCaptureWidth * 3 / 4
		args = append(args, "-video_size",
			strconv.Itoa(capture.WebcamCaptureWidth)+"x"+strconv.Itoa(height))
	}
	args = append(args,
		"-i", capture.WebcamDevice,
		"-frames:v", "1",
		"-q:v", strconv.Itoa(jpegQuality(capture)),
		"-f", "mjpeg", "pipe:1",
	)
	return newFFmpegSource("webcam", cfg, args)
}

// NewScreenSource builds a Source that grabs frames from the configured X11
// display, downscaled for classifier upload.
func NewScreenSource(cfg *config.Config) *FFmpegSource {
	capture := cfg.Capture
	args := []string{
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-f", "x11grab",
		"-i", capture.ScreenDisplay,
		"-frames:v", "1",
	}
	if capture.ScreenScaleWidth > 0 {
		args = append(args, "-vf", "scale="+strconv.Itoa(capture.ScreenScaleWidth)+":-1")
	}
	args = append(args,
		"-q:v", strconv.Itoa(jpegQuality(capture)),
		"-f", "mjpeg", "pipe:1",
	)
	return newFFmpegSource("screen", cfg, args)
}

func newFFmpegSource(name string, cfg *config.Config, args []string) *FFmpegSource {
	timeout := time.Duration(cfg.Capture.FrameTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	binary := strings.TrimSpace(cfg.Capture.FFmpegBinary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegSource{
		name:    name,
		binary:  binary,
		args:    args,
		timeout: timeout,
		run:     execCommandRunner{},
		now:     time.Now,
	}
}

// WithCommandRunner overrides command execution. Used in tests.
func (s *FFmpegSource) WithCommandRunner(r commandRunner) {
	if r != nil {
		s.run = r
	}
}

// Name identifies the source.
func (s *FFmpegSource) Name() string {
	return s.name
}

// Grab runs one ffmpeg invocation and returns the JPEG frame it produced.
func (s *FFmpegSource) Grab(ctx context.Context) (Frame, error) {
	grabCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.run.Output(grabCtx, s.binary, s.args...)
	if err != nil {
		return Frame{}, s.classify(grabCtx, err)
	}
	if len(data) == 0 {
		return Frame{}, services.Wrap(services.ErrTransient, s.name, "grab frame",
			"ffmpeg produced no output", nil)
	}
	return Frame{Data: data, CapturedAt: s.now().UnixMilli()}, nil
}

// classify tags grab failures so session start can distinguish fatal device
// problems from per-tick noise.
func (s *FFmpegSource) classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, s.name, "grab frame",
			"capture exceeded frame timeout", err)
	case errors.Is(err, exec.ErrNotFound):
		return services.Wrap(services.ErrConfiguration, s.name, "grab frame",
			"ffmpeg binary not found", err)
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission denied") || strings.Contains(msg, "not permitted"):
		return services.Wrap(services.ErrPermission, s.name, "grab frame",
			"capture device access denied", err)
	case strings.Contains(msg, "no such file or directory") || strings.Contains(msg, "no such device"):
		return services.Wrap(services.ErrUnavailable, s.name, "grab frame",
			"capture device not present", err)
	case strings.Contains(msg, "device or resource busy"):
		return services.Wrap(services.ErrUnavailable, s.name, "grab frame",
			"capture device busy", err)
	default:
		return services.Wrap(services.ErrTransient, s.name, "grab frame",
			"capture failed", err)
	}
}

func jpegQuality(capture config.Capture) int {
	if capture.JPEGQuality > 0 {
		return capture.JPEGQuality
	}
	return 5
}
