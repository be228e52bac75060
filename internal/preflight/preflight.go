// Package preflight verifies the environment focusd depends on: capture
// binaries and devices, the face-detection sidecar, and data directories.
// The CLI status command runs these checks locally so problems surface
// before a session start fails.
package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"focusd/internal/config"
	"focusd/internal/services/facedetect"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes all applicable checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckFFmpeg(cfg.Capture.FFmpegBinary),
		CheckWebcamDevice(cfg.Capture.WebcamDevice),
		CheckDetector(ctx, cfg),
		CheckClassifierKey(cfg),
	}
	return results
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFFmpeg verifies the configured ffmpeg binary resolves on PATH or at
// its absolute location.
func CheckFFmpeg(binary string) Result {
	const name = "ffmpeg"
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s not found (frame capture unavailable)", binary)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckWebcamDevice verifies the capture device node exists and is readable.
// The webcam is optional: sessions can run screen-only.
func CheckWebcamDevice(device string) Result {
	const name = "Webcam"
	device = strings.TrimSpace(device)
	if device == "" {
		return Result{Name: name, Optional: true, Detail: "no device configured"}
	}
	if _, err := os.Stat(device); err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s not present", device)}
		}
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s (error: %v)", device, err)}
	}
	if err := unix.Access(device, unix.R_OK); err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s not readable (add your user to the video group)", device)}
	}
	return Result{Name: name, Passed: true, Optional: true, Detail: device}
}

// CheckDetector verifies the face-detection sidecar answers its health
// endpoint. Optional: presence monitoring degrades without it.
func CheckDetector(ctx context.Context, cfg *config.Config) Result {
	const name = "Face detector"

	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	client := facedetect.NewClient(cfg.Detector.BaseURL,
		facedetect.WithHTTPClient(&http.Client{Timeout: 3 * time.Second}))
	if err := client.Ping(checkCtx); err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s unreachable", cfg.Detector.BaseURL)}
	}
	return Result{Name: name, Passed: true, Optional: true, Detail: cfg.Detector.BaseURL}
}

// CheckClassifierKey verifies an API key is configured for the screen
// classifier. Reachability is not probed here to avoid spending tokens on a
// status call.
func CheckClassifierKey(cfg *config.Config) Result {
	const name = "Classifier"
	if strings.TrimSpace(cfg.Classifier.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing (screen audits will fail)"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("key configured (%s)", cfg.Classifier.Model)}
}
