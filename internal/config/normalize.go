package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSession()
	c.normalizeCapture()
	c.normalizeClassifier()
	c.normalizeDetector()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SocketPath) == "" {
		c.Paths.SocketPath = defaultSocketPath
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeSession() {
	c.Session.UserID = strings.TrimSpace(c.Session.UserID)
	if c.Session.UserID == "" {
		if value, ok := os.LookupEnv("FOCUSD_USER"); ok {
			c.Session.UserID = strings.TrimSpace(value)
		}
	}
	if c.Session.AwayThresholdSeconds <= 0 {
		c.Session.AwayThresholdSeconds = defaultAwayThresholdSeconds
	}
	if c.Session.AuditIntervalSeconds <= 0 {
		c.Session.AuditIntervalSeconds = defaultAuditIntervalSeconds
	}
	if c.Session.SyncIntervalSeconds <= 0 {
		c.Session.SyncIntervalSeconds = defaultSyncIntervalSeconds
	}
	if c.Session.SampleIntervalMillis <= 0 {
		c.Session.SampleIntervalMillis = defaultSampleIntervalMillis
	}
	categories := make([]string, 0, len(c.Session.Categories))
	for _, category := range c.Session.Categories {
		if trimmed := strings.TrimSpace(category); trimmed != "" {
			categories = append(categories, trimmed)
		}
	}
	c.Session.Categories = categories
}

func (c *Config) normalizeCapture() {
	if strings.TrimSpace(c.Capture.FFmpegBinary) == "" {
		c.Capture.FFmpegBinary = defaultFFmpegBinary
	}
	c.Capture.WebcamDevice = strings.TrimSpace(c.Capture.WebcamDevice)
	c.Capture.ScreenDisplay = strings.TrimSpace(c.Capture.ScreenDisplay)
	if c.Capture.FrameTimeout <= 0 {
		c.Capture.FrameTimeout = defaultFrameTimeout
	}
	if c.Capture.JPEGQuality <= 0 {
		c.Capture.JPEGQuality = defaultJPEGQuality
	}
	if c.Capture.ScreenScaleWidth <= 0 {
		c.Capture.ScreenScaleWidth = defaultScreenScaleWidth
	}
	if c.Capture.WebcamCaptureWidth <= 0 {
		c.Capture.WebcamCaptureWidth = defaultWebcamCaptureWidth
	}
}

func (c *Config) normalizeClassifier() {
	if c.Classifier.APIKey == "" {
		if value, ok := os.LookupEnv("FOCUSD_CLASSIFIER_API_KEY"); ok {
			c.Classifier.APIKey = value
		}
	}
	c.Classifier.BaseURL = strings.TrimSpace(c.Classifier.BaseURL)
	if c.Classifier.BaseURL == "" {
		c.Classifier.BaseURL = defaultClassifierBaseURL
	}
	c.Classifier.Model = strings.TrimSpace(c.Classifier.Model)
	if c.Classifier.Model == "" {
		c.Classifier.Model = defaultClassifierModel
	}
	if c.Classifier.TimeoutSeconds <= 0 {
		c.Classifier.TimeoutSeconds = defaultClassifierTimeout
	}
}

func (c *Config) normalizeDetector() {
	c.Detector.BaseURL = strings.TrimSpace(c.Detector.BaseURL)
	if c.Detector.BaseURL == "" {
		c.Detector.BaseURL = defaultDetectorBaseURL
	}
	if c.Detector.TimeoutSeconds <= 0 {
		c.Detector.TimeoutSeconds = defaultDetectorTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
