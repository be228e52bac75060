package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateSession() error {
	for name, value := range map[string]int{
		"session.away_threshold_seconds": c.Session.AwayThresholdSeconds,
		"session.audit_interval_seconds": c.Session.AuditIntervalSeconds,
		"session.sync_interval_seconds":  c.Session.SyncIntervalSeconds,
		"session.sample_interval_millis": c.Session.SampleIntervalMillis,
	} {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.Session.AuditIntervalSeconds <= c.Session.AwayThresholdSeconds {
		return errors.New("session.audit_interval_seconds must be greater than session.away_threshold_seconds")
	}
	return nil
}

func (c *Config) validateCapture() error {
	if strings.TrimSpace(c.Capture.FFmpegBinary) == "" {
		return errors.New("capture.ffmpeg_binary must be set")
	}
	if c.Capture.FrameTimeout <= 0 {
		return errors.New("capture.frame_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
