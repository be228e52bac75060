// Package testsupport provides shared helpers for package tests: temp-dir
// backed configs and pre-opened session stores.
package testsupport

import (
	"path/filepath"
	"testing"

	"focusd/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SocketPath = filepath.Join(base, "focusd.sock")
	cfg.Session.UserID = "test-user"
	cfg.Notifications.NtfyTopic = ""

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// WithUserID sets the session user id on the test config.
func WithUserID(id string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Session.UserID = id
	}
}

// WithCategories overrides the classification categories on the test config.
func WithCategories(categories ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Session.Categories = categories
	}
}

// WithNtfyTopic points notifications at the given topic or server URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Notifications.NtfyTopic = topic
		cfg.Notifications.Sessions = true
		cfg.Notifications.Goals = true
		cfg.Notifications.Errors = true
	}
}
