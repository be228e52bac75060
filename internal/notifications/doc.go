// Package notifications delivers push notifications about session
// lifecycle events via ntfy. When no topic is configured a noop
// implementation is used so callers never need nil checks.
package notifications
