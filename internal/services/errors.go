package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPermission marks capture-handle acquisition failures; fatal to a
	// session start attempt.
	ErrPermission = errors.New("permission error")
	// ErrConfiguration marks missing or invalid collaborator configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrUnavailable marks collaborators that cannot be reached at all
	// (detector sidecar down, storage unreachable).
	ErrUnavailable = errors.New("unavailable")
	// ErrTimeout marks collaborator calls that exceeded their deadline.
	ErrTimeout = errors.New("timeout")
	// ErrTransient marks per-tick failures that the owning loop recovers
	// from by dropping the observation.
	ErrTransient = errors.New("transient failure")
	// ErrValidation marks requests that are malformed or arrive in the
	// wrong session state.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks lookups for sessions that do not exist.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsStartFatal reports whether an error encountered during session
// initialization should abort the start attempt. Transient markers are the
// only recoverable class; everything else rolls the start back.
func IsStartFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrTransient)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
