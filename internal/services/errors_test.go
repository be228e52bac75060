package services_test

import (
	"errors"
	"testing"

	"focusd/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("connection refused")
	err := services.Wrap(services.ErrUnavailable, "face-detector", "ping", "sidecar unreachable", base)
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "screen-auditor", "classify", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected ErrTransient default, got %v", err)
	}
}

func TestIsStartFatal(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{services.Wrap(services.ErrTransient, "a", "b", "", nil), false},
		{services.Wrap(services.ErrPermission, "a", "b", "", nil), true},
		{services.Wrap(services.ErrUnavailable, "a", "b", "", nil), true},
		{errors.New("untagged"), true},
	}
	for _, tc := range cases {
		if got := services.IsStartFatal(tc.err); got != tc.want {
			t.Fatalf("IsStartFatal(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
