package testsupport

import (
	"context"
	"testing"

	"focusd/internal/config"
	"focusd/internal/store"
)

// MustOpenStore opens a session store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	s, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

// NewSession creates a stored session for tests using the provided store.
func NewSession(t testing.TB, s *store.Store, userID string) *store.Session {
	t.Helper()

	sess, err := s.Create(context.Background(), store.NewSessionInput{UserID: userID})
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return sess
}
