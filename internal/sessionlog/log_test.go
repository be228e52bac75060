package sessionlog_test

import (
	"testing"
	"time"

	"focusd/internal/sessionlog"
)

func TestAppendPreservesOrderAndContents(t *testing.T) {
	log := sessionlog.NewLog()
	want := []sessionlog.Entry{
		sessionlog.NewEntry("Coding", "editor visible", 120*time.Second),
		sessionlog.NewEntry(sessionlog.CategoryAway, "returned after 5s", 5*time.Second),
		sessionlog.NewEntry(sessionlog.CategoryDistraction, "video site", 120*time.Second),
	}
	for _, entry := range want {
		log.Append(entry)
	}

	snapshot := log.Snapshot()
	if len(snapshot) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(snapshot))
	}

	replay := sessionlog.NewLog()
	for _, entry := range snapshot {
		replay.Append(entry)
	}
	replayed := replay.Snapshot()
	for i := range want {
		if replayed[i].ID != want[i].ID ||
			replayed[i].Category != want[i].Category ||
			replayed[i].Reasoning != want[i].Reasoning ||
			replayed[i].Duration != want[i].Duration {
			t.Fatalf("entry %d mismatch after replay: %#v vs %#v", i, replayed[i], want[i])
		}
	}
}

func TestAppendClampsNegativeDuration(t *testing.T) {
	log := sessionlog.NewLog()
	entry := sessionlog.NewEntry("Coding", "clock skew", -3*time.Second)
	appended := log.Append(entry)
	if appended.Duration != 0 {
		t.Fatalf("expected clamped duration 0, got %d", appended.Duration)
	}
}

func TestAppendForcesNonDecreasingTimestamps(t *testing.T) {
	log := sessionlog.NewLog()
	first := sessionlog.NewEntry("Coding", "", time.Minute)
	first.Timestamp = 2000
	log.Append(first)

	late := sessionlog.NewEntry("Reading", "slow classification", time.Minute)
	late.Timestamp = 1000
	appended := log.Append(late)
	if appended.Timestamp != 2000 {
		t.Fatalf("expected timestamp raised to 2000, got %d", appended.Timestamp)
	}
}

func TestSinceReturnsIncrementalEntries(t *testing.T) {
	log := sessionlog.NewLog()
	log.Append(sessionlog.NewEntry("Coding", "", time.Minute))
	marker := log.Len()
	log.Append(sessionlog.NewEntry("Reading", "", time.Minute))
	log.Append(sessionlog.NewEntry("Writing", "", time.Minute))

	since := log.Since(marker)
	if len(since) != 2 {
		t.Fatalf("expected 2 incremental entries, got %d", len(since))
	}
	if since[0].Category != "Reading" || since[1].Category != "Writing" {
		t.Fatalf("unexpected incremental entries: %#v", since)
	}
	if got := log.Since(log.Len()); len(got) != 0 {
		t.Fatalf("expected empty slice past the end, got %d entries", len(got))
	}
}

func TestParseCategoryNormalizesReservedLabels(t *testing.T) {
	cases := []struct {
		raw  string
		want sessionlog.Category
	}{
		{"away", sessionlog.CategoryAway},
		{" AWAY ", sessionlog.CategoryAway},
		{"distraction", sessionlog.CategoryDistraction},
		{"Deep Work", "Deep Work"},
	}
	for _, tc := range cases {
		if got := sessionlog.ParseCategory(tc.raw); got != tc.want {
			t.Fatalf("ParseCategory(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
	if !sessionlog.CategoryAway.IsReserved() || sessionlog.Category("Coding").IsReserved() {
		t.Fatal("reserved category detection incorrect")
	}
}
