package sessionlog

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry records one classified interval. Entries are never mutated after
// creation; Duration is in seconds and Timestamp is milliseconds since the
// Unix epoch, captured at log-creation time.
type Entry struct {
	ID        string   `json:"id"`
	Timestamp int64    `json:"timestamp"`
	Category  Category `json:"category"`
	Reasoning string   `json:"reasoning"`
	Duration  int64    `json:"duration"`
}

// NewEntry builds an entry stamped with a fresh identifier and the current
// time. Negative durations are clamped to zero.
func NewEntry(category Category, reasoning string, duration time.Duration) Entry {
	seconds := int64(duration.Round(time.Second) / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	return Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UnixMilli(),
		Category:  category,
		Reasoning: reasoning,
		Duration:  seconds,
	}
}

// Log is the append-only ordered sequence of entries for one session. It is
// safe for concurrent use: the run clock, presence monitor, and screen
// auditor all resolve on independent goroutines.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append adds an entry to the end of the log. Timestamps are forced
// non-decreasing in append order: an entry stamped before the current tail
// (possible when a slow classification resolves after a later presence
// event) inherits the tail's timestamp.
func (l *Log) Append(entry Entry) Entry {
	if entry.Duration < 0 {
		entry.Duration = 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := len(l.entries); n > 0 && entry.Timestamp < l.entries[n-1].Timestamp {
		entry.Timestamp = l.entries[n-1].Timestamp
	}
	l.entries = append(l.entries, entry)
	return entry
}

// Snapshot returns an ordered copy of all entries.
func (l *Log) Snapshot() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cp := make([]Entry, len(l.entries))
	copy(cp, l.entries)
	return cp
}

// Since returns a copy of the entries appended at or after the given marker
// (an index previously obtained from Len). Markers beyond the current length
// yield an empty slice.
func (l *Log) Since(marker int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if marker < 0 {
		marker = 0
	}
	if marker >= len(l.entries) {
		return nil
	}
	cp := make([]Entry, len(l.entries)-marker)
	copy(cp, l.entries[marker:])
	return cp
}

// Len returns the number of entries appended so far.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
