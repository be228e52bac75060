// Package sessionlog defines the append-only activity log that accumulates
// classified time intervals during a focus session.
//
// Entries are immutable once appended: the presence monitor contributes Away
// spans, the screen auditor contributes one categorized entry per audit, and
// the persistence synchronizer reads ordered snapshots for storage writes.
// Categories are open-ended strings so users can define their own labels; a
// small reserved set (Away, Distraction) carries runtime semantics and is
// compared by equality rather than modeled as a closed enum.
package sessionlog
