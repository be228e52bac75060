// Package store persists focus-session documents in SQLite.
//
// The Store manages database connections, schema initialization, and the
// create / partial-update / delete surface the session runtime relies on.
// Each session document carries its activity log as a JSON column: the log is
// an append-only value owned by the runtime, and the synchronizer always
// writes the full current sequence (last-writer-wins, matching the remote
// document-store semantics this models).
//
// Schema changes bump the version in schema.go; existing databases with a
// different version are rejected rather than migrated.
package store
