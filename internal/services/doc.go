// Package services defines shared utilities consumed by the session runtime
// and the external collaborator clients.
//
// Key responsibilities:
//   - Context helpers that stamp session and user identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures carry a
//     consistent classification (initialization vs transient vs config).
//
// Use these helpers when wiring new collaborators so error handling and
// observability stay uniform across the runtime.
package services
