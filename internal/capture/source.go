package capture

import "context"

// Frame is one captured image.
type Frame struct {
	// Data holds the JPEG-encoded image bytes.
	Data []byte
	// CapturedAt is the local wall-clock time the grab completed. Consumers
	// deduplicate repeated frames by this timestamp.
	CapturedAt int64
}

// Source produces frames on demand.
type Source interface {
	// Grab captures a single frame. The returned error is tagged with a
	// services sentinel so callers can classify failures.
	Grab(ctx context.Context) (Frame, error)
	// Name identifies the source for logs ("webcam" or "screen").
	Name() string
}
