package source

import (
	"hindsight/internal/frame"
)

// Source supplies encoded frames from an external capture device. The device
// connection itself (discovery, retry, pipeline setup) lives outside this
// process; hindsight trusts the source to deliver monotonically
// non-decreasing timestamps.
type Source interface {
	// Frames returns the stream of captured frames. The channel is closed
	// when the source stops.
	Frames() <-chan *frame.Frame

	// Close stops the source and releases its resources.
	Close() error
}
