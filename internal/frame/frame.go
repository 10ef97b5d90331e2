package frame

import "time"

// Frame is one timestamped unit of encoded video flowing through the system.
// A frame is immutable once constructed: the ingestor, ring buffer, and
// subscription fan-out all share the same instance by pointer and never touch
// the payload after creation.
type Frame struct {
	// Timestamp is the capture instant reported by the source. The source
	// guarantees timestamps are monotonically non-decreasing; ordering and
	// window-boundary decisions rely on that.
	Timestamp time.Time

	// Payload holds one compressed H.264 access unit, opaque to everything
	// except the muxer.
	Payload []byte

	// Keyframe marks IDR access units so the muxer can start clips cleanly.
	Keyframe bool

	// Sequence is assigned by the ingestor in arrival order. Zero until the
	// frame passes through the ingest path.
	Sequence uint64
}

// New constructs a frame with the given capture timestamp and payload.
func New(ts time.Time, payload []byte, keyframe bool) *Frame {
	return &Frame{Timestamp: ts, Payload: payload, Keyframe: keyframe}
}

// Size returns the payload length in bytes.
func (f *Frame) Size() int {
	if f == nil {
		return 0
	}
	return len(f.Payload)
}
