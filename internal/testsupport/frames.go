package testsupport

import (
	"testing"
	"time"

	"hindsight/internal/frame"
)

// FrameSeries builds n frames at the given rate starting from start. Every
// frame carries a small payload and the first frame of each second is marked
// as a keyframe.
func FrameSeries(t testing.TB, start time.Time, n, fps int) []*frame.Frame {
	t.Helper()

	if fps <= 0 {
		t.Fatalf("fps must be positive, got %d", fps)
	}
	interval := time.Second / time.Duration(fps)
	frames := make([]*frame.Frame, 0, n)
	for i := 0; i < n; i++ {
		f := frame.New(start.Add(time.Duration(i)*interval), []byte{0x00, 0x00, 0x00, 0x01, byte(i)}, i%fps == 0)
		f.Sequence = uint64(i + 1)
		frames = append(frames, f)
	}
	return frames
}
