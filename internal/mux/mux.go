package mux

import (
	"context"
	"errors"

	"hindsight/internal/frame"
)

// Geometry describes the stream the frames came from. The muxer copies the
// encoded bitstream, so geometry is advisory metadata for the container.
type Geometry struct {
	FPS    int
	Width  int
	Height int
}

// Result is the muxed artifact: either a durable path under the clips
// directory or the raw container bytes, never both.
type Result struct {
	Path   string
	Bytes  []byte
	Frames int
}

// Muxer turns an ordered frame sequence into a playable container artifact.
// Implementations are stateless with respect to calls; concurrent use is
// safe.
type Muxer interface {
	Mux(ctx context.Context, frames []*frame.Frame, geo Geometry, returnBytes bool) (Result, error)
}

var (
	// ErrNoFrames reports an input sequence with no muxable payloads;
	// ffmpeg cannot emit a zero-frame MP4.
	ErrNoFrames = errors.New("no frames to encode")

	// ErrUnavailable reports a missing or unusable encoding backend.
	ErrUnavailable = errors.New("encoding backend unavailable")
)
