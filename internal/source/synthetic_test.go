package source_test

import (
	"context"
	"testing"
	"time"

	"hindsight/internal/frame"
	"hindsight/internal/source"
)

func TestSyntheticEmitsFrames(t *testing.T) {
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	src := source.NewSynthetic(context.Background(), source.SyntheticOptions{
		FPS:              100,
		PayloadSize:      64,
		KeyframeInterval: 4,
		Start:            start,
	})
	defer src.Close()

	frames := make([]*frame.Frame, 0, 8)
	timeout := time.After(5 * time.Second)
	for len(frames) < 8 {
		select {
		case f := <-src.Frames():
			if f == nil {
				t.Fatal("channel closed before enough frames arrived")
			}
			frames = append(frames, f)
		case <-timeout:
			t.Fatalf("timed out after %d frames", len(frames))
		}
	}

	interval := time.Second / 100
	for i, f := range frames {
		if len(f.Payload) != 64 {
			t.Fatalf("frame %d payload size = %d, want 64", i, len(f.Payload))
		}
		want := start.Add(time.Duration(i) * interval)
		if !f.Timestamp.Equal(want) {
			t.Fatalf("frame %d timestamp = %v, want %v", i, f.Timestamp, want)
		}
		wantKey := i%4 == 0
		if f.Keyframe != wantKey {
			t.Fatalf("frame %d keyframe = %v, want %v", i, f.Keyframe, wantKey)
		}
	}
}

func TestSyntheticCloseStopsStream(t *testing.T) {
	src := source.NewSynthetic(context.Background(), source.SyntheticOptions{FPS: 100})

	if err := src.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	// Close is idempotent.
	if err := src.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-src.Frames():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("frame channel never closed")
		}
	}
}

func TestSyntheticStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := source.NewSynthetic(ctx, source.SyntheticOptions{FPS: 100})
	defer src.Close()

	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-src.Frames():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("frame channel never closed after cancel")
		}
	}
}
