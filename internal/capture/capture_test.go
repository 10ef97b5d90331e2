package capture_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"hindsight/internal/capture"
	"hindsight/internal/fanout"
	"hindsight/internal/frame"
	"hindsight/internal/history"
	"hindsight/internal/logging"
	"hindsight/internal/mux"
	"hindsight/internal/testsupport"
)

// fakeMuxer records the frames it was handed and returns a canned result.
type fakeMuxer struct {
	frames []*frame.Frame
	err    error
}

func (m *fakeMuxer) Mux(ctx context.Context, frames []*frame.Frame, geo mux.Geometry, returnBytes bool) (mux.Result, error) {
	m.frames = append([]*frame.Frame(nil), frames...)
	if m.err != nil {
		return mux.Result{}, m.err
	}
	result := mux.Result{Frames: len(frames)}
	if returnBytes {
		result.Bytes = []byte("mp4")
	} else {
		result.Path = "/tmp/clip.mp4"
	}
	return result, nil
}

func newService(t *testing.T, ring *history.Ring, registry *fanout.Registry, muxer mux.Muxer, opts capture.Options) *capture.Service {
	t.Helper()
	if opts.WaitTimeout == 0 {
		opts.WaitTimeout = 250 * time.Millisecond
	}
	if opts.GraceMultiplier == 0 {
		opts.GraceMultiplier = 2
	}
	return capture.NewService(ring, registry, muxer, opts, logging.NewNop())
}

func prefill(t *testing.T, ring *history.Ring, start time.Time, n, fps int) []*frame.Frame {
	t.Helper()
	frames := testsupport.FrameSeries(t, start, n, fps)
	for _, f := range frames {
		ring.Append(f)
	}
	return frames
}

// waitForSubscriber blocks until the extraction has registered its
// subscription so published frames cannot be missed.
func waitForSubscriber(t *testing.T, registry *fanout.Registry) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for registry.Len() == 0 {
		select {
		case <-deadline:
			t.Fatal("extraction never subscribed")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestCaptureBeforeAndAfterWindow(t *testing.T) {
	const fps = 30
	ring := history.NewRing(300)
	registry := fanout.NewRegistry()
	muxer := &fakeMuxer{}
	svc := newService(t, ring, registry, muxer, capture.Options{})

	start := time.Unix(1000, 0)
	before := prefill(t, ring, start, 150, fps)
	boundary := before[len(before)-1].Timestamp

	type outcome struct {
		result mux.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := svc.Capture(context.Background(), capture.Request{
			BeforeSeconds: 5,
			AfterSeconds:  2,
			FPS:           fps,
			FrameWidth:    1920,
			FrameHeight:   1080,
		})
		done <- outcome{result, err}
	}()

	waitForSubscriber(t, registry)

	interval := time.Second / fps
	for i := 1; i <= 61; i++ {
		registry.Publish(frame.New(boundary.Add(time.Duration(i)*interval), []byte{byte(i)}, false))
	}

	out := <-done
	if out.err != nil {
		t.Fatalf("Capture failed: %v", out.err)
	}
	// 5s of history at 30fps plus a 2s after-window.
	if len(muxer.frames) != 210 {
		t.Fatalf("expected 210 frames muxed, got %d", len(muxer.frames))
	}
	if out.result.Frames != 210 {
		t.Fatalf("expected result frame count 210, got %d", out.result.Frames)
	}
	if !muxer.frames[0].Timestamp.Equal(start) {
		t.Fatalf("expected first frame at %v, got %v", start, muxer.frames[0].Timestamp)
	}
	for i := 1; i < len(muxer.frames); i++ {
		if muxer.frames[i].Timestamp.Before(muxer.frames[i-1].Timestamp) {
			t.Fatalf("muxed frames out of order at index %d", i)
		}
	}
	if got := registry.Len(); got != 0 {
		t.Fatalf("expected subscription released, got %d active", got)
	}
}

func TestCaptureZeroBeforeIncludesBoundaryFrame(t *testing.T) {
	const fps = 30
	ring := history.NewRing(64)
	registry := fanout.NewRegistry()
	muxer := &fakeMuxer{}
	svc := newService(t, ring, registry, muxer, capture.Options{})

	prefill(t, ring, time.Unix(2000, 0), 10, fps)

	result, err := svc.Capture(context.Background(), capture.Request{
		BeforeSeconds: 0,
		AfterSeconds:  0,
		FPS:           fps,
	})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if result.Frames != 1 {
		t.Fatalf("expected exactly the boundary frame, got %d", result.Frames)
	}
	if got := registry.Len(); got != 0 {
		t.Fatalf("zero after-window must not leave a subscription, got %d", got)
	}
}

func TestCaptureZeroAfterSkipsCollection(t *testing.T) {
	const fps = 30
	ring := history.NewRing(128)
	registry := fanout.NewRegistry()
	muxer := &fakeMuxer{}
	svc := newService(t, ring, registry, muxer, capture.Options{})

	prefill(t, ring, time.Unix(3000, 0), 90, fps)

	result, err := svc.Capture(context.Background(), capture.Request{
		BeforeSeconds: 2,
		AfterSeconds:  0,
		FPS:           fps,
	})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if result.Frames != 60 {
		t.Fatalf("expected 60 history frames, got %d", result.Frames)
	}
}

func TestCaptureValidatesParameters(t *testing.T) {
	ring := history.NewRing(64)
	registry := fanout.NewRegistry()
	svc := newService(t, ring, registry, &fakeMuxer{}, capture.Options{})

	cases := []struct {
		name string
		req  capture.Request
	}{
		{"negative before", capture.Request{BeforeSeconds: -1, FPS: 30}},
		{"negative after", capture.Request{AfterSeconds: -1, FPS: 30}},
		{"zero fps", capture.Request{BeforeSeconds: 1, FPS: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Capture(context.Background(), tc.req); !errors.Is(err, capture.ErrInvalidParameter) {
				t.Fatalf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestCaptureBeforeWindowExceedingCapacityFails(t *testing.T) {
	ring := history.NewRing(60)
	registry := fanout.NewRegistry()
	svc := newService(t, ring, registry, &fakeMuxer{}, capture.Options{})

	prefill(t, ring, time.Unix(4000, 0), 60, 30)

	_, err := svc.Capture(context.Background(), capture.Request{
		BeforeSeconds: 5,
		AfterSeconds:  1,
		FPS:           30,
	})
	if !errors.Is(err, capture.ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
	if got := registry.Len(); got != 0 {
		t.Fatalf("validation failure must not leave a subscription, got %d", got)
	}
}

func TestCaptureEmptyBufferFails(t *testing.T) {
	ring := history.NewRing(64)
	registry := fanout.NewRegistry()
	svc := newService(t, ring, registry, &fakeMuxer{}, capture.Options{})

	_, err := svc.Capture(context.Background(), capture.Request{BeforeSeconds: 1, FPS: 30})
	if !errors.Is(err, capture.ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory on empty buffer, got %v", err)
	}
}

func TestCaptureUnboundedRingRequiresOptIn(t *testing.T) {
	ring := history.NewRing(0)
	registry := fanout.NewRegistry()
	muxer := &fakeMuxer{}

	svc := newService(t, ring, registry, muxer, capture.Options{})
	prefill(t, ring, time.Unix(5000, 0), 90, 30)

	_, err := svc.Capture(context.Background(), capture.Request{BeforeSeconds: 2, FPS: 30})
	if !errors.Is(err, capture.ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory without opt-in, got %v", err)
	}

	allowed := newService(t, ring, registry, muxer, capture.Options{AllowUnbounded: true})
	result, err := allowed.Capture(context.Background(), capture.Request{BeforeSeconds: 2, FPS: 30})
	if err != nil {
		t.Fatalf("Capture with opt-in failed: %v", err)
	}
	if result.Frames != 60 {
		t.Fatalf("expected 60 frames, got %d", result.Frames)
	}
}

func TestCaptureCancelledDuringCollection(t *testing.T) {
	const fps = 30
	ring := history.NewRing(64)
	registry := fanout.NewRegistry()
	svc := newService(t, ring, registry, &fakeMuxer{}, capture.Options{
		WaitTimeout:     100 * time.Millisecond,
		GraceMultiplier: 10,
	})

	prefill(t, ring, time.Unix(6000, 0), 10, fps)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.Capture(ctx, capture.Request{BeforeSeconds: 0, AfterSeconds: 5, FPS: fps})
		done <- err
	}()

	waitForSubscriber(t, registry)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, capture.ErrCancelled) {
			t.Fatalf("expected ErrCancelled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancellation was not honored within one wait interval")
	}
	if got := registry.Len(); got != 0 {
		t.Fatalf("cancelled extraction must release its subscription, got %d", got)
	}
}

func TestCaptureTimesOutWhenStreamStalls(t *testing.T) {
	const fps = 30
	ring := history.NewRing(64)
	registry := fanout.NewRegistry()
	svc := newService(t, ring, registry, &fakeMuxer{}, capture.Options{
		WaitTimeout:     50 * time.Millisecond,
		GraceMultiplier: 1,
	})

	prefill(t, ring, time.Unix(7000, 0), 10, fps)

	start := time.Now()
	_, err := svc.Capture(context.Background(), capture.Request{BeforeSeconds: 0, AfterSeconds: 1, FPS: fps})
	if !errors.Is(err, capture.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	// Budget is after-window times the grace multiplier.
	if elapsed := time.Since(start); elapsed < 900*time.Millisecond || elapsed > 5*time.Second {
		t.Fatalf("timeout fired outside the expected budget: %v", elapsed)
	}
	if got := registry.Len(); got != 0 {
		t.Fatalf("timed-out extraction must release its subscription, got %d", got)
	}
}

func TestCaptureMapsMuxerErrors(t *testing.T) {
	const fps = 30
	ring := history.NewRing(64)
	registry := fanout.NewRegistry()
	prefillRing := func() *history.Ring {
		prefill(t, ring, time.Unix(8000, 0), 10, fps)
		return ring
	}
	prefillRing()

	unavailable := newService(t, ring, registry, &fakeMuxer{err: mux.ErrUnavailable}, capture.Options{})
	if _, err := unavailable.Capture(context.Background(), capture.Request{FPS: fps}); !errors.Is(err, capture.ErrEncodingUnavailable) {
		t.Fatalf("expected ErrEncodingUnavailable, got %v", err)
	}

	broken := newService(t, ring, registry, &fakeMuxer{err: errors.New("container write failed")}, capture.Options{})
	if _, err := broken.Capture(context.Background(), capture.Request{FPS: fps}); !errors.Is(err, capture.ErrMuxingFailure) {
		t.Fatalf("expected ErrMuxingFailure, got %v", err)
	}
}

func TestCaptureInvokesCompletionCallback(t *testing.T) {
	const fps = 30
	ring := history.NewRing(64)
	registry := fanout.NewRegistry()
	svc := newService(t, ring, registry, &fakeMuxer{}, capture.Options{})

	prefill(t, ring, time.Unix(9000, 0), 30, fps)

	var got mux.Result
	var windowFrames int
	result, err := svc.Capture(context.Background(), capture.Request{
		BeforeSeconds:  1,
		FPS:            fps,
		ReturnBytes:    true,
		OnWindowClosed: func(n int) { windowFrames = n },
		OnComplete:     func(r mux.Result) { got = r },
	})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if windowFrames != result.Frames {
		t.Fatalf("window-closed callback saw %d frames, result has %d", windowFrames, result.Frames)
	}
	if got.Frames != result.Frames {
		t.Fatalf("callback saw %d frames, result has %d", got.Frames, result.Frames)
	}
	if len(got.Bytes) == 0 {
		t.Fatal("expected in-memory artifact bytes in callback")
	}
}
