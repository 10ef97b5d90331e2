package capture

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"hindsight/internal/fanout"
	"hindsight/internal/frame"
	"hindsight/internal/history"
	"hindsight/internal/logging"
	"hindsight/internal/mux"
)

// Request describes one clip extraction trigger.
type Request struct {
	BeforeSeconds int
	AfterSeconds  int
	Title         string
	FPS           int
	FrameWidth    int
	FrameHeight   int

	// ReturnBytes returns the muxed container in memory instead of a
	// durable file path.
	ReturnBytes bool

	// OnWindowClosed, when set, runs once collection finishes and muxing is
	// about to start, with the total frame count.
	OnWindowClosed func(frames int)

	// OnComplete, when set, receives the muxer result after a successful
	// extraction.
	OnComplete func(mux.Result)
}

// Options tunes the windowing protocol.
type Options struct {
	// WaitTimeout bounds each individual wait on the subscription queue.
	WaitTimeout time.Duration
	// GraceMultiplier scales the after-window into a total wait budget:
	// collection fails with ErrTimeout once after_seconds*multiplier has
	// elapsed without the window closing.
	GraceMultiplier float64
	// AllowUnbounded permits before-windows against an unbounded ring,
	// where capacity validation is impossible.
	AllowUnbounded bool
	// QueueDepth is the minimum subscription queue depth. Extractions
	// deepen it to hold their whole after-window so a stalled consumer
	// cannot cause gaps.
	QueueDepth int
}

// Service orchestrates before/after clip extraction against the shared
// frame history. Safe for concurrent use; each extraction owns an isolated
// subscription.
type Service struct {
	ring     *history.Ring
	registry *fanout.Registry
	muxer    mux.Muxer
	opts     Options
	logger   *slog.Logger
}

// NewService constructs a capture service.
func NewService(ring *history.Ring, registry *fanout.Registry, muxer mux.Muxer, opts Options, logger *slog.Logger) *Service {
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = 2 * time.Second
	}
	if opts.GraceMultiplier < 1 {
		opts.GraceMultiplier = 2
	}
	return &Service{
		ring:     ring,
		registry: registry,
		muxer:    muxer,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "capture"),
	}
}

// Capture runs the full extraction protocol: validate, slice history,
// collect the after-window live, mux, and invoke the completion callback.
// It blocks until the window closes or fails. Validation failures happen
// before any subscription is registered; once registered, the subscription
// is released on every exit path.
func (s *Service) Capture(ctx context.Context, req Request) (mux.Result, error) {
	if err := s.validate(req); err != nil {
		return mux.Result{}, err
	}

	// A zero-length before-window still needs a boundary frame.
	want := req.BeforeSeconds * req.FPS
	if want == 0 {
		want = 1
	}
	before := s.ring.Tail(want)
	if len(before) == 0 {
		return mux.Result{}, wrap(ErrInsufficientHistory, "slice history", "buffer is empty, boundary undefined", nil)
	}

	boundary := before[len(before)-1].Timestamp
	afterWindow := time.Duration(req.AfterSeconds) * time.Second

	var after []*frame.Frame
	if afterWindow > 0 {
		var err error
		after, err = s.collectAfter(ctx, req, boundary, afterWindow)
		if err != nil {
			return mux.Result{}, err
		}
	}

	frames := make([]*frame.Frame, 0, len(before)+len(after))
	frames = append(frames, before...)
	frames = append(frames, after...)

	s.logger.Info("window closed",
		logging.String("title", req.Title),
		logging.Int("before_frames", len(before)),
		logging.Int("after_frames", len(after)),
		logging.Duration("after_window", afterWindow),
	)
	if req.OnWindowClosed != nil {
		req.OnWindowClosed(len(frames))
	}

	geo := mux.Geometry{FPS: req.FPS, Width: req.FrameWidth, Height: req.FrameHeight}
	result, err := s.muxer.Mux(ctx, frames, geo, req.ReturnBytes)
	if err != nil {
		if errors.Is(err, mux.ErrUnavailable) {
			return mux.Result{}, wrap(ErrEncodingUnavailable, "mux", "", err)
		}
		return mux.Result{}, wrap(ErrMuxingFailure, "mux", "", err)
	}

	if req.OnComplete != nil {
		req.OnComplete(result)
	}
	return result, nil
}

func (s *Service) validate(req Request) error {
	if req.BeforeSeconds < 0 || req.AfterSeconds < 0 {
		return wrap(ErrInvalidParameter, "validate", "before_seconds and after_seconds must be non-negative", nil)
	}
	if req.FPS <= 0 {
		return wrap(ErrInvalidParameter, "validate", "fps must be positive", nil)
	}

	if s.ring.Unbounded() {
		if req.BeforeSeconds > 0 && !s.opts.AllowUnbounded {
			return wrap(ErrInsufficientHistory, "validate", "ring capacity is unbounded and allow_unbounded is disabled", nil)
		}
		return nil
	}
	if req.BeforeSeconds*req.FPS > s.ring.Capacity() {
		return wrap(ErrInsufficientHistory, "validate", "before window exceeds ring capacity", nil)
	}
	return nil
}

// collectAfter opens a subscription and gathers frames newer than the
// boundary until one lands past boundary+window, the total wait budget runs
// out, or ctx is cancelled. The subscription is always released.
func (s *Service) collectAfter(ctx context.Context, req Request, boundary time.Time, window time.Duration) ([]*frame.Frame, error) {
	depth := s.opts.QueueDepth
	if need := req.AfterSeconds*req.FPS + req.FPS; need > depth {
		depth = need
	}
	sub := s.registry.Subscribe(depth)
	defer sub.Close()

	budget := time.Duration(float64(window) * s.opts.GraceMultiplier)
	if budget < s.opts.WaitTimeout {
		budget = s.opts.WaitTimeout
	}
	deadline := time.NewTimer(budget)
	defer deadline.Stop()

	waitTimer := time.NewTimer(s.opts.WaitTimeout)
	defer waitTimer.Stop()

	var after []*frame.Frame
	for {
		if !waitTimer.Stop() {
			select {
			case <-waitTimer.C:
			default:
			}
		}
		waitTimer.Reset(s.opts.WaitTimeout)

		select {
		case <-ctx.Done():
			return nil, wrap(ErrCancelled, "collect after-window", "", ctx.Err())
		case <-deadline.C:
			return nil, wrap(ErrTimeout, "collect after-window", "wait budget exhausted before window closed", nil)
		case f, ok := <-sub.Frames():
			if !ok {
				return nil, wrap(ErrCancelled, "collect after-window", "subscription closed", nil)
			}
			if !f.Timestamp.After(boundary) {
				// Already captured in the before slice.
				continue
			}
			delta := f.Timestamp.Sub(boundary)
			if delta <= window {
				after = append(after, f)
			}
			// The frame landing on or past the window edge closes it.
			if delta >= window {
				return after, nil
			}
		case <-waitTimer.C:
			// No frame within one wait interval; loop again until the
			// overall budget expires.
		}
	}
}
