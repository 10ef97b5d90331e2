package source

import (
	"context"
	"sync"
	"time"

	"hindsight/internal/frame"
)

// Synthetic emits generated frames at a fixed rate. It backs tests and the
// daemon's demo mode when no capture device is wired in.
type Synthetic struct {
	ch     chan *frame.Frame
	cancel context.CancelFunc

	closeOnce sync.Once
	done      chan struct{}
}

// SyntheticOptions controls the generated stream.
type SyntheticOptions struct {
	FPS         int
	PayloadSize int
	// KeyframeInterval inserts a keyframe every n frames; <= 0 marks every
	// frame as a keyframe.
	KeyframeInterval int
	// Start is the timestamp of the first frame; zero means time.Now().
	Start time.Time
}

// NewSynthetic starts a generator producing frames until Close or ctx
// cancellation.
func NewSynthetic(ctx context.Context, opts SyntheticOptions) *Synthetic {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.PayloadSize <= 0 {
		opts.PayloadSize = 512
	}
	start := opts.Start
	if start.IsZero() {
		start = time.Now()
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Synthetic{
		ch:     make(chan *frame.Frame, opts.FPS),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	interval := time.Second / time.Duration(opts.FPS)
	go func() {
		defer close(s.ch)
		defer close(s.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var n int
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ts := start.Add(time.Duration(n) * interval)
				keyframe := opts.KeyframeInterval <= 0 || n%opts.KeyframeInterval == 0
				f := frame.New(ts, make([]byte, opts.PayloadSize), keyframe)
				select {
				case s.ch <- f:
				case <-ctx.Done():
					return
				}
				n++
			}
		}
	}()
	return s
}

// Frames implements Source.
func (s *Synthetic) Frames() <-chan *frame.Frame {
	return s.ch
}

// Close implements Source.
func (s *Synthetic) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
	})
	return nil
}

var _ Source = (*Synthetic)(nil)
