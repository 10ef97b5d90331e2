package fanout

import (
	"sync"
	"sync/atomic"

	"hindsight/internal/frame"
)

const defaultQueueDepth = 64

// Subscription is one ephemeral fan-out queue. It mirrors every frame
// published between Subscribe and Close, in arrival order. Owned by exactly
// one extraction; not shared.
type Subscription struct {
	registry *Registry
	ch       chan *frame.Frame

	mu     sync.Mutex
	closed bool

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// Frames exposes the receive side of the queue. The channel is closed when
// the subscription is removed; frames queued before removal remain
// drainable.
func (s *Subscription) Frames() <-chan *frame.Frame {
	return s.ch
}

// Close removes the subscription from its registry. Idempotent.
func (s *Subscription) Close() {
	if s == nil || s.registry == nil {
		return
	}
	s.registry.Unsubscribe(s)
}

// Delivered reports how many frames were enqueued over the subscription's
// lifetime.
func (s *Subscription) Delivered() uint64 {
	return s.delivered.Load()
}

// Dropped reports how many frames were discarded because the queue was full.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// deliver enqueues without blocking: the publisher must never stall behind
// one slow subscriber. The mutex serializes against close so a send can
// never hit a closed channel.
func (s *Subscription) deliver(f *frame.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- f:
		s.delivered.Add(1)
	default:
		s.dropped.Add(1)
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
