package history

import (
	"sync"

	"hindsight/internal/frame"
)

// Ring is a bounded FIFO of frames with oldest-eviction. A capacity of zero
// means unbounded: the ring grows without evicting.
//
// Bounded rings use a fixed backing slice with a moving head index so that
// appends stay constant-time at steady state. The ingestor is the sole
// writer; readers may slice concurrently. All methods are safe for
// concurrent use.
type Ring struct {
	mu       sync.RWMutex
	frames   []*frame.Frame
	capacity int
	head     int
	count    int
}

// NewRing constructs a ring holding at most capacity frames. capacity <= 0
// yields an unbounded ring.
func NewRing(capacity int) *Ring {
	if capacity < 0 {
		capacity = 0
	}
	r := &Ring{capacity: capacity}
	if capacity > 0 {
		r.frames = make([]*frame.Frame, capacity)
	}
	return r
}

// at returns the i-th oldest buffered frame. Callers hold r.mu.
func (r *Ring) at(i int) *frame.Frame {
	if r.capacity == 0 {
		return r.frames[i]
	}
	return r.frames[(r.head+i)%r.capacity]
}

// Append stores the frame, evicting the oldest entry when at capacity.
// It never fails.
func (r *Ring) Append(f *frame.Frame) {
	if f == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.capacity == 0 {
		r.frames = append(r.frames, f)
		r.count++
		return
	}
	if r.count == r.capacity {
		r.frames[r.head] = f
		r.head = (r.head + 1) % r.capacity
		return
	}
	r.frames[(r.head+r.count)%r.capacity] = f
	r.count++
}

// Slice returns frames in [start, end) relative to the current buffer order.
// A negative end means open-ended. Out-of-range bounds clamp rather than
// error: an empty result stands in for any unsatisfiable range.
func (r *Ring) Slice(start, end int) []*frame.Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if start < 0 {
		start = 0
	}
	if end < 0 || end > r.count {
		end = r.count
	}
	if start >= end {
		return nil
	}
	out := make([]*frame.Frame, end-start)
	for i := range out {
		out[i] = r.at(start + i)
	}
	return out
}

// Tail returns the most recent n frames in arrival order. Fewer are returned
// when the ring holds fewer.
func (r *Ring) Tail(n int) []*frame.Frame {
	if n <= 0 {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	start := r.count - n
	if start < 0 {
		start = 0
	}
	out := make([]*frame.Frame, r.count-start)
	for i := range out {
		out[i] = r.at(start + i)
	}
	return out
}

// Len reports the number of buffered frames.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Capacity reports the configured capacity; zero means unbounded.
func (r *Ring) Capacity() int {
	return r.capacity
}

// Unbounded reports whether the ring grows without eviction.
func (r *Ring) Unbounded() bool {
	return r.capacity == 0
}
