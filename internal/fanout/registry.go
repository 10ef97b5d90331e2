package fanout

import (
	"sync"

	"hindsight/internal/frame"
)

// Registry is a concurrency-safe set of ephemeral subscriptions. Every frame
// published while a subscription is registered is delivered to it in arrival
// order with no gaps and no duplicates; that guarantee is what makes the
// "after" half of an extraction window trustworthy.
//
// Registration and removal happen on extraction goroutines while publishing
// happens on the ingest goroutine, so the subscriber set is guarded by a
// mutex and publishing iterates a snapshot.
type Registry struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	closed bool
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a new subscription whose queue holds up to buffer
// frames. buffer <= 0 falls back to a small default.
func (r *Registry) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = defaultQueueDepth
	}
	sub := &Subscription{
		registry: r,
		ch:       make(chan *frame.Frame, buffer),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		sub.close()
		return sub
	}
	r.subs[sub] = struct{}{}
	return sub
}

// Unsubscribe removes the subscription and closes its queue. Frames already
// queued remain drainable by the holder; nothing further is delivered.
// Safe to call more than once and safe on a foreign registry's subscription
// (a no-op there).
func (r *Registry) Unsubscribe(sub *Subscription) {
	if sub == nil || sub.registry != r {
		return
	}
	r.mu.Lock()
	_, present := r.subs[sub]
	delete(r.subs, sub)
	r.mu.Unlock()

	if present {
		sub.close()
	}
}

// Publish delivers the frame to every currently registered subscription.
// A subscription whose queue is full has the frame dropped and its drop
// counter bumped; stalling the ingest path to wait on one slow consumer
// would starve every other subscriber.
func (r *Registry) Publish(f *frame.Frame) {
	if f == nil {
		return
	}
	r.mu.RLock()
	snapshot := make([]*Subscription, 0, len(r.subs))
	for sub := range r.subs {
		snapshot = append(snapshot, sub)
	}
	r.mu.RUnlock()

	for _, sub := range snapshot {
		sub.deliver(f)
	}
}

// Len reports the number of active subscriptions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Close removes and closes every subscription. Subsequent Subscribe calls
// return already-closed subscriptions.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	subs := make([]*Subscription, 0, len(r.subs))
	for sub := range r.subs {
		subs = append(subs, sub)
	}
	r.subs = make(map[*Subscription]struct{})
	r.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}
