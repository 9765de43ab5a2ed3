package navigation

import (
	"sync"

	"github.com/go-drift/navstate/pkg/telemetry"
)

// listenerRegistry keeps action listeners in registration order.
type listenerRegistry[S, A any] struct {
	mu      sync.Mutex
	entries []listenerEntry[S, A]
	nextID  uint64
	metrics *telemetry.Metrics
}

type listenerEntry[S, A any] struct {
	id uint64
	fn Listener[S, A]
}

func (r *listenerRegistry[S, A]) add(fn Listener[S, A]) *Subscription {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.entries = append(r.entries, listenerEntry[S, A]{id: id, fn: fn})
	r.mu.Unlock()
	r.metrics.AddListeners(1)

	return NewSubscription(func() { r.remove(id) })
}

func (r *listenerRegistry[S, A]) remove(id uint64) {
	r.mu.Lock()
	removed := false
	for i, e := range r.entries {
		if e.id == id {
			// Copy instead of shifting in place: snapshots taken by an
			// in-flight notification share the old backing array.
			next := make([]listenerEntry[S, A], 0, len(r.entries)-1)
			next = append(next, r.entries[:i]...)
			r.entries = append(next, r.entries[i+1:]...)
			removed = true
			break
		}
	}
	r.mu.Unlock()
	if removed {
		r.metrics.AddListeners(-1)
	}
}

// snapshot returns the listeners registered right now.
func (r *listenerRegistry[S, A]) snapshot() []listenerEntry[S, A] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[:len(r.entries):len(r.entries)]
}

func (r *listenerRegistry[S, A]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// notify delivers event to a snapshot of the listeners. Listeners added or
// removed during delivery take effect from the next event.
func (r *listenerRegistry[S, A]) notify(event ActionEvent[S, A]) {
	for _, e := range r.snapshot() {
		e.fn(event)
	}
}
