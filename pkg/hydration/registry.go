// Package hydration tracks the window in which a navigation container renders
// state restored from a persisted snapshot, and counts mounted containers
// that own their own state.
//
// A Registry is shared by every container of one application. Inject a fresh
// Registry per application (or per test) to keep them isolated; containers
// that are not given one use [Default].
package hydration

import (
	"go.uber.org/atomic"
)

// Phase is the state of the hydration machine.
type Phase int32

const (
	// Stable means no restored state is waiting to prove it renders.
	Stable Phase = iota
	// Hydrating means a restored snapshot has been applied and its first
	// render has not completed yet.
	Hydrating
)

func (p Phase) String() string {
	switch p {
	case Hydrating:
		return "hydrating"
	default:
		return "stable"
	}
}

// Registry holds the hydration phase and the stateful container count.
//
// The zero value is ready to use.
type Registry struct {
	phase    atomic.Int32
	owner    atomic.Uint64
	stateful atomic.Int64
	nextID   atomic.Uint64
}

// Default is the process-wide registry.
var Default = NewRegistry()

// NewRegistry returns an isolated registry in the Stable phase.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewOwnerID returns an identifier a container uses to claim the
// Hydrating phase.
func (r *Registry) NewOwnerID() uint64 {
	return r.nextID.Inc()
}

// Phase reports the current phase.
func (r *Registry) Phase() Phase {
	return Phase(r.phase.Load())
}

// Hydrating reports whether the registry is in the Hydrating phase.
func (r *Registry) Hydrating() bool {
	return r.Phase() == Hydrating
}

// Begin enters the Hydrating phase on behalf of owner.
func (r *Registry) Begin(owner uint64) {
	r.owner.Store(owner)
	r.phase.Store(int32(Hydrating))
}

// End leaves the Hydrating phase if owner is the one that entered it.
// It reports whether a transition happened.
func (r *Registry) End(owner uint64) bool {
	if r.owner.Load() != owner {
		return false
	}
	if !r.phase.CompareAndSwap(int32(Hydrating), int32(Stable)) {
		return false
	}
	r.owner.Store(0)
	return true
}

// Recover performs the failure transition Hydrating -> Stable on behalf of
// owner. Only the owner of the current hydration window can recover it, and
// only once: every later call reports false until the next Begin.
func (r *Registry) Recover(owner uint64) bool {
	if r.owner.Load() != owner {
		return false
	}
	if !r.phase.CompareAndSwap(int32(Hydrating), int32(Stable)) {
		return false
	}
	r.owner.Store(0)
	return true
}

// Attach records a mounted stateful container and returns how many were
// already mounted.
func (r *Registry) Attach() int64 {
	return r.stateful.Inc() - 1
}

// Detach records an unmounted stateful container.
func (r *Registry) Detach() {
	r.stateful.Dec()
}

// Stateful reports how many stateful containers are mounted.
func (r *Registry) Stateful() int64 {
	return r.stateful.Load()
}
