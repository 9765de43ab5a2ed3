package navigation

import "sync"

// EventAction is the only event name listeners can register for.
const EventAction = "action"

// ActionEvent is delivered to action listeners after every dispatch,
// whether or not it changed state.
type ActionEvent[S, A any] struct {
	// Type is always EventAction.
	Type   string
	Action A
	// State is the state after the action.
	State *S
	// LastState is the state before the action. It is nil for the event
	// emitted when startup completes.
	LastState *S
}

// Listener receives action events.
type Listener[S, A any] func(event ActionEvent[S, A])

// Navigation is the handle a navigator receives from its container.
type Navigation[S, A any] interface {
	// State returns the navigation state this handle was created for.
	State() *S

	// Dispatch applies action and reports whether state changed.
	Dispatch(action A) bool

	// AddListener registers handler for event. Only EventAction is
	// recognized; other names return a Subscription that does nothing.
	AddListener(event string, handler Listener[S, A]) *Subscription
}

// Subscription removes a listener.
type Subscription struct {
	once   sync.Once
	remove func()
}

// NewSubscription wraps remove. remove runs at most once.
func NewSubscription(remove func()) *Subscription {
	return &Subscription{remove: remove}
}

// Remove unregisters the listener. It is safe to call more than once and on
// a nil Subscription.
func (s *Subscription) Remove() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.remove != nil {
			s.remove()
		}
	})
}

// statefulHandle is the memoized handle of a stateful container. A new one
// is created only when the committed state pointer changes.
type statefulHandle[S, A any] struct {
	container *Container[S, A]
	state     *S
}

func (h *statefulHandle[S, A]) State() *S {
	return h.state
}

func (h *statefulHandle[S, A]) Dispatch(action A) bool {
	return h.container.Dispatch(action)
}

func (h *statefulHandle[S, A]) AddListener(event string, handler Listener[S, A]) *Subscription {
	return h.container.AddListener(event, handler)
}
