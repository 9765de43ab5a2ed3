// Package navigation provides the navigation container: the component that
// owns a navigator's state when no parent supplies it.
//
// A navigator brings a [Router], a pair of pure functions that compute the
// next state for an action and map URL paths to actions. The [Container]
// does everything else: it dispatches actions through the router, commits
// new state through the host's rendering hook, notifies listeners, persists
// snapshots, restores them at startup and applies deep links.
//
// # Stateful and Controlled Containers
//
// A container created without a navigation handle owns its state:
//
//	c, err := navigation.New[StackState, StackAction](stackRouter, navigation.Props[StackState, StackAction]{
//	    PersistenceKey: "nav-v1",
//	    URIPrefix:      "myapp://",
//	    OnNavigationStateChange: func(prev, next *StackState, action StackAction) {
//	        analytics.Screen(next.Top())
//	    },
//	}, navigation.WithURLSource(links), navigation.WithBackSource(backs))
//
// A container created with a handle from a parent is a pass-through:
//
//	child, err := navigation.New[StackState, StackAction](stackRouter, navigation.Props[StackState, StackAction]{
//	    Navigation: parent.Navigation(),
//	})
//
// Mixing the two (a handle plus any container prop) is rejected with
// [errors.ConfigurationConflictError].
//
// # Lifecycle
//
// The host calls [Container.Mount] once the container is attached, renders
// whatever [Container.Render] returns, reports render failures through
// [Container.HandleRenderError], and calls [Container.Unmount] when it is
// detached. State commits go through the [Host] hook so that side effects
// (change callback, listeners, persistence) run only after the new state is
// visible.
//
// # Dispatch
//
// [Container.Dispatch] returns whether the action changed state. Several
// dispatches issued before the host renders chain on each other: each one
// starts from the state produced by the previous one, not from the last
// rendered state.
//
// # Persistence and Recovery
//
// With a PersistenceKey, the container starts in a loading state, restores
// the stored snapshot on mount (a malformed snapshot counts as none), applies
// any outstanding deep link on top, and commits the result. Until the host
// confirms a successful render of that state with [Container.DidRender] (or
// a later change replaces it), a render failure reported through
// [Container.HandleRenderError] discards it and starts over from the
// router's init action.
package navigation
