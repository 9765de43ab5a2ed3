package navigation

import (
	"net/url"
	"strings"
)

// Router is the contract a navigator supplies to its container.
//
// S is the navigation state type and A the action type. States are handled
// by pointer and never mutated by the container: returning the same pointer
// (or nil) from GetStateForAction means "no change".
//
// All methods must be pure and deterministic.
type Router[S, A any] interface {
	// GetStateForAction returns the state after applying action to prev.
	// prev is nil when the router should build its initial state.
	GetStateForAction(action A, prev *S) *S

	// GetActionForPathAndParams maps a URL path to an action.
	// ok is false when the path is not handled.
	GetActionForPathAndParams(path string, params url.Values) (action A, ok bool)

	// InitAction returns the action that builds initial state.
	InitAction() A

	// BackAction returns the action issued for a hardware back press.
	BackAction() A
}

// DefaultURIPrefix separates a URL's scheme from its navigable path when no
// URIPrefix is configured.
const DefaultURIPrefix = "://"

// Location is a URL resolved into a router path.
type Location struct {
	Path string
	// Params is reserved for query-string extraction and is always empty.
	Params url.Values
}

// ResolveURL splits rawURL on the first occurrence of delimiter and returns
// the remainder as the path. Without the delimiter the whole string is the
// path. An empty path becomes "/".
//
//	ResolveURL("myapp://chat/42", "")            // Path: "chat/42"
//	ResolveURL("https://x.io/app/chat", "x.io/") // Path: "app/chat"
//	ResolveURL("myapp://", "")                   // Path: "/"
func ResolveURL(rawURL, delimiter string) Location {
	if delimiter == "" {
		delimiter = DefaultURIPrefix
	}
	path := rawURL
	if _, after, found := strings.Cut(rawURL, delimiter); found {
		path = after
	}
	if path == "" {
		path = "/"
	}
	return Location{Path: path, Params: url.Values{}}
}

// actionForURL resolves rawURL and asks the router for a matching action.
func actionForURL[S, A any](router Router[S, A], rawURL, delimiter string) (A, bool) {
	loc := ResolveURL(rawURL, delimiter)
	return router.GetActionForPathAndParams(loc.Path, loc.Params)
}
