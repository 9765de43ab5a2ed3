package navigation

import (
	"errors"

	naverrors "github.com/go-drift/navstate/pkg/errors"
)

// Mode is whether a container owns its state.
type Mode int

const (
	// Stateful containers own their navigation state.
	Stateful Mode = iota
	// Controlled containers pass through a parent's navigation handle.
	Controlled
)

func (m Mode) String() string {
	switch m {
	case Stateful:
		return "stateful"
	case Controlled:
		return "controlled"
	default:
		return "unknown"
	}
}

// ErrModeChange is returned by Update when new props would switch a
// container between Stateful and Controlled.
var ErrModeChange = errors.New("navigation: container mode cannot change after construction")

// Props configures a container.
//
// Navigation selects Controlled mode. When it is set, every other field
// except ScreenProps must be left zero.
type Props[S, A any] struct {
	// Navigation is a parent's handle. Setting it makes the container a
	// pass-through.
	Navigation Navigation[S, A]

	// ScreenProps is passed through to the wrapped component unchanged.
	ScreenProps any

	// PersistenceKey enables snapshot persistence under this key.
	PersistenceKey string

	// OnNavigationStateChange is called after every committed state change.
	OnNavigationStateChange func(prev, next *S, action A)

	// URIPrefix separates the app's URL scheme from the navigable path.
	// Empty means DefaultURIPrefix.
	URIPrefix string

	// RenderLoading returns the placeholder shown while persisted state is
	// being restored.
	RenderLoading func() any

	// Detached suppresses the warning about several stateful containers
	// being mounted at once.
	Detached bool

	// DisableURLHandling skips the initial URL and URL-open events.
	DisableURLHandling bool

	// OnPersistError receives snapshot write failures. When nil, failures
	// are reported to the error handler.
	OnPersistError func(err error)
}

// Prop names used in configuration conflict errors, in declaration order.
const (
	propPersistenceKey          = "persistenceKey"
	propOnNavigationStateChange = "onNavigationStateChange"
	propURIPrefix               = "uriPrefix"
	propRenderLoading           = "renderLoadingExperimental"
	propDetached                = "detached"
	propDisableURLHandling      = "disableURLHandling"
	propOnPersistError          = "onPersistError"
)

func (p Props[S, A]) mode() Mode {
	if p.Navigation != nil {
		return Controlled
	}
	return Stateful
}

// conflicts returns the names of container-only props set alongside a
// navigation handle.
func (p Props[S, A]) conflicts() []string {
	if p.Navigation == nil {
		return nil
	}
	var keys []string
	if p.PersistenceKey != "" {
		keys = append(keys, propPersistenceKey)
	}
	if p.OnNavigationStateChange != nil {
		keys = append(keys, propOnNavigationStateChange)
	}
	if p.URIPrefix != "" {
		keys = append(keys, propURIPrefix)
	}
	if p.RenderLoading != nil {
		keys = append(keys, propRenderLoading)
	}
	if p.Detached {
		keys = append(keys, propDetached)
	}
	if p.DisableURLHandling {
		keys = append(keys, propDisableURLHandling)
	}
	if p.OnPersistError != nil {
		keys = append(keys, propOnPersistError)
	}
	return keys
}

// Validate reports a *errors.ConfigurationConflictError when a navigation
// handle is combined with container props.
func (p Props[S, A]) Validate() error {
	if keys := p.conflicts(); len(keys) > 0 {
		return &naverrors.ConfigurationConflictError{Keys: keys}
	}
	return nil
}

func (p Props[S, A]) uriPrefix() string {
	if p.URIPrefix == "" {
		return DefaultURIPrefix
	}
	return p.URIPrefix
}
