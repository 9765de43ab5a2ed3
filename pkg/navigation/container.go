package navigation

import (
	"fmt"
	"log/slog"
	"sync"

	naverrors "github.com/go-drift/navstate/pkg/errors"
	"github.com/go-drift/navstate/pkg/persist"
)

// Host is the rendering framework's commit hook. Commit applies update and
// calls after once the new state is visible to rendering. Hosts that render
// asynchronously may defer both calls, but must keep them in order.
//
// after does not mean the state rendered without error. Hosts confirm a
// successful render with [Container.DidRender].
type Host interface {
	Commit(update func(), after func())
}

// SyncHost commits immediately on the calling goroutine.
type SyncHost struct{}

// Commit implements Host.
func (SyncHost) Commit(update, after func()) {
	update()
	if after != nil {
		after()
	}
}

// View is what the host renders for a container.
type View[S, A any] struct {
	// Loading is true while persisted state is being restored.
	Loading bool
	// Placeholder is the RenderLoading result shown while Loading.
	Placeholder any
	// Navigation is the handle for the wrapped component. Nil while Loading.
	Navigation  Navigation[S, A]
	ScreenProps any
}

// Container owns or passes through the navigation state of one navigator.
type Container[S, A any] struct {
	router    Router[S, A]
	mode      Mode
	cfg       config
	logger    *slog.Logger
	snapshots *persist.Manager[S]
	listeners listenerRegistry[S, A]
	owner     uint64

	mu        sync.Mutex
	props     Props[S, A]
	state     *S // last committed state
	pending   *S // committed but not yet observed as rendered
	restoring *S // restored snapshot awaiting its first successful render
	handle    *statefulHandle[S, A]
	mounted   bool
	dead      bool
	epoch     uint64
	disposers []func()

	ready     chan struct{}
	readyOnce sync.Once
	saves     sync.WaitGroup
}

// New creates a container for router.
//
// Props with a Navigation handle produce a Controlled container; combining
// the handle with any container prop fails with
// *errors.ConfigurationConflictError. A Stateful container without a
// PersistenceKey builds its initial state immediately; with a key it stays
// Loading until Mount restores it.
func New[S, A any](router Router[S, A], props Props[S, A], opts ...Option) (*Container[S, A], error) {
	if router == nil {
		return nil, fmt.Errorf("navigation: nil router")
	}
	if err := props.Validate(); err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "navigation")

	c := &Container[S, A]{
		router: router,
		mode:   props.mode(),
		cfg:    cfg,
		logger: logger,
		props:  props,
		ready:  make(chan struct{}),
		snapshots: persist.NewManager[S](cfg.store,
			persist.WithCodec(cfg.codec),
			persist.WithLogger(logger),
			persist.WithMetrics(cfg.metrics)),
	}
	c.listeners.metrics = cfg.metrics

	if c.mode == Controlled {
		c.markReady()
		return c, nil
	}

	c.owner = cfg.registry.NewOwnerID()
	if props.PersistenceKey == "" {
		c.state = router.GetStateForAction(router.InitAction(), nil)
		if c.state == nil {
			return nil, &naverrors.InvariantViolation{
				Op:     "navigation.New",
				Reason: "router returned no state for its init action",
			}
		}
	}
	return c, nil
}

// Update replaces the container's props. The new props are validated the
// same way as in New and may not change the container's mode.
func (c *Container[S, A]) Update(props Props[S, A]) error {
	if err := props.Validate(); err != nil {
		return err
	}
	if props.mode() != c.mode {
		return ErrModeChange
	}
	c.mu.Lock()
	c.props = props
	c.mu.Unlock()
	return nil
}

// Mode reports whether the container owns its state.
func (c *Container[S, A]) Mode() Mode {
	return c.mode
}

// State returns the committed navigation state. It is nil while a stateful
// container is Loading.
func (c *Container[S, A]) State() *S {
	if c.mode == Controlled {
		return c.currentProps().Navigation.State()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Navigation returns the handle for the wrapped component. For stateful
// containers the same handle is returned until the committed state changes.
func (c *Container[S, A]) Navigation() Navigation[S, A] {
	if c.mode == Controlled {
		return c.currentProps().Navigation
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == nil {
		return nil
	}
	if c.handle == nil || c.handle.state != c.state {
		c.handle = &statefulHandle[S, A]{container: c, state: c.state}
	}
	return c.handle
}

// Render returns what the host should render.
func (c *Container[S, A]) Render() View[S, A] {
	props := c.currentProps()
	nav := c.Navigation()
	if nav == nil {
		view := View[S, A]{Loading: true}
		if props.RenderLoading != nil {
			view.Placeholder = props.RenderLoading()
		}
		return view
	}
	return View[S, A]{Navigation: nav, ScreenProps: props.ScreenProps}
}

// DidRender tells the container that rendered is on screen and rendered
// without error. The first DidRender of a restored snapshot ends its
// hydration window; until then a render failure is treated as an
// incompatible snapshot by HandleRenderError.
func (c *Container[S, A]) DidRender(rendered *S) {
	c.observeRendered(rendered)
	c.mu.Lock()
	restored := c.restoring != nil && c.restoring == rendered
	c.mu.Unlock()
	if restored {
		c.endRestore()
	}
}

// AddListener registers handler for action events. Other event names return
// a Subscription that does nothing. Controlled containers register with the
// parent's handle.
func (c *Container[S, A]) AddListener(event string, handler Listener[S, A]) *Subscription {
	if c.mode == Controlled {
		return c.currentProps().Navigation.AddListener(event, handler)
	}
	if event != EventAction || handler == nil {
		return NewSubscription(nil)
	}
	return c.listeners.add(handler)
}

// Ready is closed once startup has finished: the first state is committed
// and visible, startup was abandoned by Unmount, or recovery replaced it.
// It is closed from the start for Controlled containers.
func (c *Container[S, A]) Ready() <-chan struct{} {
	return c.ready
}

// Persistence returns the snapshot manager used by the container.
func (c *Container[S, A]) Persistence() *persist.Manager[S] {
	return c.snapshots
}

func (c *Container[S, A]) currentProps() Props[S, A] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.props
}

// effectiveState is the pending state if one exists, else the committed one.
func (c *Container[S, A]) effectiveState() *S {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		return c.pending
	}
	return c.state
}

func (c *Container[S, A]) setPending(s *S) {
	c.mu.Lock()
	c.pending = s
	c.mu.Unlock()
}

func (c *Container[S, A]) setRendered(s *S) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Container[S, A]) observeRendered(s *S) {
	c.mu.Lock()
	if c.pending != nil && c.pending == s {
		c.pending = nil
	}
	c.mu.Unlock()
}

// endRestore closes the hydration window opened for a restored snapshot.
func (c *Container[S, A]) endRestore() {
	c.mu.Lock()
	c.restoring = nil
	c.mu.Unlock()
	c.cfg.registry.End(c.owner)
}

func (c *Container[S, A]) isDead() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dead
}

func (c *Container[S, A]) markReady() {
	c.readyOnce.Do(func() { close(c.ready) })
}
