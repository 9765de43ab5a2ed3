package navigation

import (
	"context"

	naverrors "github.com/go-drift/navstate/pkg/errors"
	"github.com/go-drift/navstate/pkg/telemetry"
)

const multipleContainersWarning = "more than one stateful navigation container is mounted. " +
	"Render one navigator explicitly and nest the others inside it; " +
	"set Detached on containers that are intentionally independent"

// Mount attaches a stateful container: it subscribes to URL and back events
// and starts restoring state in the background. Ready is closed when the
// first state is visible. Mount does nothing for Controlled containers or
// when called twice.
//
// ctx bounds the snapshot load and initial URL query.
func (c *Container[S, A]) Mount(ctx context.Context) {
	if c.mode == Controlled {
		return
	}
	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		return
	}
	c.mounted = true
	props := c.props
	c.mu.Unlock()

	if prior := c.cfg.registry.Attach(); prior > 0 && !props.Detached {
		c.logger.Warn(multipleContainersWarning, "mounted", prior+1)
	}
	c.cfg.metrics.SetStatefulContainers(c.cfg.registry.Stateful())

	if c.cfg.urls != nil && !props.DisableURLHandling {
		c.addDisposer(c.cfg.urls.Listen(c.handleOpenURL))
	}
	if c.cfg.backs != nil {
		c.addDisposer(c.cfg.backs.Listen(c.handleBack))
	}

	go c.bootstrap(ctx, props)
}

// Unmount detaches the container. Startup work still in flight is dropped,
// event subscriptions are removed in reverse order and any hydration window
// this container opened is closed.
func (c *Container[S, A]) Unmount() {
	if c.mode == Controlled {
		return
	}
	c.mu.Lock()
	if !c.mounted || c.dead {
		c.mu.Unlock()
		return
	}
	c.dead = true
	disposers := c.disposers
	c.disposers = nil
	c.mu.Unlock()

	for i := len(disposers) - 1; i >= 0; i-- {
		disposers[i]()
	}
	c.endRestore()
	c.cfg.registry.Detach()
	c.cfg.metrics.SetStatefulContainers(c.cfg.registry.Stateful())
	c.markReady()
}

func (c *Container[S, A]) addDisposer(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.disposers = append(c.disposers, fn)
	c.mu.Unlock()
}

// startup is the outcome of the background half of Mount.
type startup[S, A any] struct {
	action    A
	candidate *S
	hydrated  bool
	source    string
}

func (c *Container[S, A]) bootstrap(ctx context.Context, props Props[S, A]) {
	scheduled := false
	defer func() {
		if !scheduled {
			c.markReady()
		}
	}()
	defer naverrors.Recover("navigation.bootstrap")

	ctx, span := telemetry.StartSpan(ctx, "navigation.Startup",
		telemetry.AttrPersistenceKey.String(props.PersistenceKey))

	result := startup[S, A]{action: c.router.InitAction(), source: telemetry.SourceFresh}
	if props.PersistenceKey != "" {
		if snapshot, ok := c.snapshots.Load(ctx, props.PersistenceKey); ok {
			result.candidate = snapshot
			result.hydrated = true
			result.source = telemetry.SourcePersisted
		}
	}
	if result.candidate == nil {
		result.candidate = c.effectiveState()
	}
	if result.candidate == nil {
		result.candidate = c.router.GetStateForAction(result.action, nil)
	}

	var urlErr error
	if c.cfg.urls != nil && !props.DisableURLHandling {
		rawURL, err := c.cfg.urls.InitialURL(ctx)
		switch {
		case err != nil:
			urlErr = err
			naverrors.Report(&naverrors.NavError{
				Op:   "navigation.InitialURL",
				Kind: naverrors.KindLinking,
				Err:  err,
			})
		case rawURL != "":
			span.SetAttributes(telemetry.AttrURL.String(rawURL))
			if action, ok := actionForURL(c.router, rawURL, props.uriPrefix()); ok {
				if next := c.router.GetStateForAction(action, result.candidate); next != nil {
					result.candidate = next
				}
				result.action = action
				result.source = telemetry.SourceURL
			}
		}
	}
	span.SetAttributes(telemetry.AttrStartupSource.String(result.source))
	telemetry.EndSpan(span, urlErr)

	scheduled = true
	c.cfg.scheduler(func() { c.finishStartup(result) })
}

// finishStartup runs on the UI goroutine and commits the startup candidate.
func (c *Container[S, A]) finishStartup(result startup[S, A]) {
	c.mu.Lock()
	if c.dead {
		c.mu.Unlock()
		c.markReady()
		return
	}
	current := c.pending
	if current == nil {
		current = c.state
	}
	epoch := c.epoch
	c.mu.Unlock()

	c.cfg.metrics.ObserveStartup(result.source)

	candidate := result.candidate
	if candidate == nil || candidate == current {
		if current != nil {
			c.listeners.notify(ActionEvent[S, A]{Type: EventAction, Action: result.action, State: current})
		} else {
			c.logger.Error("router returned no state for its init action")
		}
		c.markReady()
		return
	}

	if result.hydrated {
		c.mu.Lock()
		c.restoring = candidate
		c.mu.Unlock()
		c.cfg.registry.Begin(c.owner)
	}
	c.setPending(candidate)
	c.cfg.host.Commit(
		func() { c.setRendered(candidate) },
		func() {
			c.observeRendered(candidate)
			c.mu.Lock()
			replaced := c.epoch != epoch
			c.mu.Unlock()
			if !replaced {
				c.listeners.notify(ActionEvent[S, A]{Type: EventAction, Action: result.action, State: candidate})
			}
			c.markReady()
		},
	)
}

// handleOpenURL dispatches the action a URL-open event resolves to.
// Unresolvable URLs are ignored.
func (c *Container[S, A]) handleOpenURL(rawURL string) {
	c.cfg.scheduler(func() {
		if c.isDead() || c.effectiveState() == nil {
			return
		}
		props := c.currentProps()
		if props.DisableURLHandling {
			return
		}
		action, ok := actionForURL(c.router, rawURL, props.uriPrefix())
		if !ok {
			c.logger.Debug("ignoring unresolved URL", "url", rawURL)
			return
		}
		c.Dispatch(action)
	})
}

// handleBack dispatches the router's back action and reports whether it
// changed state.
func (c *Container[S, A]) handleBack() bool {
	if c.isDead() || c.effectiveState() == nil {
		return false
	}
	return c.Dispatch(c.router.BackAction())
}
