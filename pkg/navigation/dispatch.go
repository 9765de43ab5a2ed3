package navigation

import (
	"context"
	"fmt"

	naverrors "github.com/go-drift/navstate/pkg/errors"
)

// Dispatch applies action and reports whether it changed state.
//
// Controlled containers forward to the parent's handle. Stateful containers
// run the router against the latest state, including a state committed by an
// earlier dispatch that has not rendered yet. Listeners hear about every
// dispatch; the change callback and persistence only run for changes, after
// the new state is visible.
//
// Dispatch panics with *errors.InvariantViolation when a stateful container
// has no state yet.
func (c *Container[S, A]) Dispatch(action A) bool {
	if c.mode == Controlled {
		return c.currentProps().Navigation.Dispatch(action)
	}

	current := c.effectiveState()
	if current == nil {
		panic(&naverrors.InvariantViolation{
			Op:     "navigation.Dispatch",
			Reason: "stateful container has no navigation state",
		})
	}

	next := c.router.GetStateForAction(action, current)
	if next == nil || next == current {
		c.cfg.metrics.ObserveDispatch(false)
		c.listeners.notify(ActionEvent[S, A]{
			Type:      EventAction,
			Action:    action,
			State:     current,
			LastState: current,
		})
		return false
	}

	c.cfg.metrics.ObserveDispatch(true)
	c.commitChange(action, current, next)
	return true
}

// commitChange makes next the pending state, commits it and runs the change
// side effects once it is visible. A change replaces any restored snapshot,
// so its hydration window ends here.
func (c *Container[S, A]) commitChange(action A, prev, next *S) {
	c.endRestore()
	c.setPending(next)
	c.cfg.host.Commit(
		func() { c.setRendered(next) },
		func() {
			c.observeRendered(next)
			c.afterChange(action, prev, next)
		},
	)
}

func (c *Container[S, A]) afterChange(action A, prev, next *S) {
	props := c.currentProps()
	if props.OnNavigationStateChange != nil {
		props.OnNavigationStateChange(prev, next, action)
	} else if c.cfg.debug {
		c.logger.Info("navigation state changed",
			"action", fmt.Sprintf("%+v", action),
			"prev", fmt.Sprintf("%+v", prev),
			"next", fmt.Sprintf("%+v", next))
	}

	c.listeners.notify(ActionEvent[S, A]{
		Type:      EventAction,
		Action:    action,
		State:     next,
		LastState: prev,
	})

	if props.PersistenceKey != "" {
		c.persistAsync(props, next)
	}
}

// persistAsync writes state in the background. Writes are not retried and
// not ordered with respect to each other.
func (c *Container[S, A]) persistAsync(props Props[S, A], state *S) {
	key := props.PersistenceKey
	c.saves.Add(1)
	go func() {
		defer c.saves.Done()
		defer naverrors.Recover("navigation.persist")

		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.persistTimeout)
		defer cancel()
		if err := c.snapshots.Save(ctx, key, state); err != nil {
			c.persistFailed(props, key, err)
		}
	}()
}

func (c *Container[S, A]) persistFailed(props Props[S, A], key string, err error) {
	c.logger.Warn("failed to persist navigation state", "key", key, "error", err)
	if hook := props.OnPersistError; hook != nil {
		c.cfg.scheduler(func() { hook(err) })
		return
	}
	naverrors.Report(&naverrors.NavError{
		Op:   "navigation.persist",
		Kind: naverrors.KindPersistence,
		Key:  key,
		Err:  err,
	})
}

// WaitPersisted blocks until every snapshot write started so far has
// finished.
func (c *Container[S, A]) WaitPersisted() {
	c.saves.Wait()
}
