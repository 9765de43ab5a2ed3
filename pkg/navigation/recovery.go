package navigation

import (
	naverrors "github.com/go-drift/navstate/pkg/errors"
)

// HandleRenderError is the host's error boundary for the wrapped component.
//
// While this container is rendering a state restored from a snapshot, a
// render failure means the snapshot no longer fits the router. The snapshot
// is discarded, the router's init state is committed in its place and nil is
// returned. This happens at most once per restore. Any other failure is
// returned unchanged for the host to propagate.
func (c *Container[S, A]) HandleRenderError(err error) error {
	if c.mode != Stateful || !c.cfg.registry.Recover(c.owner) {
		return err
	}

	props := c.currentProps()
	c.logger.Warn("discarding restored navigation state after render failure",
		"key", props.PersistenceKey, "error", err)
	c.cfg.metrics.ObserveRecovery()
	naverrors.Report(&naverrors.NavError{
		Op:   "navigation.HandleRenderError",
		Kind: naverrors.KindHydration,
		Key:  props.PersistenceKey,
		Err:  err,
	})

	c.mu.Lock()
	c.epoch++
	bad := c.pending
	if bad == nil {
		bad = c.state
	}
	c.mu.Unlock()

	action := c.router.InitAction()
	fresh := c.router.GetStateForAction(action, nil)
	if fresh == nil {
		c.markReady()
		return err
	}
	c.commitChange(action, bad, fresh)
	c.markReady()
	return nil
}
