// Package platform defines the event sources a navigation container consumes
// from the host platform (URL-open events, hardware back presses) and the
// UI-thread dispatch hook used to bring background work back onto the UI
// goroutine. In-process implementations are provided for hosts that bridge
// native events themselves and for tests.
package platform

import "sync"

var (
	dispatchMu   sync.RWMutex
	dispatchFunc func(callback func())
)

// Scheduler runs a callback on the UI goroutine.
type Scheduler func(callback func())

// RegisterDispatch sets the dispatch function used to schedule callbacks on the UI thread.
// The host calls this once during initialization. Pass nil to unregister.
func RegisterDispatch(fn func(callback func())) {
	dispatchMu.Lock()
	dispatchFunc = fn
	dispatchMu.Unlock()
}

// Dispatch schedules a callback to run on the UI thread.
// Returns true if the callback was successfully scheduled, false if no dispatch function
// is registered or the callback is nil.
func Dispatch(callback func()) bool {
	dispatchMu.RLock()
	fn := dispatchFunc
	dispatchMu.RUnlock()
	if fn == nil || callback == nil {
		return false
	}
	fn(callback)
	return true
}

// DefaultScheduler schedules through Dispatch and runs the callback inline
// when no dispatch function is registered.
func DefaultScheduler(callback func()) {
	if callback == nil {
		return
	}
	if !Dispatch(callback) {
		callback()
	}
}
