package platform

import "sync"

// BackSource delivers hardware back-navigation requests.
type BackSource interface {
	// Listen registers handler. The handler reports whether it consumed the
	// request. The returned function unsubscribes.
	Listen(handler func() bool) (unsubscribe func())
}

// BackHub is an in-process BackSource. The most recently registered handler
// is asked first; the request stops at the first handler that consumes it.
type BackHub struct {
	mu       sync.Mutex
	handlers []backEntry
	nextID   uint64
}

type backEntry struct {
	id uint64
	fn func() bool
}

// NewBackHub creates an empty hub.
func NewBackHub() *BackHub {
	return &BackHub{}
}

// Listen implements BackSource.
func (h *BackHub) Listen(handler func() bool) func() {
	if handler == nil {
		return func() {}
	}
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.handlers = append(h.handlers, backEntry{id: id, fn: handler})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			for i, e := range h.handlers {
				if e.id == id {
					h.handlers = append(h.handlers[:i], h.handlers[i+1:]...)
					return
				}
			}
		})
	}
}

// Press delivers a back request. It returns false when no handler consumed
// it, in which case the host should perform its default action (usually
// leaving the app).
func (h *BackHub) Press() bool {
	h.mu.Lock()
	handlers := append([]backEntry(nil), h.handlers...)
	h.mu.Unlock()

	for i := len(handlers) - 1; i >= 0; i-- {
		if handlers[i].fn() {
			return true
		}
	}
	return false
}

// Listeners returns the number of registered handlers.
func (h *BackHub) Listeners() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handlers)
}
