package devtools

import "sync"

// DefaultHistorySize is the number of events kept when Config.HistorySize
// is zero.
const DefaultHistorySize = 256

// history is a fixed-size ring of recent events.
type history struct {
	mu     sync.RWMutex
	events []Event
	next   int
	full   bool
}

func newHistory(size int) *history {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &history{events: make([]Event, size)}
}

func (h *history) add(e Event) {
	h.mu.Lock()
	h.events[h.next] = e
	h.next = (h.next + 1) % len(h.events)
	if h.next == 0 {
		h.full = true
	}
	h.mu.Unlock()
}

// snapshot returns events oldest first.
func (h *history) snapshot() []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.full {
		return append([]Event(nil), h.events[:h.next]...)
	}
	out := make([]Event, 0, len(h.events))
	out = append(out, h.events[h.next:]...)
	return append(out, h.events[:h.next]...)
}
