package platform

import (
	"context"
	"sync"
	"time"
)

// URLSource delivers URL-open events from the platform.
type URLSource interface {
	// InitialURL returns the URL the app was opened with, or "" if none is
	// outstanding.
	InitialURL(ctx context.Context) (string, error)

	// Listen registers handler for URLs opened while the app is running.
	// The returned function unsubscribes.
	Listen(handler func(url string)) (unsubscribe func())
}

// DeepLink describes an incoming deep link.
type DeepLink struct {
	URL       string
	Source    string
	Timestamp time.Time
}

// LinkHub is an in-process URLSource. Native bridges feed it with Deliver,
// tests and desktop hosts with Open.
type LinkHub struct {
	mu       sync.Mutex
	initial  *DeepLink
	handlers map[uint64]func(string)
	nextID   uint64
	history  []DeepLink
}

// NewLinkHub creates an empty hub.
func NewLinkHub() *LinkHub {
	return &LinkHub{handlers: make(map[uint64]func(string))}
}

// SetInitial records the launch URL returned by InitialURL.
func (h *LinkHub) SetInitial(url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if url == "" {
		h.initial = nil
		return
	}
	h.initial = &DeepLink{URL: url, Source: "launch", Timestamp: time.Now()}
}

// InitialURL implements URLSource.
func (h *LinkHub) InitialURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.initial == nil {
		return "", nil
	}
	return h.initial.URL, nil
}

// Listen implements URLSource.
func (h *LinkHub) Listen(handler func(url string)) func() {
	if handler == nil {
		return func() {}
	}
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.handlers[id] = handler
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.handlers, id)
			h.mu.Unlock()
		})
	}
}

// Open delivers url to every listener.
func (h *LinkHub) Open(url string) {
	h.deliver(DeepLink{URL: url, Source: "open", Timestamp: time.Now()})
}

// Deliver parses a native event payload and delivers it. Payloads that do not
// describe a link are reported as false.
func (h *LinkHub) Deliver(data any) bool {
	link, ok := ParseDeepLink(data)
	if !ok {
		return false
	}
	h.deliver(link)
	return true
}

func (h *LinkHub) deliver(link DeepLink) {
	h.mu.Lock()
	h.history = append(h.history, link)
	handlers := make([]func(string), 0, len(h.handlers))
	for _, fn := range h.handlers {
		handlers = append(handlers, fn)
	}
	h.mu.Unlock()

	for _, fn := range handlers {
		fn(link.URL)
	}
}

// History returns every link delivered so far.
func (h *LinkHub) History() []DeepLink {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]DeepLink(nil), h.history...)
}

// Listeners returns the number of registered handlers.
func (h *LinkHub) Listeners() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handlers)
}

// ParseDeepLink decodes a native deep link payload of the form
// {"url": ..., "source": ..., "timestamp": millis}.
func ParseDeepLink(data any) (DeepLink, bool) {
	m, ok := data.(map[string]any)
	if !ok {
		return DeepLink{}, false
	}
	url := parseDeepLinkString(m["url"])
	if url == "" {
		return DeepLink{}, false
	}
	return DeepLink{
		URL:       url,
		Source:    parseDeepLinkString(m["source"]),
		Timestamp: parseDeepLinkTime(m["timestamp"]),
	}, true
}

func parseDeepLinkString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func parseDeepLinkTime(value any) time.Time {
	var millis int64
	switch v := value.(type) {
	case int64:
		millis = v
	case int:
		millis = int64(v)
	case int32:
		millis = int64(v)
	case float64:
		millis = int64(v)
	case uint64:
		millis = int64(v)
	default:
		return time.Time{}
	}
	return time.UnixMilli(millis)
}
