package navigation

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	naverrors "github.com/go-drift/navstate/pkg/errors"
	"github.com/go-drift/navstate/pkg/hydration"
)

type stack struct {
	Routes []string `json:"routes"`
}

func (s *stack) top() string {
	if s == nil || len(s.Routes) == 0 {
		return ""
	}
	return s.Routes[len(s.Routes)-1]
}

type stackAction struct {
	Type  string `json:"type"`
	Route string `json:"route,omitempty"`
}

var (
	actInit = stackAction{Type: "init"}
	actBack = stackAction{Type: "back"}
	actNoop = stackAction{Type: "noop"}
)

func push(route string) stackAction {
	return stackAction{Type: "push", Route: route}
}

// stackRouter is a minimal stack router. "noop" returns nil, pushing the
// current top returns the same state, and back on a single route is a no-op.
type stackRouter struct {
	mu    sync.Mutex
	calls []stackAction
}

func (r *stackRouter) GetStateForAction(a stackAction, prev *stack) *stack {
	r.mu.Lock()
	r.calls = append(r.calls, a)
	r.mu.Unlock()

	switch a.Type {
	case "init":
		if prev != nil {
			return prev
		}
		return &stack{Routes: []string{"home"}}
	case "push":
		if prev.top() == a.Route {
			return prev
		}
		routes := append(append([]string(nil), prev.Routes...), a.Route)
		return &stack{Routes: routes}
	case "back":
		if len(prev.Routes) <= 1 {
			return prev
		}
		return &stack{Routes: append([]string(nil), prev.Routes[:len(prev.Routes)-1]...)}
	default:
		return nil
	}
}

func (r *stackRouter) GetActionForPathAndParams(path string, params url.Values) (stackAction, bool) {
	if route, ok := strings.CutPrefix(path, "screen/"); ok && route != "" {
		return push(route), true
	}
	return stackAction{}, false
}

func (r *stackRouter) InitAction() stackAction { return actInit }
func (r *stackRouter) BackAction() stackAction { return actBack }

func (r *stackRouter) count(actionType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.calls {
		if a.Type == actionType {
			n++
		}
	}
	return n
}

// deferredHost queues commits until flush, like a framework that renders on
// the next frame.
type deferredHost struct {
	mu    sync.Mutex
	queue []func()
}

func (h *deferredHost) Commit(update, after func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queue = append(h.queue, func() {
		update()
		if after != nil {
			after()
		}
	})
}

func (h *deferredHost) flush() {
	for {
		h.mu.Lock()
		if len(h.queue) == 0 {
			h.mu.Unlock()
			return
		}
		next := h.queue[0]
		h.queue = h.queue[1:]
		h.mu.Unlock()
		next()
	}
}

func (h *deferredHost) pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue)
}

// splitHost applies updates immediately and holds the after callbacks until
// settle, like a framework that renders between the two.
type splitHost struct {
	mu     sync.Mutex
	afters []func()
}

func (h *splitHost) Commit(update, after func()) {
	if after != nil {
		h.mu.Lock()
		h.afters = append(h.afters, after)
		h.mu.Unlock()
	}
	update()
}

func (h *splitHost) settle() {
	h.mu.Lock()
	afters := h.afters
	h.afters = nil
	h.mu.Unlock()
	for _, fn := range afters {
		fn()
	}
}

// uiLoop collects scheduled callbacks so a test can run them on its own
// goroutine.
type uiLoop struct {
	ch chan func()
}

func newUILoop() *uiLoop {
	return &uiLoop{ch: make(chan func(), 16)}
}

func (l *uiLoop) schedule(fn func()) {
	l.ch <- fn
}

func (l *uiLoop) runNext(t *testing.T) {
	t.Helper()
	select {
	case fn := <-l.ch:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("no callback was scheduled")
	}
}

type eventRecorder struct {
	mu     sync.Mutex
	events []ActionEvent[stack, stackAction]
}

func (r *eventRecorder) listen(e ActionEvent[stack, stackAction]) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *eventRecorder) all() []ActionEvent[stack, stackAction] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ActionEvent[stack, stackAction](nil), r.events...)
}

type recordingHandler struct {
	mu     sync.Mutex
	errors []*naverrors.NavError
	panics []*naverrors.PanicError
}

func (h *recordingHandler) HandleError(err *naverrors.NavError) {
	h.mu.Lock()
	h.errors = append(h.errors, err)
	h.mu.Unlock()
}

func (h *recordingHandler) HandlePanic(err *naverrors.PanicError) {
	h.mu.Lock()
	h.panics = append(h.panics, err)
	h.mu.Unlock()
}

func (h *recordingHandler) kinds() []naverrors.ErrorKind {
	h.mu.Lock()
	defer h.mu.Unlock()
	kinds := make([]naverrors.ErrorKind, len(h.errors))
	for i, e := range h.errors {
		kinds[i] = e.Kind
	}
	return kinds
}

func captureReports(t *testing.T) *recordingHandler {
	t.Helper()
	h := &recordingHandler{}
	naverrors.SetHandler(h)
	t.Cleanup(func() { naverrors.SetHandler(nil) })
	return h
}

// fakeURLs is a URLSource with a fixed initial URL.
type fakeURLs struct {
	initial string
	err     error

	mu       sync.Mutex
	handlers []func(string)
	removed  int
}

func (f *fakeURLs) InitialURL(ctx context.Context) (string, error) {
	return f.initial, f.err
}

func (f *fakeURLs) Listen(handler func(string)) func() {
	f.mu.Lock()
	f.handlers = append(f.handlers, handler)
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.removed++
		f.mu.Unlock()
	}
}

func (f *fakeURLs) open(rawURL string) {
	f.mu.Lock()
	handlers := append(([]func(string))(nil), f.handlers...)
	f.mu.Unlock()
	for _, h := range handlers {
		h(rawURL)
	}
}

func inline(fn func()) { fn() }

func waitReady[S, A any](t *testing.T, c *Container[S, A]) {
	t.Helper()
	select {
	case <-c.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("startup did not finish")
	}
}

func newTestContainer(t *testing.T, router *stackRouter, props Props[stack, stackAction], opts ...Option) *Container[stack, stackAction] {
	t.Helper()
	base := []Option{WithRegistry(hydration.NewRegistry()), WithScheduler(inline)}
	c, err := New[stack, stackAction](router, props, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func bufferLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
