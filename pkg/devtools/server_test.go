package devtools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/go-drift/navstate/pkg/hydration"
	"github.com/go-drift/navstate/pkg/navigation"
	"github.com/go-drift/navstate/pkg/telemetry"
)

type tabs struct {
	Active string `json:"active"`
}

type selectTab struct {
	Tab string `json:"tab"`
}

type tabRouter struct{}

func (tabRouter) GetStateForAction(a selectTab, prev *tabs) *tabs {
	if a.Tab == "" {
		if prev != nil {
			return prev
		}
		return &tabs{Active: "feed"}
	}
	if prev != nil && prev.Active == a.Tab {
		return prev
	}
	return &tabs{Active: a.Tab}
}

func (tabRouter) GetActionForPathAndParams(path string, params url.Values) (selectTab, bool) {
	return selectTab{Tab: path}, path != "/"
}

func (tabRouter) InitAction() selectTab { return selectTab{} }
func (tabRouter) BackAction() selectTab { return selectTab{} }

func newTabs(t *testing.T) *navigation.Container[tabs, selectTab] {
	t.Helper()
	c, err := navigation.New[tabs, selectTab](tabRouter{}, navigation.Props[tabs, selectTab]{},
		navigation.WithRegistry(hydration.NewRegistry()))
	if err != nil {
		t.Fatalf("navigation.New: %v", err)
	}
	return c
}

func getJSON(t *testing.T, h http.Handler, path string, v any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if rec.Code == http.StatusOK && v != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return rec.Code
}

func TestHealth(t *testing.T) {
	s := New(Config{})
	var body map[string]string
	if code := getJSON(t, s.Handler(), "/health", &body); code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("/health = %d %v", code, body)
	}
}

func TestStateEndpoints(t *testing.T) {
	c := newTabs(t)
	s := New(Config{}, Watch("root", c))
	c.Dispatch(selectTab{Tab: "inbox"})

	var all struct {
		Containers []struct {
			Name    string `json:"name"`
			Mode    string `json:"mode"`
			Loading bool   `json:"loading"`
			State   tabs   `json:"state"`
		} `json:"containers"`
	}
	if code := getJSON(t, s.Handler(), "/state", &all); code != http.StatusOK {
		t.Fatalf("/state = %d", code)
	}
	if len(all.Containers) != 1 {
		t.Fatalf("got %d containers, want 1", len(all.Containers))
	}
	got := all.Containers[0]
	if got.Name != "root" || got.Mode != "stateful" || got.Loading || got.State.Active != "inbox" {
		t.Errorf("container = %+v", got)
	}

	if code := getJSON(t, s.Handler(), "/state/root", nil); code != http.StatusOK {
		t.Errorf("/state/root = %d", code)
	}
	if code := getJSON(t, s.Handler(), "/state/missing", nil); code != http.StatusNotFound {
		t.Errorf("/state/missing = %d, want 404", code)
	}
}

func TestHistory(t *testing.T) {
	c := newTabs(t)
	s := New(Config{HistorySize: 2}, Watch("root", c))

	c.Dispatch(selectTab{Tab: "a"})
	c.Dispatch(selectTab{Tab: "a"})
	c.Dispatch(selectTab{Tab: "b"})

	var resp struct {
		Events []struct {
			Target  string    `json:"target"`
			Action  selectTab `json:"action"`
			Changed bool      `json:"changed"`
		} `json:"events"`
	}
	if code := getJSON(t, s.Handler(), "/events/history", &resp); code != http.StatusOK {
		t.Fatalf("/events/history = %d", code)
	}
	if len(resp.Events) != 2 {
		t.Fatalf("got %d events, want the 2 newest", len(resp.Events))
	}
	if resp.Events[0].Changed || !resp.Events[1].Changed || resp.Events[1].Action.Tab != "b" {
		t.Errorf("events = %+v", resp.Events)
	}

	if getJSON(t, s.Handler(), "/events/history?limit=1", &resp); len(resp.Events) != 1 || resp.Events[0].Action.Tab != "b" {
		t.Errorf("limit=1 events = %+v", resp.Events)
	}
	if getJSON(t, s.Handler(), "/events/history?target=other", &resp); len(resp.Events) != 0 {
		t.Errorf("target filter returned %+v", resp.Events)
	}
}

func TestHistoryRing(t *testing.T) {
	h := newHistory(3)
	for i := 0; i < 5; i++ {
		h.add(Event{Target: string(rune('a' + i))})
	}
	got := h.snapshot()
	if len(got) != 3 || got[0].Target != "c" || got[2].Target != "e" {
		t.Errorf("snapshot = %+v, want c d e", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(telemetry.WithRegistry(reg))
	c, err := navigation.New[tabs, selectTab](tabRouter{}, navigation.Props[tabs, selectTab]{},
		navigation.WithRegistry(hydration.NewRegistry()), navigation.WithMetrics(metrics))
	if err != nil {
		t.Fatal(err)
	}
	s := New(Config{Gatherer: reg}, Watch("root", c))
	c.Dispatch(selectTab{Tab: "inbox"})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `navstate_dispatches_total{outcome="changed"} 1`) {
		t.Errorf("metrics output missing dispatch counter:\n%s", rec.Body.String())
	}
}

func TestEventStream(t *testing.T) {
	c := newTabs(t)
	s := New(Config{}, Watch("root", c))
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/events", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("stream client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	c.Dispatch(selectTab{Tab: "inbox"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event struct {
		Target    string    `json:"target"`
		Action    selectTab `json:"action"`
		State     tabs      `json:"state"`
		LastState tabs      `json:"lastState"`
		Changed   bool      `json:"changed"`
	}
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.Target != "root" || event.Action.Tab != "inbox" || event.State.Active != "inbox" ||
		event.LastState.Active != "feed" || !event.Changed {
		t.Errorf("event = %+v", event)
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if s.ClientCount() != 0 {
		t.Error("Stop should disconnect stream clients")
	}
}

func TestStartStop(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"})
	addr, err := s.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if again, _ := s.Start(); again != addr {
		t.Errorf("second Start = %q, want %q", again, addr)
	}

	resp, err := http.Get("http://" + addr + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Errorf("Stop: %v", err)
	}
}
