package devtools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config configures an inspector.
type Config struct {
	// Addr is the listen address used by Start. Defaults to "127.0.0.1:0".
	Addr string
	// Gatherer backs /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	// HistorySize bounds /events/history.
	HistorySize int
	Logger      *slog.Logger
}

// Server is the inspector.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	router   chi.Router
	history  *history
	upgrader websocket.Upgrader

	writeMu sync.Mutex // serializes stream writes

	mu       sync.Mutex
	targets  map[string]Target
	unsubs   []func()
	clients  map[*websocket.Conn]bool
	server   *http.Server
	listener net.Listener
}

// New creates an inspector observing targets.
func New(cfg Config, targets ...Target) *Server {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:0"
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger.With("component", "devtools"),
		history: newHistory(cfg.HistorySize),
		targets: make(map[string]Target),
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The inspector binds to loopback and is used from local tools.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	for _, t := range targets {
		s.Watch(t)
	}
	s.router = s.routes()
	return s
}

// Watch starts observing t. A target with the same name replaces the
// previous one in /state; both keep feeding the event stream.
func (s *Server) Watch(t Target) {
	if t == nil {
		return
	}
	unsub := t.Subscribe(s.publish)
	s.mu.Lock()
	s.targets[t.Name()] = t
	s.unsubs = append(s.unsubs, unsub)
	s.mu.Unlock()
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)
	r.Get("/state", s.handleStates)
	r.Get("/state/{name}", s.handleState)
	r.Get("/events", s.handleEvents)
	r.Get("/events/history", s.handleHistory)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))
	return r
}

// Handler returns the inspector's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on Config.Addr and serves in the background. It returns the
// bound address, which differs from Addr when Addr uses port 0. Calling
// Start on a running server returns its current address.
func (s *Server) Start() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return s.listener.Addr().String(), nil
	}

	// Bind first so port conflicts fail here rather than in the goroutine.
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return "", fmt.Errorf("devtools listen: %w", err)
	}
	server := &http.Server{Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	s.server = server
	s.listener = listener

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.mu.Lock()
			if s.server == server {
				s.server = nil
				s.listener = nil
			}
			s.mu.Unlock()
			s.logger.Error("devtools server stopped", "error", err)
		}
	}()

	s.logger.Info("devtools listening", "addr", listener.Addr().String())
	return listener.Addr().String(), nil
}

// Stop shuts the server down, disconnects stream clients and stops
// observing targets.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	unsubs := s.unsubs
	s.unsubs = nil
	clients := s.clients
	s.clients = make(map[*websocket.Conn]bool)
	s.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	for conn := range clients {
		conn.Close()
	}
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// ClientCount returns the number of connected stream clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleStates(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	statuses := make([]Status, 0, len(s.targets))
	for _, t := range s.targets {
		statuses = append(statuses, t.Status())
	}
	s.mu.Unlock()
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })

	writeJSON(w, struct {
		Containers []Status `json:"containers"`
	}{Containers: statuses})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.mu.Lock()
	t, ok := s.targets[name]
	s.mu.Unlock()
	if !ok {
		http.Error(w, fmt.Sprintf("no container named %q", name), http.StatusNotFound)
		return
	}
	writeJSON(w, t.Status())
}

// handleHistory returns recent events, oldest first. ?limit=N keeps the
// newest N; ?target=name filters by container.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	events := s.history.snapshot()

	if target := r.URL.Query().Get("target"); target != "" {
		filtered := events[:0]
		for _, e := range events {
			if e.Target == target {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	if value := r.URL.Query().Get("limit"); value != "" {
		if limit, err := strconv.Atoi(value); err == nil && limit > 0 && len(events) > limit {
			events = events[len(events)-limit:]
		}
	}

	writeJSON(w, struct {
		Events []Event `json:"events"`
	}{Events: events})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	// Hold the connection until the client goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

// publish records e and sends it to every stream client. Clients that fail
// a write are dropped.
func (s *Server) publish(e Event) {
	s.history.add(e)

	data, err := json.Marshal(e)
	if err != nil {
		s.logger.Debug("dropping unencodable event", "target", e.Target, "error", err)
		return
	}

	s.mu.Lock()
	clients := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		clients = append(clients, conn)
	}
	s.mu.Unlock()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	for _, conn := range clients {
		conn.SetWriteDeadline(time.Now().Add(time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, fmt.Sprintf("json encode error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
