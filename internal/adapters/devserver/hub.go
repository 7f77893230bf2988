package devserver

import (
	"bufio"
	"net/http"
	"sync"
	"time"

	"go.trai.ch/meister/internal/core/ports"
)

const (
	clientBuffer      = 8
	heartbeatInterval = 30 * time.Second
)

// Hub manages server-sent event clients and broadcasts build hashes to them.
type Hub struct {
	logger  ports.Logger
	metrics ports.Metrics

	mu       sync.RWMutex
	nextID   int
	clients  map[int]*client
	closed   bool
	lastHash string
}

type client struct {
	ch   chan string
	done chan struct{}
}

// NewHub creates an empty hub.
func NewHub(logger ports.Logger, metrics ports.Metrics) *Hub {
	return &Hub{
		logger:  logger,
		metrics: metrics,
		clients: make(map[int]*client),
	}
}

// ServeHTTP streams reload events to one client until it disconnects or the hub shuts down.
// The latest hash is sent on connect so the client has a baseline.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "live reload shutting down", http.StatusServiceUnavailable)
		return
	}
	c := &client{ch: make(chan string, clientBuffer), done: make(chan struct{})}
	id := h.nextID
	h.nextID++
	h.clients[id] = c
	current := h.lastHash
	n := len(h.clients)
	h.mu.Unlock()
	h.metrics.SetLiveReloadClients(n)
	defer h.remove(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	bw := bufio.NewWriter(w)
	send := func(s string) bool {
		if _, err := bw.WriteString(s); err != nil {
			h.logger.Debug("live reload write failed", "error", err.Error())
			return false
		}
		if err := bw.Flush(); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send(": connected\n\n") {
		return
	}
	if current != "" && !send(event(current)) {
		return
	}

	hb := time.NewTicker(heartbeatInterval)
	defer hb.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-c.done:
			return
		case <-hb.C:
			if !send(": ping\n\n") {
				return
			}
		case hash := <-c.ch:
			if !send(event(hash)) {
				return
			}
		}
	}
}

func event(hash string) string {
	return "data: {\"hash\":\"" + hash + "\"}\n\n"
}

func (h *Hub) remove(id int) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
		close(c.done)
	}
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		h.metrics.SetLiveReloadClients(n)
	}
}

// Broadcast sends hash to every client. Empty and repeated hashes are ignored.
// Clients that cannot keep up are dropped.
func (h *Hub) Broadcast(hash string) {
	h.mu.Lock()
	if h.closed || hash == "" || hash == h.lastHash {
		h.mu.Unlock()
		return
	}
	h.lastHash = hash
	ids := make([]int, 0, len(h.clients))
	snapshot := make([]*client, 0, len(h.clients))
	for id, c := range h.clients {
		ids = append(ids, id)
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for i, c := range snapshot {
		select {
		case c.ch <- hash:
		default:
			dropped++
			h.remove(ids[i])
		}
	}
	h.metrics.IncReloadBroadcast()
	h.logger.Debug("live reload broadcast", "hash", hash, "clients", len(snapshot), "dropped", dropped)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown disconnects every client and ignores later broadcasts.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = make(map[int]*client)
	h.mu.Unlock()

	for _, c := range clients {
		close(c.done)
	}
	h.metrics.SetLiveReloadClients(0)
}
