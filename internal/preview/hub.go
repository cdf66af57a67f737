package preview

import (
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/net/websocket"

	"git.home.luguber.info/inful/streamsite/internal/logfields"
	"git.home.luguber.info/inful/streamsite/internal/metrics"
)

// Hub manages websocket clients of the reload endpoint and fans reload
// messages out to them.
type Hub struct {
	mu       sync.RWMutex
	nextID   int
	clients  map[int]*hubClient
	closed   bool
	recorder metrics.Recorder
}

type hubClient struct {
	id   int
	ch   chan string
	done chan struct{}
}

// NewHub returns an empty hub. rec may be nil.
func NewHub(rec metrics.Recorder) *Hub {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Hub{clients: map[int]*hubClient{}, recorder: rec}
}

// Handler returns the websocket endpoint. Pages are served from another
// port than the socket, so any origin is accepted.
func (h *Hub) Handler() http.Handler {
	return websocket.Server{
		Handshake: func(*websocket.Config, *http.Request) error { return nil },
		Handler:   h.serve,
	}
}

func (h *Hub) serve(ws *websocket.Conn) {
	defer func() { _ = ws.Close() }()

	client, ok := h.addClient()
	if !ok {
		return
	}
	defer h.removeClient(client.id)

	// Browsers ping periodically; incoming frames only tell us the peer is
	// still there.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		var msg string
		for {
			if err := websocket.Message.Receive(ws, &msg); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-client.done:
			return
		case <-gone:
			return
		case msg := <-client.ch:
			if err := websocket.Message.Send(ws, msg); err != nil {
				slog.Debug("Reload send failed", logfields.Error(err))
				return
			}
		}
	}
}

func (h *Hub) addClient() (*hubClient, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	c := &hubClient{id: h.nextID, ch: make(chan string, 8), done: make(chan struct{})}
	h.nextID++
	h.clients[c.id] = c
	h.recorder.SetReloadClients(len(h.clients))
	slog.Debug("Reload client connected", logfields.Clients(len(h.clients)))
	return c, true
}

func (h *Hub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
		h.recorder.SetReloadClients(len(h.clients))
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends msg to every client and returns how many were reached.
// Clients whose buffers are full are dropped.
func (h *Hub) Broadcast(msg string) int {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return 0
	}
	snapshot := make([]*hubClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range snapshot {
		select {
		case c.ch <- msg:
			sent++
		default:
			h.removeClient(c.id)
		}
	}
	h.recorder.IncReloadBroadcast()
	slog.Debug("Reload broadcast", logfields.Clients(sent), slog.Int("dropped", len(snapshot)-sent))
	return sent
}

// Shutdown disconnects all clients and rejects new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*hubClient{}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
	h.recorder.SetReloadClients(0)
}
