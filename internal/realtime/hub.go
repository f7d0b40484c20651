package realtime

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"spendshare/internal/broadcast"
)

// sendBufferSize bounds the per-client outbound queue. A client that cannot
// drain this many events is disconnected rather than blocking the hub.
const sendBufferSize = 64

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// client is one websocket subscriber of the shared topic.
type client struct {
	conn *websocket.Conn
	send chan broadcast.Event
}

// Hub fans every engagement event out to all connected websocket clients.
// All subscribers share one topic; there is no per-post subscription.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
	}
}

// Broadcast queues an event for every connected client. Clients whose send
// buffer is full are dropped; a slow consumer must not stall the rest.
func (h *Hub) Broadcast(event broadcast.Event) {
	h.mu.RLock()
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- event:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		log.Printf("[Hub] dropping slow client")
		h.remove(c)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and registers the connection with the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Hub] upgrade error: %v", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan broadcast.Event, sendBufferSize),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	log.Printf("[Hub] client connected, total=%d", h.ClientCount())

	go h.writePump(c)
	go h.readPump(c)
}

// writePump drains the client's send channel onto the wire.
func (h *Hub) writePump(c *client) {
	for event := range c.send {
		if err := c.conn.WriteJSON(event); err != nil {
			log.Printf("[Hub] write error: %v", err)
			h.remove(c)
			return
		}
	}
	// send channel closed by remove
	c.conn.Close()
}

// readPump discards inbound frames. Clients are subscribers only; reading is
// still required to process close frames and detect dead connections.
func (h *Hub) readPump(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(c)
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	h.mu.Unlock()

	close(c.send)
	c.conn.Close()
	log.Printf("[Hub] client disconnected, total=%d", h.ClientCount())
}
