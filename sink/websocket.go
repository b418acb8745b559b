package sink

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/parleykit/parley/core"
	"github.com/parleykit/parley/logging"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Size of a client's send buffer. A client that falls this far behind
	// the broadcast stream is disconnected.
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsClient is one observer connection.
type wsClient struct {
	hub  *WebSocketHub
	conn *websocket.Conn
	send chan []byte
}

// WebSocketHubOptions configures a WebSocketHub.
type WebSocketHubOptions struct {
	// Logger receives connection lifecycle and broadcast diagnostics.
	Logger logging.Logger
	// CheckOrigin overrides the upgrader's origin policy (default: allow all).
	CheckOrigin func(r *http.Request) bool
}

// WebSocketHub broadcasts event envelopes to all connected observers. It
// implements core.EventSink and http.Handler; mount it on any mux and point
// a dashboard or transcript recorder at it.
//
// Slow consumers are disconnected rather than allowed to stall the
// broadcast: each client has a bounded send buffer and an overflowing
// client is dropped.
type WebSocketHub struct {
	logger      logging.Logger
	checkOrigin func(r *http.Request) bool

	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *wsClient
	done       chan struct{}
	closeOnce  sync.Once

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

// NewWebSocketHub creates a hub and starts its broadcast loop.
func NewWebSocketHub(optFns ...func(o *WebSocketHubOptions)) *WebSocketHub {
	opts := WebSocketHubOptions{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	h := &WebSocketHub{
		logger:      opts.Logger,
		checkOrigin: opts.CheckOrigin,
		broadcast:   make(chan []byte, 256),
		register:    make(chan *wsClient),
		unregister:  make(chan *wsClient),
		done:        make(chan struct{}),
		clients:     make(map[*wsClient]struct{}),
	}
	go h.run()
	return h
}

// Publish implements core.EventSink. Events are wrapped in the standard
// envelope and broadcast as JSON. Publication never blocks: if the broadcast
// queue is full the event is dropped.
func (h *WebSocketHub) Publish(ev core.Event) {
	data, err := json.Marshal(core.NewEnvelope(ev))
	if err != nil {
		h.logger.Error("encode event envelope", "type", ev.EventType(), "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		h.logger.Warn("event broadcast queue full, dropping", "type", ev.EventType())
	}
}

// ServeHTTP implements http.Handler, upgrading the request to a WebSocket
// observer connection.
func (h *WebSocketHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	up := upgrader
	if h.checkOrigin != nil {
		up.CheckOrigin = h.checkOrigin
	}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{hub: h, conn: conn, send: make(chan []byte, sendBufferSize)}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}

// ClientCount returns the number of connected observers.
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all observers and stops the broadcast loop.
func (h *WebSocketHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *WebSocketHub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("observer connected", "total", n)

		case client := <-h.unregister:
			h.dropClient(client)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Buffer full; the consumer is too slow.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *WebSocketHub) dropClient(client *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("observer disconnected", "total", n)
}

// readPump discards inbound frames but keeps the read side alive so close
// and pong control frames are processed.
func (c *wsClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
