package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"AutoQFM/logger"
	"AutoQFM/model"

	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
)

// QueueUpdate is the message pushed to connected players whenever a new
// recommendation batch lands, so every open client refreshes its queue
// without polling.
type QueueUpdate struct {
	Type      string               `json:"type"`
	Tracks    []model.Track        `json:"tracks"`
	Source    string               `json:"source"`
	Diversity model.DiversityLevel `json:"diversity"`
	Timestamp int64                `json:"timestamp"`
}

// QueueClient is one connected player.
type QueueClient struct {
	hub  *QueueHub
	conn *websocket.Conn
	send chan []byte
}

// QueueHub fans recommendation batches out to every connected client.
// There is a single topic; clients subscribe by connecting.
type QueueHub struct {
	clients    map[*QueueClient]bool
	register   chan *QueueClient
	unregister chan *QueueClient
	broadcast  chan []byte
	done       chan struct{}
	mu         sync.RWMutex
}

// NewQueueHub creates the hub. Call Run in its own goroutine.
func NewQueueHub() *QueueHub {
	return &QueueHub{
		clients:    make(map[*QueueClient]bool),
		register:   make(chan *QueueClient),
		unregister: make(chan *QueueClient),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

// Run is the hub main loop.
func (h *QueueHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			logger.Debug("queue client connected", logger.Int("clients", count))

		case client := <-h.unregister:
			h.removeClient(client)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow consumer, drop the connection.
					go func(c *QueueClient) { h.unregister <- c }(client)
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				client.conn.Close()
			}
			h.clients = make(map[*QueueClient]bool)
			h.mu.Unlock()
			return
		}
	}
}

// Stop shuts the hub down and closes every connection.
func (h *QueueHub) Stop() {
	close(h.done)
}

// BroadcastQueue pushes a recommendation batch to every connected client.
func (h *QueueHub) BroadcastQueue(resp model.RecommendResponse) {
	update := QueueUpdate{
		Type:      "queue_update",
		Tracks:    resp.Tracks,
		Source:    resp.Source,
		Diversity: resp.Diversity,
		Timestamp: time.Now().UnixMilli(),
	}
	payload, err := json.Marshal(update)
	if err != nil {
		logger.Error("failed to marshal queue update", logger.ErrorField(err))
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		logger.Warn("queue broadcast channel full, dropping update")
	}
}

func (h *QueueHub) removeClient(client *QueueClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		client.conn.Close()
	}
}

// ServeWS upgrades the connection and registers the client.
func (h *QueueHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := &QueueClient{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 16),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// writePump drains the send channel onto the wire and keeps the
// connection alive with pings.
func (c *QueueClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; the socket is push-only. Reading is
// still required to process control frames and detect closes.
func (c *QueueClient) readPump() {
	defer func() {
		c.hub.unregister <- c
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
