package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/eldergrove/eldergrove-server/internal/models"
	"github.com/eldergrove/eldergrove-server/pkg/logger"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 50 * time.Second
	sendBufferSize = 16
)

type client struct {
	conn     *websocket.Conn
	send     chan []byte
	playerID uint
}

// Event is the envelope pushed over the socket.
type Event struct {
	Type    string         `json:"type"`
	Profile models.Profile `json:"profile"`
}

// Hub fans profile updates out to each player's connected sockets. A player
// may hold several connections (multiple devices); each gets every update.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	gate    versionGate
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
	}
}

// PublishProfile pushes the player's profile to their connected sockets.
// Updates carrying a version at or below the last delivered one are dropped,
// so a write that lands late never overwrites fresher state on the client.
func (h *Hub) PublishProfile(player *models.Player) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.gate.observe(player.ID, player.Version) {
		return
	}

	payload, err := json.Marshal(Event{Type: "profile", Profile: player.Profile()})
	if err != nil {
		logger.Error("failed to marshal profile event", "player_id", player.ID, "error", err)
		return
	}

	for c := range h.clients {
		if c.playerID != player.ID {
			continue
		}
		select {
		case c.send <- payload:
		default:
			// slow consumer; drop the connection rather than block the hub
			close(c.send)
			delete(h.clients, c)
		}
	}
}

// ConnectionCount reports the number of open sockets.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// HandleConn services one authenticated websocket until it closes. The
// initial profile snapshot is sent immediately so the client does not have
// to wait for the first write to the player row.
func (h *Hub) HandleConn(conn *websocket.Conn, player *models.Player) {
	c := &client{
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		playerID: player.ID,
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writer()

	if payload, err := json.Marshal(Event{Type: "profile", Profile: player.Profile()}); err == nil {
		h.mu.Lock()
		h.gate.observe(player.ID, player.Version)
		h.mu.Unlock()
		select {
		case c.send <- payload:
		default:
		}
	}

	c.reader(h)
}

func (c *client) reader(h *Hub) {
	defer func() {
		c.conn.Close()
		h.mu.Lock()
		if _, ok := h.clients[c]; ok {
			close(c.send)
			delete(h.clients, c)
		}
		h.mu.Unlock()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// clients only listen; reads exist to notice pongs and closes
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writer() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
