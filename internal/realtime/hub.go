package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client is one websocket connection subscribed to a set of groups.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	groups []string
	UserID int64
	once   sync.Once
}

// Hub fans messages out to named groups of clients.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{groups: map[string]map[*Client]bool{}}
}

func (h *Hub) join(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, g := range c.groups {
		if h.groups[g] == nil {
			h.groups[g] = map[*Client]bool{}
		}
		h.groups[g][c] = true
	}
}

func (h *Hub) leave(c *Client) {
	h.mu.Lock()
	for _, g := range c.groups {
		delete(h.groups[g], c)
		if len(h.groups[g]) == 0 {
			delete(h.groups, g)
		}
	}
	h.mu.Unlock()
	c.once.Do(func() { close(c.send) })
}

// GroupSize reports how many clients are in group.
func (h *Hub) GroupSize(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

// Broadcast sends payload as JSON to every client of group. Slow clients
// whose buffer is full are skipped for this message.
func (h *Hub) Broadcast(group string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[WS] marshal for %s failed: %v", group, err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.groups[group] {
		select {
		case c.send <- body:
		default:
		}
	}
}

// Send queues payload for a single client. It must only be called from the
// onConnect and onMessage callbacks, which run before the client is released.
func (c *Client) Send(payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	select {
	case c.send <- body:
	default:
	}
}

// MessageHandler is called for every text frame a client sends.
type MessageHandler func(c *Client, msg []byte)

// Attach registers conn in groups and runs its pumps until the connection
// closes. onConnect runs after the client joined; onMessage may be nil.
func (h *Hub) Attach(conn *websocket.Conn, userID int64, groups []string, onConnect func(c *Client), onMessage MessageHandler) {
	c := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), groups: groups, UserID: userID}
	h.join(c)
	if onConnect != nil {
		onConnect(c)
	}
	go c.writePump()
	c.readPump(onMessage)
}

func (c *Client) readPump(onMessage MessageHandler) {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(64 * 1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if onMessage != nil {
			onMessage(c, msg)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Reject closes a freshly upgraded connection with a policy violation.
func Reject(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	conn.Close()
}
