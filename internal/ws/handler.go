package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/playpool/duelserver/internal/game"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 65536
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Orchestrator is the match layer the gateway feeds inbound events to.
type Orchestrator interface {
	Connect(connID string)
	Disconnect(connID string)
	ClaimIdentity(connID, accountID, displayName, token string) error
	JoinQueue(ctx context.Context, connID string, stake int64)
	LeaveQueue(connID string)
	Ready(connID string)
	Shot(connID string, shot game.Shot)
	ShotComplete(connID string, out game.ShotOutcome)
	GameOver(ctx context.Context, connID string, winner game.Slot)
	Forfeit(ctx context.Context, connID string)
}

// Client is one WebSocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	id   string
	send chan []byte
}

// Hub tracks live connections and delivers outbound events to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	orch    Orchestrator
	log     slog.Logger
}

func NewHub(orch Orchestrator, log slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		orch:    orch,
		log:     log,
	}
}

// Message is the envelope for every frame in both directions.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Send queues an event for connID. Events for unknown connections and
// for clients with a full buffer are dropped.
func (h *Hub) Send(connID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Errorf("marshal %s for %s: %v", event, connID, err)
		return
	}
	frame, err := json.Marshal(Message{Type: event, Data: data})
	if err != nil {
		h.log.Errorf("marshal %s envelope for %s: %v", event, connID, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connID]
	if !ok {
		h.log.Debugf("no client %s for %s", connID, event)
		return
	}
	select {
	case c.send <- frame:
	default:
		h.log.Warnf("send buffer full for %s, dropping %s", connID, event)
	}
}

// Close shuts down a connection whose seat moved to a newer one.
func (h *Hub) Close(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	delete(h.clients, connID)
	close(c.send)
	h.log.Infof("closed replaced connection %s", connID)
}

// Connections returns the number of live clients.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and runs the connection until it closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("upgrade error: %v", err)
		return
	}
	c := &Client{
		hub:  h,
		conn: conn,
		id:   uuid.NewString(),
		send: make(chan []byte, sendBuffer),
	}
	h.register(c)

	go c.writePump()
	go c.readPump()
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	h.orch.Connect(c.id)
	h.log.Debugf("client %s connected from %s", c.id, c.conn.RemoteAddr())
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if cur, ok := h.clients[c.id]; ok && cur == c {
		delete(h.clients, c.id)
		close(c.send)
	}
	h.mu.Unlock()
	h.orch.Disconnect(c.id)
	h.log.Debugf("client %s disconnected", c.id)
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
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
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "connection closed"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.log.Debugf("write error for %s: %v", c.id, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.log.Debugf("ping error for %s: %v", c.id, err)
				return
			}
		}
	}
}

// readPump decodes frames and dispatches them in arrival order.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	ctx := context.Background()
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.hub.log.Warnf("unexpected close for %s: %v", c.id, err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.hub.Send(c.id, game.EventError, game.Message{Message: "Malformed message"})
			continue
		}
		c.hub.dispatch(ctx, c.id, msg)
	}
}
