package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"recanto_verde_backend/internal/models"
	"recanto_verde_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	// DefaultSendBuffer is the per-connection queue length used when none is configured.
	DefaultSendBuffer = 32
)

// Client is one websocket connection in a role room.
type Client struct {
	ID     string
	UserID int64
	Role   string

	conn *websocket.Conn
	send chan []byte
}

// Hub owns the rooms. Only the Run goroutine mutates them.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	sendBuffer int
	upgrader   websocket.Upgrader
}

// NewHub creates a hub whose clients queue at most sendBuffer messages.
func NewHub(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		sendBuffer: sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Connections authenticate with the token in the query string.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run relays events to the rooms until ctx ends or events is closed.
func (h *Hub) Run(ctx context.Context, events <-chan Event) {
	defer h.shutdown()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.mu.Lock()
			if h.rooms[c.Role] == nil {
				h.rooms[c.Role] = make(map[*Client]struct{})
			}
			h.rooms[c.Role][c] = struct{}{}
			size := len(h.rooms[c.Role])
			h.mu.Unlock()
			utils.LogInfo("Websocket client joined room", map[string]interface{}{
				"client_id": c.ID, "user_id": c.UserID, "room": c.Role, "room_size": size,
			})
		case c := <-h.unregister:
			h.mu.Lock()
			h.remove(c)
			h.mu.Unlock()
		case evt, ok := <-events:
			if !ok {
				return
			}
			h.broadcast(evt)
		}
	}
}

func (h *Hub) broadcast(evt Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		utils.LogError(err, "Failed to encode event", map[string]interface{}{"event": evt.Type})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	delivered := 0
	for _, room := range Audience(evt.Type) {
		for c := range h.rooms[room] {
			select {
			case c.send <- data:
				delivered++
			default:
				// No backpressure: a client that cannot keep up is dropped.
				utils.LogWarn("Websocket client too slow, dropping", map[string]interface{}{
					"client_id": c.ID, "user_id": c.UserID, "room": room,
				})
				h.remove(c)
			}
		}
	}
	utils.LogDebug("Event relayed", map[string]interface{}{"event": evt.Type, "delivered": delivered})
}

// remove must be called with mu held.
func (h *Hub) remove(c *Client) {
	room, ok := h.rooms[c.Role]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	close(c.send)
	if len(room) == 0 {
		delete(h.rooms, c.Role)
	}
	utils.LogInfo("Websocket client left room", map[string]interface{}{"client_id": c.ID, "room": c.Role})
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range h.rooms {
		for c := range room {
			h.remove(c)
		}
	}
	close(h.done)
}

// RoomSize reports how many clients are connected in role's room.
func (h *Hub) RoomSize(role string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[role])
}

// HandleWebSocket upgrades an authenticated request and joins the caller to
// the room of its role. The auth middleware must have set userID and userRole.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	role := c.GetString("userRole")
	if !models.IsValidRole(role) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "No room for this role", role))
		return
	}
	userID := c.GetInt64("userID")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.LogError(err, "Websocket upgrade failed", map[string]interface{}{"user_id": userID})
		return
	}

	client := &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Role:   role,
		conn:   conn,
		send:   make(chan []byte, h.sendBuffer),
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(client)
	go h.readPump(client)
}

// readPump only watches for disconnects and pongs; clients never send events.
func (h *Hub) readPump(c *Client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utils.LogError(err, "Websocket read error", map[string]interface{}{"client_id": c.ID})
			}
			return
		}
	}
}

func (h *Hub) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				utils.LogError(err, "Websocket write error", map[string]interface{}{"client_id": c.ID})
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
