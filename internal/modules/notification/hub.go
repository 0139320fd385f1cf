package notification

import (
	"context"
	"sync"
	"time"

	"studiobooking/internal/domain"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

func (c *client) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Hub pushes in-app notifications to connected users. A user has at most one
// live connection; a new one replaces the old.
type Hub struct {
	clients map[int64]*client
	mutex   sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[int64]*client)}
}

func (h *Hub) Register(userID int64, conn *websocket.Conn) *client {
	c := &client{conn: conn}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	if old, ok := h.clients[userID]; ok {
		_ = old.conn.Close()
	}
	h.clients[userID] = c
	return c
}

// Unregister drops c if it is still the user's current connection.
func (h *Hub) Unregister(userID int64, c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if cur, ok := h.clients[userID]; ok && cur == c {
		delete(h.clients, userID)
	}
	_ = c.conn.Close()
}

func (h *Hub) SendToUser(userID int64, message interface{}) bool {
	h.mutex.RLock()
	c, ok := h.clients[userID]
	h.mutex.RUnlock()
	if !ok {
		return false
	}

	if err := c.writeJSON(message); err != nil {
		h.Unregister(userID, c)
		return false
	}
	return true
}

func (h *Hub) IsOnline(userID int64) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// Deliver implements Deliverer. Offline users read the notification from
// their inbox later, so that is not an error.
func (h *Hub) Deliver(_ context.Context, n *domain.Notification) error {
	if !n.DeliveryMethod.Includes(domain.DeliveryInApp) {
		return nil
	}
	h.SendToUser(n.UserID, wsMessage{"type": "notification", "notification": n})
	return nil
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for id, c := range h.clients {
		_ = c.conn.Close()
		delete(h.clients, id)
	}
}

type wsMessage = map[string]interface{}
