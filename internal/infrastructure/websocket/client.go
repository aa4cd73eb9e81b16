package websocket

import (
	"github.com/gorilla/websocket"

	"bookmarket/pkg/logger"
)

// Client represents a single WebSocket connection.
type Client struct {
	ID     string // connection id, unique per socket
	UserID string // authenticated user, empty for anonymous video sockets
	Conn   *websocket.Conn
	Send   chan []byte
}

// ReadPump reads frames from the connection and hands them to the
// handler. It unregisters the client from the manager when the
// connection drops, which implicitly leaves every joined channel.
func (c *Client) ReadPump(m *Manager, handle func(raw []byte), onClose func()) {
	defer func() {
		if onClose != nil {
			onClose()
		}
		m.Remove(c.ID)
		c.Conn.Close()
	}()

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket: client %s read error: %v", c.ID, err)
			}
			break
		}

		handle(raw)
	}
}

// WritePump drains the send channel onto the connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for raw := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			logger.Warn("websocket: client %s write error: %v", c.ID, err)
			return
		}
	}

	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}
