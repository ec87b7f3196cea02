package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mhutchin/wordrush/internal/model"
)

const (
	// writeWait is the deadline for a single write to the peer
	writeWait = 10 * time.Second

	// pongWait is how long a connection may stay silent before it is
	// considered dead
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait so the peer has time
	// to answer
	pingPeriod = 54 * time.Second

	// sendBufferSize bounds the outbound queue per connection
	sendBufferSize = 256
)

// Client is one websocket connection with its outbound queue
type Client struct {
	id   model.ConnID
	conn *websocket.Conn
	hub  *Hub

	send      chan []byte
	closeOnce sync.Once
}

func newClient(id model.ConnID, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		id:   id,
		conn: conn,
		hub:  hub,
		send: make(chan []byte, sendBufferSize),
	}
}

// enqueue queues a message for delivery. A slow consumer whose buffer
// is full loses the message rather than stalling the broadcaster.
func (c *Client) enqueue(raw []byte) {
	select {
	case c.send <- raw:
	default:
		c.hub.logger.Warn("send buffer full, dropping message", "conn_id", c.id)
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// readPump reads inbound frames until the connection dies, then
// triggers disconnect cleanup
func (c *Client) readPump() {
	defer func() {
		c.hub.dropClient(c)
		c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "conn_id", c.id, "error", err)
			}
			return
		}
		if messageType == websocket.TextMessage {
			c.hub.handleFrame(c, raw)
		}
	}
}

// writePump drains the outbound queue and keeps the connection alive
// with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the queue
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}

			// Flush whatever else is already queued
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
