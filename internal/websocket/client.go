// internal/websocket/client.go
package websocket

import (
	"context"
	"sync"
	"time"

	"instaup-service/internal/domain/ws"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 64),
		userID: userID,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *Client) UserID() string {
	return c.userID
}

// ReadPump drains incoming frames. The UI only ever sends pings; anything
// unparseable gets an error frame back.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			_, message, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					c.hub.logger.Debug("ws read error",
						zap.String("user_id", c.userID),
						zap.Error(err),
					)
				}
				return
			}
			c.handleMessage(message)
		}
	}
}

// WritePump flushes queued frames and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
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

func (c *Client) handleMessage(data []byte) {
	msg, err := ws.ParseMessage(data)
	if err != nil {
		c.SendError("invalid_message", "failed to parse message")
		return
	}

	switch msg.Type {
	case ws.EventTypePing:
		c.SendMessage(ws.NewMessage(ws.EventTypePong, nil))
	}
}

// SendMessage queues a frame. A client that cannot keep up is disconnected
// rather than allowed to block the hub.
func (c *Client) SendMessage(msg *ws.Message) {
	data, err := msg.ToJSON()
	if err != nil {
		c.hub.logger.Error("ws marshal failed", zap.Error(err))
		return
	}

	select {
	case c.send <- data:
	case <-c.ctx.Done():
	default:
		c.Close()
	}
}

func (c *Client) SendError(code, message string) {
	c.SendMessage(ws.NewMessage(ws.EventTypeError, ws.ErrorData{
		Code:    code,
		Message: message,
	}))
}

// Close stops both pumps. Safe to call more than once; the send channel is
// left open so a racing broadcast can never panic on it.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
	})
}
