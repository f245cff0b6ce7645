package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 2 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendQueueSize  = 256
)

// -----------------------------------------------------------------------------

// wsClient is one websocket subscriber. Frames are JSON encoded once by the
// hub and shared between clients.
type wsClient struct {
	hub   *APIServer
	conn  *websocket.Conn
	queue chan []byte

	mu     sync.Mutex
	closed bool
}

func newWSClient(hub *APIServer, conn *websocket.Conn) *wsClient {
	return &wsClient{hub: hub, conn: conn, queue: make(chan []byte, sendQueueSize)}
}

// trySend queues frame without blocking. It reports false when the queue is
// full or the client is closed.
func (c *wsClient) trySend(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.queue <- frame:
		return true
	default:
		return false
	}
}

func (c *wsClient) closeQueue() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.queue)
	}
}

// -----------------------------------------------------------------------------

// listen reads client commands until the connection fails or the read
// deadline passes without a pong.
func (c *wsClient) listen() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	extend := func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) }
	extend("")
	c.conn.SetPongHandler(extend)

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.Logger.Info("websocket read: %v", err)
			}
			return
		}
		c.hub.handleClientMessage(c, message)
	}
}

// deliver writes queued frames and keeps the connection alive with pings.
func (c *wsClient) deliver() {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	defer c.conn.Close()

	for {
		var (
			kind  = websocket.TextMessage
			frame []byte
		)
		select {
		case f, ok := <-c.queue:
			if !ok {
				kind = websocket.CloseMessage
			}
			frame = f
		case <-ping.C:
			kind = websocket.PingMessage
		}

		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(kind, frame); err != nil {
			c.hub.Logger.Debug("websocket write: %v", err)
			return
		}
		if kind == websocket.CloseMessage {
			return
		}
	}
}
