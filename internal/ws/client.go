package ws

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/gofiber/websocket/v2"
	"golang.org/x/time/rate"
)

// wsConn is the subset of *websocket.Conn the client uses.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	Close() error
}

// Client represents a single websocket connection. The send channel is never
// closed; shutdown is signalled through done so a concurrent enqueue can
// never hit a closed channel.
type Client struct {
	conn    wsConn
	send    chan []byte
	done    chan struct{}
	userID  string
	connID  string
	limiter *rate.Limiter
	closed  int32
}

func newClient(conn wsConn, userID, connID string, sendBuffer, rps int) *Client {
	return &Client{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		userID:  userID,
		connID:  connID,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// UserID returns the identity supplied at handshake time.
func (c *Client) UserID() string { return c.userID }

// ConnID returns the connection id assigned at handshake time.
func (c *Client) ConnID() string { return c.connID }

// readPump reads frames, rate-limits them, and hands envelopes to the
// handler. It blocks until the connection closes.
func (c *Client) readPump(h *Handler) {
	defer func() {
		h.hub.Remove(c)
		c.close()
	}()

	c.conn.SetReadLimit(h.cfg.WS.MaxMessageBytes)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if !c.limiter.Allow() {
			continue
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			// malformed frame, ignore
			continue
		}
		// refresh the presence mirror TTL on activity
		_ = h.presence.SetPresence(context.Background(), c.userID, h.cfg.PresenceTTL)

		h.dispatch(context.Background(), c, &env)
	}
}

// writePump drains the send buffer onto the socket and keeps the connection
// alive with pings. It exits when done is closed or a write fails.
func (c *Client) writePump(pingInterval, writeDeadline time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}

// close shuts the client down once. Closing conn unblocks readPump; closing
// done unblocks writePump.
func (c *Client) close() {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		close(c.done)
		_ = c.conn.Close()
	}
}
