package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/phrazzld/taskwire-api/internal/notify"
)

const (
	// writeWait is the deadline for a single outbound write.
	writeWait = 10 * time.Second

	// pongWait is how long the read side waits for any traffic (pongs
	// included) before declaring the peer gone.
	pongWait = 60 * time.Second

	// pingPeriod is the keepalive interval; it must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps inbound frames. Clients have nothing meaningful to
	// send, so the cap is small.
	maxMessageSize = 512
)

// Client is one live connection: the websocket, its outbound buffer, and the
// groups it joined when it reached the Joined state.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	groups []notify.GroupID
	userID uuid.UUID
	logger *slog.Logger

	closeOnce sync.Once
}

// newClient wires a client for an authenticated principal. Every connection
// joins its owner's group; staff/superuser connections additionally join the
// admin broadcast group.
func newClient(
	conn *websocket.Conn,
	userID uuid.UUID,
	isAdmin bool,
	bufferSize int,
	logger *slog.Logger,
) *Client {
	groups := []notify.GroupID{notify.PerUser(userID)}
	if isAdmin {
		groups = append(groups, notify.AdminBroadcast())
	}

	return &Client{
		conn:   conn,
		send:   make(chan []byte, bufferSize),
		groups: groups,
		userID: userID,
		logger: logger.With(
			slog.String("component", "ws_client"),
			slog.String("user_id", userID.String()),
		),
	}
}

// enqueue offers one serialized event to the connection's outbound buffer.
// Returns false when the buffer is full or already closed; the hub then
// drops the connection.
func (c *Client) enqueue(message []byte) (ok bool) {
	defer func() {
		// Losing the race with closeSend means the channel is closed;
		// treat it as a failed enqueue rather than a crash.
		if recover() != nil {
			ok = false
		}
	}()

	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// closeSend closes the outbound buffer exactly once. The write pump exits
// when the channel drains, which in turn closes the websocket.
func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// writePump forwards buffered events to the peer and keeps the connection
// alive with pings. One goroutine per connection; it owns all writes.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil {
			c.logger.Debug("connection close failed", slog.String("error", err.Error()))
		}
	}()

	for {
		select {
		case message, open := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Debug("failed to set write deadline", slog.String("error", err.Error()))
				return
			}
			if !open {
				// Hub detached this connection; say goodbye properly.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("write failed", slog.String("error", err.Error()))
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Debug("failed to set write deadline", slog.String("error", err.Error()))
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound application messages: there is no
// client-to-server mutation protocol over the live connection. It exists to
// detect disconnects, after which it tears down the group memberships.
func (c *Client) readPump(hub *Hub) {
	defer hub.Leave(c)

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Debug("failed to set read deadline", slog.String("error", err.Error()))
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("unexpected close", slog.String("error", err.Error()))
			}
			return
		}
		// Inbound frames carry no protocol: all task mutation happens over
		// the HTTP API.
	}
}
