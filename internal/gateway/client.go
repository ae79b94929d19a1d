package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/bloops-games/wordrounds/internal/logging"
	"github.com/bloops-games/wordrounds/internal/notify"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Client is one websocket connection of a player in a room.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	config Config

	room   string
	player string

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	limiter   *rate.Limiter
}

func newClient(hub *Hub, conn *websocket.Conn, config Config, room, player string) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		config:  config,
		room:    room,
		player:  player,
		send:    make(chan []byte, config.SendBuffer),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), config.RateBurst),
	}
}

func (c *Client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) sendError(err error) {
	data, mErr := json.Marshal(Envelope{Type: notify.EventError, Payload: notify.Error{Message: err.Error()}})
	if mErr != nil {
		return
	}
	c.enqueue(data)
}

// readPump dispatches inbound frames until the connection fails.
func (c *Client) readPump(ctx context.Context, d *Dispatcher) {
	logger := logging.FromContext(ctx).Named("gateway.Client.readPump")
	defer func() {
		c.hub.unregister(c)
		c.close()
	}()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.config.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.config.PongTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warnf("room %s: player %s: read: %v", c.room, c.player, err)
			}
			return
		}

		if !c.limiter.Allow() {
			c.sendError(ErrRateLimited)
			continue
		}

		var msg Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError(ErrBadPayload)
			continue
		}

		if err := d.Dispatch(ctx, c.room, c.player, msg); err != nil {
			if !errors.Is(err, ErrUnknownEvent) && !errors.Is(err, ErrBadPayload) {
				logger.Debugf("room %s: player %s: %s: %v", c.room, c.player, msg.Type, err)
			}
			c.sendError(err)
		}
	}
}

// writePump writes queued frames and pings the peer.
func (c *Client) writePump(ctx context.Context) {
	logger := logging.FromContext(ctx).Named("gateway.Client.writePump")
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Debugf("room %s: player %s: write: %v", c.room, c.player, err)
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			c.flush()
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes the frames still queued when the client is closed.
func (c *Client) flush() {
	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}
