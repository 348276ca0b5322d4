package ws

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 50 * time.Second
	maxMessageSize = 8192
	sendBuffer     = 256
)

// Client - одно websocket соединение. PlayerID != 0, если соединение аутентифицировано.
type Client struct {
	ID       string
	PlayerID int64

	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter

	mu        sync.Mutex
	games     map[string]int64 // комната -> игрок, под которым вошли
	closed    bool
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, playerID int64, limiter *rate.Limiter) *Client {
	return &Client{
		ID:       uuid.NewString(),
		PlayerID: playerID,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		limiter:  limiter,
		games:    make(map[string]int64),
		done:     make(chan struct{}),
	}
}

// enqueue не блокирует, false - буфер полон
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.done)
	})
}

func (c *Client) track(gameID string, playerID int64) {
	c.mu.Lock()
	c.games[gameID] = playerID
	c.mu.Unlock()
}

func (c *Client) untrack(gameID string) {
	c.mu.Lock()
	delete(c.games, gameID)
	c.mu.Unlock()
}

func (c *Client) tracked() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.games))
	for k, v := range c.games {
		out[k] = v
	}
	return out
}

// Run обслуживает соединение до разрыва, после чего сообщает сервису об уходе из комнат
func (c *Client) Run(ctx context.Context, hub *Hub, d *Dispatcher) {
	hub.Register(c)
	go c.writePump()
	hub.SendTo(c.ID, EventReady, readyPayload{ConnectionID: c.ID, PlayerID: c.PlayerID})

	c.readPump(ctx, hub, d)

	c.Close()
	hub.Unregister(c)
	for gameID, playerID := range c.tracked() {
		d.disconnect(ctx, c, gameID, playerID)
	}
}

func (c *Client) readPump(ctx context.Context, hub *Hub, d *Dispatcher) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				d.log.Debug("ws read failed", "conn_id", c.ID, "error", err)
			}
			return
		}
		if c.limiter != nil && !c.limiter.Allow() {
			d.reject(c, "", CodeRateLimited, "too many messages")
			continue
		}
		d.Dispatch(ctx, c, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
