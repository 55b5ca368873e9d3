// Package websocket fans board change events out to connected browsers.
package websocket

import (
	"context"
	"encoding/json"
	"time"

	"bugboard/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// redisChannel carries events between API instances sharing one Redis.
const redisChannel = "bugboard:board-events"

const (
	// sendBuffer is how many events a client may fall behind before it is
	// disconnected.
	sendBuffer = 32
	writeWait  = 10 * time.Second
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type deadlineConn interface {
	SetWriteDeadline(t time.Time) error
}

// Client is one subscriber to a single board. Its writes happen on its own
// goroutine, fed by the hub.
type Client struct {
	Conn  Conn
	Board string

	send chan []byte
}

// Event is what subscribers receive, JSON encoded.
type Event struct {
	Type  string `json:"type"`
	Board string `json:"board"`
	Data  any    `json:"data,omitempty"`
}

type message struct {
	board   string
	payload []byte
}

type envelope struct {
	Origin  string          `json:"origin"`
	Board   string          `json:"board"`
	Payload json.RawMessage `json:"payload"`
}

type Hub struct {
	clients    map[string]map[*Client]bool
	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	redis  *redis.Client
	origin string
}

// NewHub returns a hub. rdb may be nil for a single-instance deployment.
func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		redis:      rdb,
		origin:     uuid.NewString(),
	}
}

// Register adds c to its board. It is a no-op once the hub has stopped.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish sends an event to every subscriber of board, on this instance and,
// through Redis, on every other one. A nil hub drops the event.
func (h *Hub) Publish(ctx context.Context, board, eventType string, data any) {
	if h == nil {
		return
	}
	payload, err := json.Marshal(Event{Type: eventType, Board: board, Data: data})
	if err != nil {
		logger.ErrorLogger.Error("encode board event", zap.Error(err))
		return
	}
	h.deliver(message{board: board, payload: payload})

	if h.redis != nil {
		raw, _ := json.Marshal(envelope{Origin: h.origin, Board: board, Payload: payload})
		if err := h.redis.Publish(ctx, redisChannel, raw).Err(); err != nil {
			logger.ErrorLogger.Error("publish board event", zap.Error(err))
		}
	}
}

func (h *Hub) deliver(m message) {
	select {
	case h.broadcast <- m:
	case <-h.done:
	default:
		logger.SystemLogger.Warn("board event dropped, hub is saturated", zap.String("board", m.board))
	}
}

// Run owns the client registry until ctx is cancelled, then closes every
// connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	var remote <-chan *redis.Message
	if h.redis != nil {
		sub := h.redis.Subscribe(ctx, redisChannel)
		defer sub.Close()
		remote = sub.Channel()
	}

	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.clients {
				for c := range clients {
					close(c.send)
					_ = c.Conn.Close()
				}
			}
			h.clients = map[string]map[*Client]bool{}
			return
		case c := <-h.register:
			if h.clients[c.Board] == nil {
				h.clients[c.Board] = make(map[*Client]bool)
			}
			c.send = make(chan []byte, sendBuffer)
			h.clients[c.Board][c] = true
			go h.writePump(c, c.send)
		case c := <-h.unregister:
			h.remove(c)
		case m := <-h.broadcast:
			h.send(m)
		case rm, ok := <-remote:
			if !ok {
				remote = nil
				continue
			}
			var env envelope
			if err := json.Unmarshal([]byte(rm.Payload), &env); err != nil || env.Origin == h.origin {
				continue
			}
			h.send(message{board: env.Board, payload: env.Payload})
		}
	}
}

// send queues m for every subscriber of its board. A subscriber whose queue
// is full is disconnected; the loop never waits on a socket.
func (h *Hub) send(m message) {
	for c := range h.clients[m.board] {
		select {
		case c.send <- m.payload:
		default:
			logger.SystemLogger.Warn("board subscriber too slow, disconnecting", zap.String("board", c.Board))
			h.remove(c)
		}
	}
}

func (h *Hub) writePump(c *Client, queue <-chan []byte) {
	for payload := range queue {
		if dc, ok := c.Conn.(deadlineConn); ok {
			_ = dc.SetWriteDeadline(time.Now().Add(writeWait))
		}
		if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.Unregister(c)
			return
		}
	}
}

func (h *Hub) remove(c *Client) {
	clients, ok := h.clients[c.Board]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.clients, c.Board)
	}
	close(c.send)
	_ = c.Conn.Close()
}
