// Package realtime pushes committed session changes to connected browsers
// over websockets, so open calendars refresh without polling.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sobanshoaib/schedular-app-challenge/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	clientBuffer   = 32
	eventBuffer    = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
	HandshakeTimeout: 10 * time.Second,
	CheckOrigin:      func(r *http.Request) bool { return true },
}

// Event is the message written to every client.
type Event struct {
	Type      string         `json:"type"`
	SessionID string         `json:"sessionId"`
	Session   models.Session `json:"session"`
	At        time.Time      `json:"at"`
}

type client struct {
	conn  *websocket.Conn
	send  chan []byte
	actor models.Actor
}

// Hub owns the client set. All membership changes and fan-out happen on
// the Run goroutine.
type Hub struct {
	logger     *zap.Logger
	events     chan Event
	register   chan *client
	unregister chan *client
	clients    map[*client]struct{}
	done       chan struct{}
	count      int64
	now        func() time.Time
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:     logger,
		events:     make(chan Event, eventBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
		clients:    make(map[*client]struct{}),
		done:       make(chan struct{}),
		now:        time.Now,
	}
}

// SessionChanged queues an event. It never blocks the caller; when the
// queue is full the event is dropped.
func (h *Hub) SessionChanged(session models.Session, reason string) {
	ev := Event{Type: reason, SessionID: session.ID, Session: session.Clone(), At: h.now().UTC()}
	select {
	case h.events <- ev:
	default:
		h.logger.Warn("realtime queue full, dropping event",
			zap.String("session_id", session.ID), zap.String("type", reason))
	}
}

// ClientCount is the number of registered clients.
func (h *Hub) ClientCount() int {
	return int(atomic.LoadInt64(&h.count))
}

// Run serves the hub until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			atomic.StoreInt64(&h.count, int64(len(h.clients)))
			h.logger.Debug("realtime client connected", zap.String("username", c.actor.Username))
		case c := <-h.unregister:
			h.drop(c)
		case ev := <-h.events:
			h.broadcast(ev)
		case <-ctx.Done():
			close(h.done)
			for c := range h.clients {
				h.drop(c)
			}
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	atomic.StoreInt64(&h.count, int64(len(h.clients)))
}

func (h *Hub) broadcast(ev Event) {
	full, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("failed to encode realtime event", zap.Error(err))
		return
	}
	for c := range h.clients {
		payload := full
		if c.actor.Role != models.RoleAdmin {
			if payload, err = json.Marshal(redact(ev, c.actor.StudentID)); err != nil {
				continue
			}
		}
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("realtime client too slow, disconnecting", zap.String("username", c.actor.Username))
			h.drop(c)
		}
	}
}

// redact keeps a parent from seeing which other students are enrolled.
func redact(ev Event, studentID string) Event {
	students := []string{}
	if studentID != "" && ev.Session.HasStudent(studentID) {
		students = append(students, studentID)
	}
	ev.Session.EnrolledStudents = students
	return ev
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, actor models.Actor) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, clientBuffer), actor: actor}

	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}
	go h.writePump(c)
	go h.readPump(c)
}

// readPump only watches for close and pong frames; clients send nothing.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
