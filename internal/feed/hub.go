package feed

import (
	"context"
	"net/http"
	"sync"
	"time"

	"ranked-tracker/internal/logger"
	"ranked-tracker/internal/sheet"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Message types sent to subscribers
	TypeRowRecorded = "row_recorded"
	TypeSnapshot    = "snapshot"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	sendBuffer = 16
)

// Message is what subscribers receive
type Message struct {
	Type      string     `json:"type"`
	Row       *sheet.Row `json:"row,omitempty"`
	Timestamp int64      `json:"timestamp"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The feed is read-only and serves no credentials
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans recorded rows out to websocket subscribers
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	latest  *sheet.Row

	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}

	log *logrus.Entry
}

// NewHub creates a hub. Call Run before serving.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
		log:        logger.WithComponent("feed"),
	}
}

// Run handles registration and broadcast until ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.WithField("subscribers", n).Debug("Subscriber connected")

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// slow subscriber
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish records row as the latest and sends it to every subscriber
func (h *Hub) Publish(row sheet.Row) {
	h.mu.Lock()
	h.latest = &row
	h.mu.Unlock()

	data, err := encode(TypeRowRecorded, &row)
	if err != nil {
		h.log.WithError(err).Error("Failed to encode row")
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.log.WithField("match_id", row.MatchID).Warn("Feed backlog full, dropping row")
	}
}

// Latest returns the most recently published row
func (h *Hub) Latest() *sheet.Row {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

// Subscribers returns the number of connected subscribers
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func encode(msgType string, row *sheet.Row) ([]byte, error) {
	return json.Marshal(Message{
		Type:      msgType,
		Row:       row,
		Timestamp: time.Now().UnixMilli(),
	})
}

// ServeWS upgrades the request and streams rows to the subscriber. The
// latest row is sent first as a snapshot.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("Failed to upgrade websocket connection")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if latest := h.Latest(); latest != nil {
		if data, err := encode(TypeSnapshot, latest); err == nil {
			c.send <- data
		}
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	case <-r.Context().Done():
		conn.Close()
		return
	}

	go h.writePump(c)
	go h.readPump(c)
}

// readPump discards client messages and notices disconnects
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
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
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
