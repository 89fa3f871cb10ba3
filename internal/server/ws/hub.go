package internalws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Neamul01/breeze-time-server/internal/storage"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	EventConnectID    = "connectId"
	EventNotification = "eventNotification"

	sendBuffer = 16
	writeWait  = 5 * time.Second
	pingPeriod = 30 * time.Second
)

// Frame is the envelope of every server message.
type Frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type NotificationData struct {
	storage.Notification
	EventName string    `json:"eventName"`
	DateTime  time.Time `json:"dateTime"`
}

type client struct {
	id   string
	send chan Frame
	quit chan struct{}
}

// Hub keeps the connected websocket clients and fans notifications out to them.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	wg      sync.WaitGroup
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

func (h *Hub) subscribe() (*client, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	c := &client{id: uuid.NewString(), send: make(chan Frame, sendBuffer), quit: make(chan struct{})}
	h.clients[c] = struct{}{}
	h.wg.Add(1)
	return c, true
}

func (h *Hub) unsubscribe(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	h.wg.Done()
}

// Close disconnects every client and waits for their handlers to return.
// Later connection attempts are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for c := range h.clients {
		close(c.quit)
	}
	h.mu.Unlock()

	h.wg.Wait()
	log.Info("websocket hub closed")
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast(f Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- f:
		default:
			log.WithField("client", c.id).Warn("websocket client is too slow, frame dropped")
		}
	}
}

// Publish sends a stored notification to every connected client.
func (h *Hub) Publish(_ context.Context, n storage.Notification, e storage.Event) error {
	h.broadcast(Frame{
		Event: EventNotification,
		Data:  NotificationData{Notification: n, EventName: e.Name, DateTime: e.DateTime},
	})
	return nil
}

// ServeHTTP upgrades the connection and greets the client with its connection id.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, ok := h.subscribe()
	if !ok {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.unsubscribe(c)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debugf("websocket upgrade failed: %v", err)
		return
	}
	log.WithField("client", c.id).Debug("websocket client connected")

	c.send <- Frame{Event: EventConnectID, Data: c.id}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.writeLoop(conn, c, done)
	conn.Close()
	<-done
	log.WithField("client", c.id).Debug("websocket client disconnected")
}

func (h *Hub) writeLoop(conn *websocket.Conn, c *client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-c.quit:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown")
			conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		case f := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(f); err != nil {
				log.WithField("client", c.id).Debugf("websocket write failed: %v", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
