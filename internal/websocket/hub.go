package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/cx-tal-miterani/flight-booking-frontend/internal/service"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeDraftSnapshot MessageType = "draft_snapshot"
	MessageTypeDraftUpdated  MessageType = "draft_updated"
	MessageTypeDraftClosed   MessageType = "draft_closed"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16

	// closedRetention is how long a closed draft is remembered for late subscribers
	closedRetention = time.Minute
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType        `json:"type"`
	DraftID   string             `json:"draftId"`
	Draft     *service.DraftView `json:"draft,omitempty"`
	Reason    string             `json:"reason,omitempty"`
	Timestamp int64              `json:"timestamp"`
}

// Client represents a WebSocket client connection
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	draftID string
	version uint64
}

// snapshot is the newest update broadcast for a draft
type snapshot struct {
	version uint64
	data    []byte
}

// closure remembers why and when a draft was closed
type closure struct {
	data []byte
	at   time.Time
}

// Hub fans draft snapshots out to the browser tabs watching each draft
type Hub struct {
	clients    map[string]map[*Client]bool
	latest     map[string]snapshot
	closed     map[string]closure
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	logger     *zap.Logger
}

// NewHub creates a new Hub. checkOrigin may be nil to accept same-origin requests only.
func NewHub(logger *zap.Logger, checkOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		latest:     make(map[string]snapshot),
		closed:     make(map[string]closure),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger,
	}
}

// Run starts the hub's main loop; it returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for draftID, clients := range h.clients {
				for client := range clients {
					close(client.send)
				}
				delete(h.clients, draftID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.add(client)
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				h.logger.Error("Failed to marshal WebSocket message", zap.Error(err))
				continue
			}

			h.mu.Lock()
			switch message.Type {
			case MessageTypeDraftUpdated:
				// snapshots are published in version order, but keep the newest regardless
				if prev, ok := h.latest[message.DraftID]; message.Draft != nil && (!ok || message.Draft.Version >= prev.version) {
					h.latest[message.DraftID] = snapshot{version: message.Draft.Version, data: data}
				}
			case MessageTypeDraftClosed:
				delete(h.latest, message.DraftID)
				h.forgetClosed(time.Now())
				h.closed[message.DraftID] = closure{data: data, at: time.Now()}
			}
			for client := range h.clients[message.DraftID] {
				select {
				case client.send <- data:
				default:
					h.remove(client)
				}
			}
			// a closed draft has nothing more to say
			if message.Type == MessageTypeDraftClosed {
				for client := range h.clients[message.DraftID] {
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// add registers client, catching it up on anything that happened after its
// initial snapshot was taken. Must be called with h.mu held.
func (h *Hub) add(client *Client) {
	if c, ok := h.closed[client.draftID]; ok {
		select {
		case client.send <- c.data:
		default:
		}
		close(client.send)
		return
	}
	if latest, ok := h.latest[client.draftID]; ok && latest.version > client.version {
		select {
		case client.send <- latest.data:
		default:
		}
	}

	if h.clients[client.draftID] == nil {
		h.clients[client.draftID] = make(map[*Client]bool)
	}
	h.clients[client.draftID][client] = true
	h.logger.Debug("WebSocket client registered",
		zap.String("draftId", client.draftID),
		zap.Int("total", len(h.clients[client.draftID])))
}

// forgetClosed drops closures older than closedRetention; h.mu must be held
func (h *Hub) forgetClosed(now time.Time) {
	for id, c := range h.closed {
		if now.Sub(c.at) > closedRetention {
			delete(h.closed, id)
		}
	}
}

// remove must be called with h.mu held
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.draftID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	h.logger.Debug("WebSocket client unregistered",
		zap.String("draftId", client.draftID),
		zap.Int("remaining", len(clients)))
	if len(clients) == 0 {
		delete(h.clients, client.draftID)
	}
}

func (h *Hub) enqueue(msg *Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("WebSocket broadcast queue full, dropping message",
			zap.String("draftId", msg.DraftID),
			zap.String("type", string(msg.Type)))
	}
}

// PublishDraft sends a fresh snapshot to every client watching the draft
func (h *Hub) PublishDraft(draftID string, view *service.DraftView) {
	h.enqueue(&Message{
		Type:      MessageTypeDraftUpdated,
		DraftID:   draftID,
		Draft:     view,
		Timestamp: time.Now().UnixMilli(),
	})
}

// CloseDraft tells watchers the draft is gone and disconnects them
func (h *Hub) CloseDraft(draftID, reason string) {
	h.enqueue(&Message{
		Type:      MessageTypeDraftClosed,
		DraftID:   draftID,
		Reason:    reason,
		Timestamp: time.Now().UnixMilli(),
	})
}

// ServeDraft upgrades the request and streams snapshots of draftID to it,
// starting with initial
func (h *Hub) ServeDraft(w http.ResponseWriter, r *http.Request, draftID string, initial *service.DraftView) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	first, err := json.Marshal(&Message{
		Type:      MessageTypeDraftSnapshot,
		DraftID:   draftID,
		Draft:     initial,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		conn.Close()
		return err
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), draftID: draftID}
	if initial != nil {
		client.version = initial.Version
	}
	client.send <- first
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()
	return nil
}

// readPump drains the connection so pongs and close frames are processed.
// Clients only listen; anything they send is discarded.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("WebSocket read failed", zap.String("draftId", c.draftID), zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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

// GetClientCount returns the number of clients watching a draft
func (h *Hub) GetClientCount(draftID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[draftID])
}
