package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/ikkim/storefront/pkg/logger"
)

const (
	// messages accepted from one client per second
	maxMessagesPerSecond = 10

	sendBufferSize = 16
)

// ClientMessage is what browsers may send on the cart feed.
type ClientMessage struct {
	Type string `json:"type"` // ping, sync
}

// SnapshotFunc renders the current cart of a session for a sync request.
type SnapshotFunc func(sessionID string) interface{}

// Client is one websocket connection bound to a cart session.
type Client struct {
	Hub       *Hub
	Conn      *Conn
	SessionID string
	Send      chan []byte

	RateMu        sync.Mutex
	MessageCount  int
	LastResetTime time.Time
}

func NewClient(hub *Hub, conn *Conn, sessionID string) *Client {
	return &Client{
		Hub:       hub,
		Conn:      conn,
		SessionID: sessionID,
		Send:      make(chan []byte, sendBufferSize),
	}
}

// Hub fans cart change events out to every connection of a session.
type Hub struct {
	// session id -> connections (several tabs may share one session)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *SessionMessage
	quit       chan struct{}
	stopOnce   sync.Once

	snapshot SnapshotFunc

	mu sync.RWMutex
}

// SessionMessage is a payload addressed to one session.
type SessionMessage struct {
	SessionID string
	Message   []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *SessionMessage, 1024),
		quit:       make(chan struct{}),
	}
}

// SetSnapshotProvider installs the function used to answer sync requests.
func (h *Hub) SetSnapshotProvider(fn SnapshotFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshot = fn
}

// Run processes registrations and broadcasts until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			total := len(h.clients[client.SessionID])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"session_id":  client.SessionID,
				"connections": total,
			})

		case client := <-h.unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients[message.SessionID] {
				select {
				case client.Send <- message.Message:
				default:
					go h.Unregister(client)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"session_id": message.SessionID,
					})
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Stop ends Run and closes every client send channel.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
	})
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clientList, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	newList := make([]*Client, 0, len(clientList))
	found := false
	for _, c := range clientList {
		if c == client {
			found = true
			continue
		}
		newList = append(newList, c)
	}
	if !found {
		return
	}
	if len(newList) == 0 {
		delete(h.clients, client.SessionID)
	} else {
		h.clients[client.SessionID] = newList
	}
	close(client.Send)

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"session_id":  client.SessionID,
		"connections": len(newList),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sessionID, clientList := range h.clients {
		for _, c := range clientList {
			close(c.Send)
		}
		delete(h.clients, sessionID)
	}
}

// SendToSession queues message (JSON encoded) for every connection of the session.
func (h *Hub) SendToSession(sessionID string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal message", err, nil)
		return err
	}

	select {
	case h.broadcast <- &SessionMessage{SessionID: sessionID, Message: data}:
	default:
		// dropping is acceptable, the next event carries the full cart
		logger.Warn("Broadcast channel full, message dropped", map[string]interface{}{
			"session_id": sessionID,
		})
	}
	return nil
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// IsSessionOnline reports whether the session has an open connection.
func (h *Hub) IsSessionOnline(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[sessionID]
	return ok
}

// ConnectionCount is the number of open connections across sessions.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clientList := range h.clients {
		n += len(clientList)
	}
	return n
}

// HandleClientMessage answers ping and sync requests, rate limited per client.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"session_id": client.SessionID,
			"count":      count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"session_id": client.SessionID,
			"error":      err.Error(),
		})
		return
	}

	switch msg.Type {
	case "ping":
		h.SendToSession(client.SessionID, map[string]interface{}{"type": "pong"})
	case "sync":
		h.mu.RLock()
		snapshot := h.snapshot
		h.mu.RUnlock()
		if snapshot == nil {
			return
		}
		h.SendToSession(client.SessionID, snapshot(client.SessionID))
	default:
		logger.Debug("Ignoring unknown client message", map[string]interface{}{
			"session_id": client.SessionID,
			"type":       msg.Type,
		})
	}
}
