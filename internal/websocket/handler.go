package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/realtyhub/messaging/internal/logger"
)

// Event types
const (
	EventMessage = "message"
	EventRead    = "read"
	EventTyping  = "typing"
	EventError   = "error"
)

const (
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	pingPeriod         = 54 * time.Second
	maxFrameSize       = 64 * 1024
	sendBuffer         = 256
	maxEventsPerMinute = 60
)

var log = logger.New("websocket")

// Client represents a connected websocket client
type Client struct {
	ID     string
	Socket *websocket.Conn
	Send   chan []byte
}

// Manager maintains the set of active clients, one per user
type Manager struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	mutex      sync.Mutex

	// CheckOrigin decides which browser origins may connect; nil allows all
	CheckOrigin func(r *http.Request) bool
}

// Event is pushed to clients over the socket
type Event struct {
	Type           string      `json:"type"`
	SenderID       string      `json:"senderId,omitempty"`
	ReceiverID     string      `json:"receiverId,omitempty"`
	ConversationID string      `json:"conversationId,omitempty"`
	PropertyID     *string     `json:"propertyId,omitempty"`
	IsTyping       bool        `json:"isTyping,omitempty"`
	Content        string      `json:"content,omitempty"`
	Data           interface{} `json:"data,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}

// NewManager creates a new websocket manager
func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run serves register and unregister requests until the process exits
func (m *Manager) Run() {
	for {
		select {
		case client := <-m.register:
			m.mutex.Lock()
			if old, ok := m.clients[client.ID]; ok && old != client {
				close(old.Send)
			}
			m.clients[client.ID] = client
			log.Info("Client connected: %s", client.ID)
			m.mutex.Unlock()
		case client := <-m.unregister:
			m.mutex.Lock()
			if current, ok := m.clients[client.ID]; ok && current == client {
				delete(m.clients, client.ID)
				close(client.Send)
				log.Info("Client disconnected: %s", client.ID)
			}
			m.mutex.Unlock()
		}
	}
}

// IsConnected reports whether userID currently has an open socket
func (m *Manager) IsConnected(userID string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	_, ok := m.clients[userID]
	return ok
}

// SendToUser sends a raw payload to a specific user
func (m *Manager) SendToUser(userID string, message []byte) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if client, ok := m.clients[userID]; ok {
		select {
		case client.Send <- message:
			log.Debug("Message sent to user %s", userID)
		default:
			close(client.Send)
			delete(m.clients, client.ID)
			log.Warn("Failed to send message to user %s, removing client", userID)
		}
	} else {
		log.Debug("User %s not connected", userID)
	}
}

// Notify encodes event and delivers it to userID if they are connected
func (m *Manager) Notify(userID string, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error("Failed to encode %s event for %s: %v", event.Type, userID, err)
		return
	}
	m.SendToUser(userID, payload)
}

// HandleWebSocket upgrades an authenticated request to a websocket
func (m *Manager) HandleWebSocket(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		log.Warn("No userID in context, rejecting connection from %s", c.Request.RemoteAddr)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	log.Debug("User authenticated: %s (IP: %s)", userID, c.Request.RemoteAddr)

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if m.CheckOrigin == nil {
				return true
			}
			return m.CheckOrigin(r)
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade connection: %v", err)
		return
	}

	client := &Client{
		ID:     userID,
		Socket: conn,
		Send:   make(chan []byte, sendBuffer),
	}

	m.register <- client

	go client.readPump(m)
	go client.writePump()
	log.Info("Client %s connected and ready", client.ID)
}

// sendError reports a bad event back to c while it is still the registered client
func (m *Manager) sendError(c *Client, content string) {
	errJSON, _ := json.Marshal(Event{Type: EventError, Content: content, Timestamp: time.Now().UTC()})

	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.clients[c.ID] != c {
		return
	}
	select {
	case c.Send <- errJSON:
	default:
	}
}

// readPump forwards typing indicators; chat messages go through the HTTP API so they are stored
func (c *Client) readPump(m *Manager) {
	defer func() {
		m.unregister <- c
		c.Socket.Close()
	}()

	c.Socket.SetReadLimit(maxFrameSize)
	c.Socket.SetReadDeadline(time.Now().Add(pongWait))
	c.Socket.SetPongHandler(func(string) error {
		c.Socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	eventCount := 0
	windowStart := time.Now()

	for {
		_, raw, err := c.Socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error("Error reading from client %s: %v", c.ID, err)
			} else {
				log.Info("Client %s closed connection: %v", c.ID, err)
			}
			return
		}

		if time.Since(windowStart) >= time.Minute {
			eventCount = 0
			windowStart = time.Now()
		}
		eventCount++
		if eventCount > maxEventsPerMinute {
			log.Warn("Rate limit exceeded for client %s", c.ID)
			continue
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			log.Debug("Error unmarshaling event from %s: %v", c.ID, err)
			m.sendError(c, "Invalid event format")
			continue
		}

		event.SenderID = c.ID
		event.Timestamp = time.Now().UTC()

		switch event.Type {
		case EventTyping:
			if event.ReceiverID == "" {
				m.sendError(c, "Invalid receiver ID")
				continue
			}
			m.Notify(event.ReceiverID, event)
		default:
			log.Warn("Unknown event type '%s' from client %s", event.Type, c.ID)
			m.sendError(c, "Unknown event type")
		}
	}
}

// writePump pumps messages from the manager to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Socket.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Socket.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
