package websocket

import (
	"sync"

	"bookmarket/pkg/logger"
)

// Manager is the fanout hub. It owns the set of live connections, the
// per-user personal channels and the per-conversation channels.
// Delivery is best effort: a slow or dead client is dropped, it never
// blocks a publisher.
type Manager struct {
	mu sync.RWMutex

	// clients is keyed by connection id; one user may hold several
	// connections (tabs, devices), so users maps a user id to all of
	// that user's connections.
	clients       map[string]*Client
	users         map[string]map[string]*Client
	conversations map[string]map[string]*Client
}

func NewManager() *Manager {
	return &Manager{
		clients:       make(map[string]*Client),
		users:         make(map[string]map[string]*Client),
		conversations: make(map[string]map[string]*Client),
	}
}

// Add registers a connection. If the client carries a user id it joins
// that user's personal channel immediately.
func (m *Manager) Add(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clients[client.ID] = client
	if client.UserID != "" {
		if m.users[client.UserID] == nil {
			m.users[client.UserID] = make(map[string]*Client)
		}
		m.users[client.UserID][client.ID] = client
	}

	logger.Info("websocket: client %s connected (user=%s)", client.ID, client.UserID)
}

// Remove unregisters a connection and implicitly leaves every channel
// it had joined.
func (m *Manager) Remove(clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, ok := m.clients[clientID]
	if !ok {
		return
	}
	delete(m.clients, clientID)

	if client.UserID != "" {
		if conns := m.users[client.UserID]; conns != nil {
			delete(conns, clientID)
			if len(conns) == 0 {
				delete(m.users, client.UserID)
			}
		}
	}

	for conversationID, members := range m.conversations {
		if _, ok := members[clientID]; ok {
			delete(members, clientID)
			if len(members) == 0 {
				delete(m.conversations, conversationID)
			}
		}
	}

	close(client.Send)
	logger.Info("websocket: client %s disconnected", clientID)
}

// JoinConversation subscribes a connection to a conversation channel.
func (m *Manager) JoinConversation(clientID, conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, ok := m.clients[clientID]
	if !ok {
		return
	}

	if m.conversations[conversationID] == nil {
		m.conversations[conversationID] = make(map[string]*Client)
	}
	m.conversations[conversationID][clientID] = client
}

// LeaveConversation unsubscribes a connection from a conversation
// channel.
func (m *Manager) LeaveConversation(clientID, conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members := m.conversations[conversationID]
	if members == nil {
		return
	}
	delete(members, clientID)
	if len(members) == 0 {
		delete(m.conversations, conversationID)
	}
}

// BroadcastToConversation pushes an event to every subscriber of the
// conversation channel.
func (m *Manager) BroadcastToConversation(conversationID, eventType string, payload interface{}) {
	raw, ok := encodeEvent(eventType, payload)
	if !ok {
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.conversations[conversationID] {
		m.deliver(client, raw)
	}
}

// BroadcastToConversationExcept is BroadcastToConversation minus one
// user, used for typing relays where the sender must not hear itself.
func (m *Manager) BroadcastToConversationExcept(conversationID, exceptUserID, eventType string, payload interface{}) {
	raw, ok := encodeEvent(eventType, payload)
	if !ok {
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.conversations[conversationID] {
		if client.UserID != exceptUserID {
			m.deliver(client, raw)
		}
	}
}

// SendToUser pushes an event to every connection on the user's
// personal channel.
func (m *Manager) SendToUser(userID, eventType string, payload interface{}) {
	raw, ok := encodeEvent(eventType, payload)
	if !ok {
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.users[userID] {
		m.deliver(client, raw)
	}
}

// SendToClient pushes an event to a single connection by connection id.
func (m *Manager) SendToClient(clientID, eventType string, payload interface{}) {
	raw, ok := encodeEvent(eventType, payload)
	if !ok {
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if client, exists := m.clients[clientID]; exists {
		m.deliver(client, raw)
	}
}

// BroadcastAll pushes an event to every live connection, used for
// user online/offline status changes.
func (m *Manager) BroadcastAll(eventType string, payload interface{}) {
	raw, ok := encodeEvent(eventType, payload)
	if !ok {
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.clients {
		m.deliver(client, raw)
	}
}

// ClientCount reports the number of live connections.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// deliver hands the frame to the client's write pump without blocking.
// Called with m.mu held, which excludes Remove from closing the send
// channel mid-delivery. A client whose buffer is full gets its
// connection closed; the read pump then triggers Remove.
func (m *Manager) deliver(client *Client, raw []byte) {
	select {
	case client.Send <- raw:
	default:
		logger.Warn("websocket: client %s send buffer full, dropping connection", client.ID)
		client.Conn.Close()
	}
}
