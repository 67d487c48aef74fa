package ws

import (
	"log/slog"
	"sync"

	"github.com/mcoot/conquestgame-go/internal/model"
)

// Hub is one broadcast group: the lobby or a single match
type Hub struct {
	room    string
	clients map[model.SessionID]*Client
	mu      sync.RWMutex
	logger  *slog.Logger
}

// NewHub creates a new Hub for a room
func NewHub(room string, logger *slog.Logger) *Hub {
	return &Hub{
		room:    room,
		clients: make(map[model.SessionID]*Client),
		logger:  logger.With(slog.String("room", room)),
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("ws client joined room",
		slog.String("session_id", string(c.id)),
		slog.Int("total_clients", count))
}

func (h *Hub) remove(sid model.SessionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, sid)
}

// Broadcast queues a frame for every client except the given session.
// A client whose buffer is full misses the frame; the hub never waits.
func (h *Hub) Broadcast(frame []byte, except model.SessionID) {
	h.mu.RLock()
	sentCount := 0
	droppedCount := 0
	for sid, client := range h.clients {
		if sid == except {
			continue
		}
		if client.Send(frame) {
			sentCount++
		} else {
			droppedCount++
			h.logger.Warn("ws message dropped - client buffer full",
				slog.String("session_id", string(sid)))
		}
	}
	h.mu.RUnlock()
	if droppedCount > 0 {
		h.logger.Warn("ws broadcast partial failure",
			slog.Int("sent", sentCount),
			slog.Int("dropped", droppedCount))
	}
}

// Has reports whether a session is in the room
func (h *Hub) Has(sid model.SessionID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[sid]
	return ok
}

// ClientCount returns the number of clients in the room
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HubManager owns every room and the index of connected sessions
type HubManager struct {
	hubs    map[string]*Hub
	clients map[model.SessionID]*Client
	mu      sync.RWMutex
	logger  *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:    make(map[string]*Hub),
		clients: make(map[model.SessionID]*Client),
		logger:  logger.With(slog.String("component", "ws")),
	}
}

// Attach makes a connected client addressable by its session ID
func (m *HubManager) Attach(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c.id] = c
}

// Detach forgets a client and removes it from every room
func (m *HubManager) Detach(sid model.SessionID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clients, sid)
	for _, hub := range m.hubs {
		hub.remove(sid)
	}
}

// Join adds a session to a room, creating the room if needed
func (m *HubManager) Join(sid model.SessionID, room string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	client, ok := m.clients[sid]
	if !ok {
		return
	}
	m.getOrCreateHubLocked(room).add(client)
}

// Leave removes a session from a room
func (m *HubManager) Leave(sid model.SessionID, room string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if hub, ok := m.hubs[room]; ok {
		hub.remove(sid)
	}
}

// SendTo queues a frame for a single session
func (m *HubManager) SendTo(sid model.SessionID, frame []byte) bool {
	m.mu.RLock()
	client, ok := m.clients[sid]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	return client.Send(frame)
}

// Broadcast sends a frame to a room, skipping except if set
func (m *HubManager) Broadcast(room string, frame []byte, except model.SessionID) {
	hub := m.GetHub(room)
	if hub == nil {
		return
	}
	hub.Broadcast(frame, except)
}

// GetOrCreateHub returns the hub for a room, creating one if it doesn't exist
func (m *HubManager) GetOrCreateHub(room string) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateHubLocked(room)
}

func (m *HubManager) getOrCreateHubLocked(room string) *Hub {
	if hub, ok := m.hubs[room]; ok {
		return hub
	}
	hub := NewHub(room, m.logger)
	m.hubs[room] = hub
	return hub
}

// GetHub returns the hub for a room, or nil if it doesn't exist
func (m *HubManager) GetHub(room string) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[room]
}

// RemoveHub drops a room. Its clients stay connected.
func (m *HubManager) RemoveHub(room string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.hubs[room]; ok {
		delete(m.hubs, room)
		m.logger.Info("ws hub removed", slog.String("room", room))
	}
}

// CleanupEmptyHubs removes rooms with no clients, except the lobby
func (m *HubManager) CleanupEmptyHubs() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removedCount := 0
	for room, hub := range m.hubs {
		if room != model.LobbyRoom && hub.ClientCount() == 0 {
			delete(m.hubs, room)
			removedCount++
		}
	}
	if removedCount > 0 {
		m.logger.Info("ws empty hubs cleaned up", slog.Int("removed", removedCount))
	}
	return removedCount
}

// ClientCount returns the number of connected sessions
func (m *HubManager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// CloseAll closes every connected client. The read loops then detach them.
func (m *HubManager) CloseAll() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.clients {
		c.Close()
	}
}
