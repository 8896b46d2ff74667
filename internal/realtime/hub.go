// Package realtime keeps the live websocket connections of signed-in users and
// pushes service events to them.
package realtime

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/joshua-takyi/rendez/internal/services"
)

const (
	sendBuffer    = 64
	presenceLocks = 32
)

// Client is one websocket connection. A user may hold several.
type Client struct {
	UserID string
	Send   chan []byte
	hub    *Hub
	mu     sync.Mutex
	closed bool
}

func NewClient(userID string) *Client {
	return &Client{
		UserID: userID,
		Send:   make(chan []byte, sendBuffer),
	}
}

// Close unregisters the client and closes its send channel. It reports
// whether this was the user's last open connection.
func (c *Client) Close() bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.closed = true
	c.mu.Unlock()

	last := false
	if c.hub != nil {
		last = c.hub.unregister(c)
	}
	close(c.Send)
	return last
}

func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// Hub implements services.Notifier over websocket connections.
type Hub struct {
	mu     sync.RWMutex
	byUser map[string]map[*Client]struct{}

	presence [presenceLocks]sync.Mutex
}

var _ services.Notifier = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{byUser: make(map[string]map[*Client]struct{})}
}

// Register adds the client and reports whether it is the user's first
// connection.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	first := len(h.byUser[c.UserID]) == 0
	if h.byUser[c.UserID] == nil {
		h.byUser[c.UserID] = make(map[*Client]struct{})
	}
	h.byUser[c.UserID][c] = struct{}{}
	return first
}

func (h *Hub) unregister(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := h.byUser[c.UserID]
	if m == nil {
		return false
	}
	delete(m, c)
	if len(m) == 0 {
		delete(h.byUser, c.UserID)
		return true
	}
	return false
}

func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID]) > 0
}

// SyncPresence calls write with the user's current connection state. Calls
// for the same user are serialized and read the state under the lock, so the
// last write always matches the hub even when a connect and a disconnect
// overlap.
func (h *Hub) SyncPresence(userID string, write func(online bool)) {
	f := fnv.New32a()
	_, _ = f.Write([]byte(userID))
	mu := &h.presence[f.Sum32()%presenceLocks]

	mu.Lock()
	defer mu.Unlock()
	write(h.IsOnline(userID))
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, m := range h.byUser {
		n += len(m)
	}
	return n
}

func (h *Hub) clientsOf(userID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	m := h.byUser[userID]
	clients := make([]*Client, 0, len(m))
	for c := range m {
		clients = append(clients, c)
	}
	return clients
}

// DeliverToUser pushes the event to every connection of userID. A user with
// no connection is not an error; a full send buffer is.
func (h *Hub) DeliverToUser(userID string, event services.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("error encoding event: %v", err)
	}
	dropped := 0
	for _, c := range h.clientsOf(userID) {
		if !c.enqueue(data) {
			dropped++
		}
	}
	if dropped > 0 {
		return fmt.Errorf("dropped event for %d connection(s) of user %s", dropped, userID)
	}
	return nil
}

// PublishPresence tells every other connected user that userID went online or
// offline.
func (h *Hub) PublishPresence(userID string, online bool, at time.Time) {
	data, err := json.Marshal(services.Event{
		Type: services.EventPresence,
		Data: services.PresenceUpdate{UserID: userID, IsOnline: online, LastActive: at},
	})
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0)
	for uid, m := range h.byUser {
		if uid == userID {
			continue
		}
		for c := range m {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.enqueue(data)
	}
}
