package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Event is a message delivered over a real-time channel
type Event struct {
	Type    string      `json:"type"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Conn is the channel handle tracked by the hub. *websocket.Conn satisfies
// it; tests use fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// TextMessage mirrors websocket.TextMessage so hub callers and fakes don't
// need the websocket package.
const TextMessage = 1

// RecipeTopic names the broadcast topic for one recipe's discussion
func RecipeTopic(recipeID string) string {
	return "recipe:" + recipeID
}

// WSHub tracks live connections per user and topic subscriptions per
// connection. All state is process-local; a restart loses it and clients
// must re-handshake. Delivery is fire-and-forget, at most once.
type WSHub struct {
	mu     sync.RWMutex
	conns  map[string]Conn
	topics map[string]map[string]struct{} // topic -> user ids
	joined map[string]map[string]struct{} // user id -> topics
}

// NewWSHub creates a new hub
func NewWSHub() *WSHub {
	return &WSHub{
		conns:  make(map[string]Conn),
		topics: make(map[string]map[string]struct{}),
		joined: make(map[string]map[string]struct{}),
	}
}

// Register tracks a connection for a user. A prior connection for the same
// user is closed and replaced, with its topic memberships dropped: last
// connection wins and starts with a clean subscription set.
func (h *WSHub) Register(userID string, conn Conn) {
	h.mu.Lock()
	if existing, ok := h.conns[userID]; ok {
		existing.Close()
		h.dropTopicsLocked(userID)
	}
	h.conns[userID] = conn
	h.mu.Unlock()

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes a user's connection and drops its topic memberships,
// but only when conn is still the tracked connection. The handler of a
// connection displaced by a reconnect still runs its cleanup after the new
// connection registered; matching on identity keeps that cleanup from
// tearing down the newer connection. Reports whether anything was removed.
func (h *WSHub) Unregister(userID string, conn Conn) bool {
	h.mu.Lock()
	current, ok := h.conns[userID]
	if !ok || current != conn {
		h.mu.Unlock()
		return false
	}
	delete(h.conns, userID)
	h.dropTopicsLocked(userID)
	h.mu.Unlock()

	conn.Close()
	log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	return true
}

func (h *WSHub) dropTopicsLocked(userID string) {
	for topic := range h.joined[userID] {
		delete(h.topics[topic], userID)
		if len(h.topics[topic]) == 0 {
			delete(h.topics, topic)
		}
	}
	delete(h.joined, userID)
}

// Lookup returns the user's current channel, if connected
func (h *WSHub) Lookup(userID string) (Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conn, ok := h.conns[userID]
	return conn, ok
}

// IsOnline checks if a user has a live connection
func (h *WSHub) IsOnline(userID string) bool {
	_, ok := h.Lookup(userID)
	return ok
}

// OnlineUsers returns the IDs of all connected users
func (h *WSHub) OnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	users := make([]string, 0, len(h.conns))
	for userID := range h.conns {
		users = append(users, userID)
	}
	return users
}

// JoinTopic subscribes a connected user to a topic. Joining without a live
// connection is ignored.
func (h *WSHub) JoinTopic(userID, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[userID]; !ok {
		return
	}
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[string]struct{})
	}
	h.topics[topic][userID] = struct{}{}
	if h.joined[userID] == nil {
		h.joined[userID] = make(map[string]struct{})
	}
	h.joined[userID][topic] = struct{}{}
}

// LeaveTopic unsubscribes a user from a topic
func (h *WSHub) LeaveTopic(userID, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.topics[topic], userID)
	if len(h.topics[topic]) == 0 {
		delete(h.topics, topic)
	}
	delete(h.joined[userID], topic)
}

// SendToUser delivers an event to one user. A disconnected recipient is a
// silent no-op; there is no queued or offline delivery.
func (h *WSHub) SendToUser(userID string, event Event) error {
	conn, ok := h.Lookup(userID)
	if !ok {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := conn.WriteMessage(TextMessage, data); err != nil {
		h.Unregister(userID, conn)
		return fmt.Errorf("failed to send event: %w", err)
	}
	return nil
}

// BroadcastToTopic delivers an event to every user subscribed to a topic,
// optionally excluding one user (usually the originator).
func (h *WSHub) BroadcastToTopic(topic string, event Event, excludeUserID string) {
	h.mu.RLock()
	members := make([]string, 0, len(h.topics[topic]))
	for userID := range h.topics[topic] {
		if userID != excludeUserID {
			members = append(members, userID)
		}
	}
	h.mu.RUnlock()

	for _, userID := range members {
		if err := h.SendToUser(userID, event); err != nil {
			log.Error().Err(err).Str("user_id", userID).Str("topic", topic).Msg("Failed to deliver topic event")
		}
	}
}

// BroadcastAll delivers an event to every connected user, optionally
// excluding one.
func (h *WSHub) BroadcastAll(event Event, excludeUserID string) {
	h.mu.RLock()
	users := make([]string, 0, len(h.conns))
	for userID := range h.conns {
		if userID != excludeUserID {
			users = append(users, userID)
		}
	}
	h.mu.RUnlock()

	for _, userID := range users {
		if err := h.SendToUser(userID, event); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to deliver broadcast event")
		}
	}
}

// CloseAll closes every connection, for shutdown
func (h *WSHub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conn := range h.conns {
		conn.Close()
		delete(h.conns, userID)
	}
	h.topics = make(map[string]map[string]struct{})
	h.joined = make(map[string]map[string]struct{})
}
