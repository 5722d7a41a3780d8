// Package hub fans group events out to connected websocket clients.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"sync-photo-client/internal/realtime"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeTimeout = 10 * time.Second

// MemberLister returns the user IDs belonging to a group
type MemberLister interface {
	ListMembers(ctx context.Context, groupID string) ([]string, error)
}

type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub manages WebSocket connections, one per user
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*client
	members     MemberLister
}

// NewHub creates a new WebSocket hub
func NewHub(members MemberLister) *Hub {
	return &Hub{
		connections: make(map[string]*client),
		members:     members,
	}
}

// Register registers a connection for a user, closing any previous one
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, exists := h.connections[userID]; exists {
		existing.conn.Close()
	}
	h.connections[userID] = &client{conn: conn}

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes the user's connection if it is still conn
func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, exists := h.connections[userID]; exists && c.conn == conn {
		c.conn.Close()
		delete(h.connections, userID)
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
}

// IsOnline checks if a user is connected
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[userID]
	return exists
}

// SendToUser sends an event to a specific user
func (h *Hub) SendToUser(userID string, event realtime.Event) error {
	h.mu.RLock()
	c, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := c.write(data); err != nil {
		h.Unregister(userID, c.conn)
		return fmt.Errorf("failed to send event: %w", err)
	}
	return nil
}

// BroadcastToGroup sends an event to every connected member of a group except the actor
func (h *Hub) BroadcastToGroup(ctx context.Context, groupID string, event realtime.Event) {
	members, err := h.members.ListMembers(ctx, groupID)
	if err != nil {
		log.Error().Err(err).Str("group_id", groupID).Msg("Failed to list group members")
		return
	}

	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	event.GroupID = groupID

	sent := 0
	for _, userID := range members {
		if userID == event.ActorID || !h.IsOnline(userID) {
			continue
		}
		if err := h.SendToUser(userID, event); err != nil {
			log.Error().Err(err).Str("user_id", userID).Str("type", event.Type).Msg("Failed to send event")
			continue
		}
		sent++
	}

	log.Debug().
		Str("group_id", groupID).
		Str("type", event.Type).
		Int("recipients", sent).
		Msg("Event broadcast")
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, c := range h.connections {
		c.mu.Lock()
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		c.mu.Unlock()
		c.conn.Close()
		delete(h.connections, userID)
	}
}
