package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"ephemeral-photo-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

var (
	feedBroadcastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_broadcasts_total",
		Help: "Total number of feed snapshots rebuilt after a change",
	})

	wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections",
		Help: "Number of open WebSocket connections",
	})
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type           string      `json:"type"`
	Timestamp      int64       `json:"timestamp,omitempty"`
	PostID         string      `json:"post_id,omitempty"`
	NotificationID string      `json:"notification_id,omitempty"`
	Unseen         *int        `json:"unseen,omitempty"`
	Message        string      `json:"message,omitempty"`
	Data           interface{} `json:"data,omitempty"`
}

// WSConn is the part of a WebSocket connection the hub writes to
type WSConn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// FeedSource builds the current feed snapshot
type FeedSource interface {
	Feed(ctx context.Context) ([]models.FeedItem, error)
}

// UnseenCounter reports how many notifications a user has not seen
type UnseenCounter interface {
	UnseenCount(ctx context.Context, recipientID string) (int, error)
}

type wsClient struct {
	conn    WSConn
	writeMu sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages WebSocket connections and pushes full feed snapshots on every change
type WSHub struct {
	mu      sync.RWMutex
	clients map[string]*wsClient
	feed    FeedSource
	unseen  UnseenCounter

	// snapshotMu is held from building a snapshot until it is written, so a
	// snapshot built earlier never reaches a client after one built later
	snapshotMu sync.Mutex
}

// NewWSHub creates a new WebSocket hub
func NewWSHub(feed FeedSource, unseen UnseenCounter) *WSHub {
	return &WSHub{
		clients: make(map[string]*wsClient),
		feed:    feed,
		unseen:  unseen,
	}
}

// Register registers a connection for a user, replacing any previous one
func (h *WSHub) Register(userID string, conn WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, exists := h.clients[userID]; exists {
		existing.conn.Close()
	} else {
		wsConnections.Inc()
	}

	h.clients[userID] = &wsClient{conn: conn}

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes the connection of a user if it is still conn
func (h *WSHub) Unregister(userID string, conn WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, exists := h.clients[userID]; exists && client.conn == conn {
		client.conn.Close()
		delete(h.clients, userID)
		wsConnections.Dec()
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
}

// IsOnline checks if a user is connected
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.clients[userID]
	return exists
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	client, exists := h.clients[userID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := client.write(data); err != nil {
		h.Unregister(userID, client.conn)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// SendSnapshot sends the current feed to one user
func (h *WSHub) SendSnapshot(ctx context.Context, userID string) error {
	h.snapshotMu.Lock()
	defer h.snapshotMu.Unlock()

	items, err := h.feed.Feed(ctx)
	if err != nil {
		return fmt.Errorf("failed to build feed: %w", err)
	}
	return h.SendToUser(userID, snapshotMessage(items))
}

// Run applies changes in arrival order until ctx is done or changes closes
func (h *WSHub) Run(ctx context.Context, changes <-chan models.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			h.HandleChange(ctx, change)
		}
	}
}

// HandleChange rebuilds the feed and pushes the full result set to every
// connected user. Reply changes additionally notify the recipient.
func (h *WSHub) HandleChange(ctx context.Context, change models.Change) {
	if change.Kind == models.ChangeReply {
		h.notifyReply(ctx, change)
		return
	}

	if len(h.connectedUsers()) == 0 {
		return
	}

	h.snapshotMu.Lock()
	defer h.snapshotMu.Unlock()

	items, err := h.feed.Feed(ctx)
	if err != nil {
		log.Error().Err(err).Str("kind", string(change.Kind)).Msg("Failed to rebuild feed")
		return
	}
	feedBroadcastsTotal.Inc()

	h.Broadcast(snapshotMessage(items))
}

// Broadcast sends message to every connected user
func (h *WSHub) Broadcast(message WSMessage) {
	for _, userID := range h.connectedUsers() {
		if err := h.SendToUser(userID, message); err != nil {
			log.Error().Err(err).Str("user_id", userID).Str("type", message.Type).Msg("Failed to broadcast")
		}
	}
}

// Close closes every connection
func (h *WSHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, client := range h.clients {
		client.conn.Close()
		delete(h.clients, userID)
		wsConnections.Dec()
	}
}

func (h *WSHub) notifyReply(ctx context.Context, change models.Change) {
	if change.RecipientID == "" || !h.IsOnline(change.RecipientID) {
		return
	}

	message := WSMessage{
		Type:      "notification",
		PostID:    change.PostID,
		Timestamp: change.At.UnixMilli(),
	}

	if unseen, err := h.unseen.UnseenCount(ctx, change.RecipientID); err == nil {
		message.Unseen = &unseen
	} else {
		log.Error().Err(err).Str("user_id", change.RecipientID).Msg("Failed to count notifications")
	}

	if err := h.SendToUser(change.RecipientID, message); err != nil {
		log.Error().Err(err).Str("user_id", change.RecipientID).Msg("Failed to send notification")
	}
}

func (h *WSHub) connectedUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		users = append(users, userID)
	}
	return users
}

func snapshotMessage(items []models.FeedItem) WSMessage {
	return WSMessage{
		Type:      "feed_snapshot",
		Timestamp: time.Now().UnixMilli(),
		Data:      items,
	}
}
