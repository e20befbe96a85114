package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ephemeral-photo-backend/internal/middleware"
	"ephemeral-photo-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // native clients send no Origin
	},
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub          *services.WSHub
	userService  *services.UserService
	replyService *services.ReplyService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	userService *services.UserService,
	replyService *services.ReplyService,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:          hub,
		userService:  userService,
		replyService: replyService,
	}
}

// HandleWebSocket handles GET /ws?token=
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.ValidateWebSocketToken(r.URL.Query().Get("token"), h.userService)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	ctx := r.Context()
	if err := h.hub.SendSnapshot(ctx, userID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send initial feed")
	}

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			return
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket message")
			h.sendError(userID, "Invalid message format")
			continue
		}

		if err := h.handleMessage(ctx, userID, msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Str("type", msg.Type).Msg("Failed to handle message")
			h.sendError(userID, err.Error())
		}
	}
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(ctx context.Context, userID string, msg services.WSMessage) error {
	switch msg.Type {
	case "ping":
		return h.hub.SendToUser(userID, services.WSMessage{Type: "pong", Timestamp: time.Now().UnixMilli()})
	case "refresh":
		return h.hub.SendSnapshot(ctx, userID)
	case "mark_seen":
		return h.handleMarkSeen(ctx, userID, msg)
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

// handleMarkSeen marks a notification seen and reports the remaining unseen count
func (h *WebSocketHandler) handleMarkSeen(ctx context.Context, userID string, msg services.WSMessage) error {
	if msg.NotificationID == "" {
		return fmt.Errorf("notification_id is required")
	}

	if err := h.replyService.MarkSeen(ctx, userID, msg.NotificationID); err != nil {
		return fmt.Errorf("failed to mark notification seen")
	}

	unseen, err := h.replyService.UnseenCount(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to count notifications")
	}

	return h.hub.SendToUser(userID, services.WSMessage{
		Type:           "notifications",
		NotificationID: msg.NotificationID,
		Unseen:         &unseen,
	})
}

// sendError sends an error message to a user
func (h *WebSocketHandler) sendError(userID, message string) {
	msg := services.WSMessage{
		Type:    "error",
		Message: message,
	}
	if err := h.hub.SendToUser(userID, msg); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send error message")
	}
}
