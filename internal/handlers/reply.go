package handlers

import (
	"net/http"
	"strconv"

	"ephemeral-photo-backend/internal/middleware"
	"ephemeral-photo-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ReplyHandler handles replies and notifications
type ReplyHandler struct {
	replyService *services.ReplyService
}

// NewReplyHandler creates a new reply handler
func NewReplyHandler(replyService *services.ReplyService) *ReplyHandler {
	return &ReplyHandler{
		replyService: replyService,
	}
}

// SendReply handles POST /api/v1/posts/{post_id}/replies
func (h *ReplyHandler) SendReply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.ReplyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBodyError(w, err)
		return
	}

	reply, err := h.replyService.SendReply(ctx, userID, chi.URLParam(r, "post_id"), req.Message)
	if err != nil {
		respondServiceError(w, err, "send reply")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("post_id", reply.PostID).
		Str("reply_id", reply.ID).
		Msg("Reply sent")

	respondJSON(w, http.StatusCreated, reply)
}

// ListReplies handles GET /api/v1/posts/{post_id}/replies
func (h *ReplyHandler) ListReplies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	replies, err := h.replyService.ListReplies(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "post_id"))
	if err != nil {
		respondServiceError(w, err, "list replies")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"replies": replies,
		"total":   len(replies),
	})
}

// GetNotifications handles GET /api/v1/notifications
func (h *ReplyHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil {
			limit = parsedLimit
		}
	}

	resp, err := h.replyService.Notifications(ctx, middleware.GetUserID(ctx), limit)
	if err != nil {
		respondServiceError(w, err, "load notifications")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// MarkSeen handles POST /api/v1/notifications/{notification_id}/seen
func (h *ReplyHandler) MarkSeen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.replyService.MarkSeen(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "notification_id")); err != nil {
		respondServiceError(w, err, "mark notification seen")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
