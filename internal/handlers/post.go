package handlers

import (
	"net/http"

	"ephemeral-photo-backend/internal/middleware"
	"ephemeral-photo-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// PostHandler handles post-related HTTP requests
type PostHandler struct {
	postService *services.PostService
}

// NewPostHandler creates a new post handler
func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
	}
}

// GetFeed handles GET /api/v1/feed
func (h *PostHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	items, err := h.postService.Feed(r.Context())
	if err != nil {
		respondServiceError(w, err, "load feed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"total": len(items),
	})
}

// CreatePost handles POST /api/v1/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.CreatePostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBodyError(w, err)
		return
	}

	resp, err := h.postService.CreatePost(ctx, userID, req)
	if err != nil {
		respondServiceError(w, err, "create post")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("post_id", resp.Post.ID).
		Bool("media_fallback", resp.MediaFallback).
		Msg("Post created")

	respondJSON(w, http.StatusCreated, resp)
}

// GetMyPosts handles GET /api/v1/posts/mine
func (h *PostHandler) GetMyPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := h.postService.MyPosts(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, err, "load posts")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"total": len(items),
	})
}

// GetPost handles GET /api/v1/posts/{post_id}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.postService.GetPost(r.Context(), chi.URLParam(r, "post_id"))
	if err != nil {
		respondServiceError(w, err, "get post")
		return
	}

	respondJSON(w, http.StatusOK, post)
}

// UpdatePost handles PATCH /api/v1/posts/{post_id}
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.UpdatePostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBodyError(w, err)
		return
	}

	post, err := h.postService.UpdatePost(ctx, userID, chi.URLParam(r, "post_id"), req)
	if err != nil {
		respondServiceError(w, err, "update post")
		return
	}

	respondJSON(w, http.StatusOK, post)
}

// DeletePost handles DELETE /api/v1/posts/{post_id}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	postID := chi.URLParam(r, "post_id")

	if err := h.postService.DeletePost(ctx, userID, postID); err != nil {
		respondServiceError(w, err, "delete post")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("post_id", postID).
		Msg("Post deleted")

	w.WriteHeader(http.StatusNoContent)
}
