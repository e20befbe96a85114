package handlers

import (
	"net/http"

	"ephemeral-photo-backend/internal/discovery"
	"ephemeral-photo-backend/internal/middleware"
	"ephemeral-photo-backend/internal/services"
)

// DiscoverHandler serves tag chips, tag filtering and search
type DiscoverHandler struct {
	discoverService *services.DiscoverService
}

// NewDiscoverHandler creates a new discover handler
func NewDiscoverHandler(discoverService *services.DiscoverService) *DiscoverHandler {
	return &DiscoverHandler{
		discoverService: discoverService,
	}
}

// GetTags handles GET /api/v1/discover/tags
func (h *DiscoverHandler) GetTags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tags, err := h.discoverService.Tags(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, err, "load tags")
		return
	}

	respondJSON(w, http.StatusOK, tags)
}

// GetByTag handles GET /api/v1/discover?tag=&match=
func (h *DiscoverHandler) GetByTag(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	tag := query.Get("tag")
	if tag == "" {
		respondError(w, "tag is required", http.StatusBadRequest)
		return
	}

	items, err := h.discoverService.ByTag(r.Context(), tag, discovery.ParseMatchMode(query.Get("match")))
	if err != nil {
		respondServiceError(w, err, "filter posts")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tag":   tag,
		"items": items,
		"total": len(items),
	})
}

// Search handles GET /api/v1/discover/search?q=
func (h *DiscoverHandler) Search(w http.ResponseWriter, r *http.Request) {
	result, err := h.discoverService.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondServiceError(w, err, "search posts")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
