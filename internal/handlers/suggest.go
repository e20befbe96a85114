package handlers

import (
	"net/http"

	"ephemeral-photo-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// SuggestionHandler serves caption, tag and reply suggestions
type SuggestionHandler struct {
	suggestionService *services.SuggestionService
}

// NewSuggestionHandler creates a new suggestion handler
func NewSuggestionHandler(suggestionService *services.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{
		suggestionService: suggestionService,
	}
}

// Suggest handles POST /api/v1/suggestions/{kind}
func (h *SuggestionHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	kind, err := services.ParseSuggestionKind(chi.URLParam(r, "kind"))
	if err != nil {
		respondServiceError(w, err, "suggest")
		return
	}

	var req services.SuggestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBodyError(w, err)
		return
	}

	resp, err := h.suggestionService.Suggest(r.Context(), kind, req.Context)
	if err != nil {
		respondServiceError(w, err, "suggest")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}
