package handlers

import (
	"net/http"

	"ephemeral-photo-backend/internal/middleware"
	"ephemeral-photo-backend/internal/services"
)

// ProfileHandler handles the caller's profile
type ProfileHandler struct {
	profileService *services.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

// GetProfile handles GET /api/v1/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile, err := h.profileService.GetProfile(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, err, "load profile")
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/v1/profile
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBodyError(w, err)
		return
	}

	profile, err := h.profileService.UpdateProfile(ctx, middleware.GetUserID(ctx), req)
	if err != nil {
		respondServiceError(w, err, "update profile")
		return
	}

	respondJSON(w, http.StatusOK, profile)
}
