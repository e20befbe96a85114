package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"ephemeral-photo-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 64 << 10

// decodeJSON reads the request body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// respondBodyError reports a body that decodeJSON rejected
func respondBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondError(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	respondError(w, "Invalid request body", http.StatusBadRequest)
}

// respondServiceError maps service errors to HTTP status codes.
// Unexpected errors are logged and reported without detail.
func respondServiceError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		respondError(w, strings.TrimPrefix(err.Error(), services.ErrInvalidInput.Error()+": "), http.StatusBadRequest)
	case errors.Is(err, services.ErrNotFound):
		respondError(w, "Not found", http.StatusNotFound)
	case errors.Is(err, services.ErrForbidden):
		respondError(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, services.ErrPostExpired):
		respondError(w, "Post expired", http.StatusGone)
	default:
		log.Error().Err(err).Msg("Failed to " + action)
		respondError(w, "Failed to "+action, http.StatusInternalServerError)
	}
}
