// Package handlers serves the REST API consumed by the sync client.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"sync-photo-client/internal/backend/repository"
	"sync-photo-client/internal/remote"
)

const maxJSONBody = 1 << 20

// respondJSON sends a success envelope wrapping data
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(remote.Response[any]{Status: remote.StatusSuccess, Data: data})
}

// respondError sends an error envelope
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(remote.Response[any]{Status: "error", Message: message})
}

// decodeJSON reads a bounded JSON request body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// storeStatus maps repository errors to HTTP status codes
func storeStatus(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
