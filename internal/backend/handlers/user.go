package handlers

import (
	"net/http"
	"strings"

	"sync-photo-client/internal/backend/middleware"
	"sync-photo-client/internal/backend/repository"
	"sync-photo-client/internal/remote"

	"github.com/rs/zerolog/log"
)

// UserHandler handles profile requests for the signed-in user
type UserHandler struct {
	store repository.Store
}

// NewUserHandler creates a new user handler
func NewUserHandler(store repository.Store) *UserHandler {
	return &UserHandler{store: store}
}

// GetMe handles GET /api/v1/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	user, err := h.store.GetUserByID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get user")
		respondError(w, "User not found", storeStatus(err))
		return
	}
	respondJSON(w, user, http.StatusOK)
}

// UpdateMe handles PATCH /api/v1/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req remote.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Username != nil {
		trimmed := strings.TrimSpace(*req.Username)
		if trimmed == "" {
			respondError(w, "username cannot be empty", http.StatusBadRequest)
			return
		}
		req.Username = &trimmed
	}

	user, err := h.store.UpdateUserProfile(ctx, userID, req.Username, req.AvatarURL)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to update profile")
		respondError(w, "Failed to update profile", storeStatus(err))
		return
	}

	log.Info().Str("user_id", userID).Msg("Profile updated")
	respondJSON(w, user, http.StatusOK)
}
