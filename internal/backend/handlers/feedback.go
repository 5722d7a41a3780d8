package handlers

import (
	"net/http"
	"strings"
	"time"

	"sync-photo-client/internal/backend/middleware"
	"sync-photo-client/internal/backend/repository"
	"sync-photo-client/internal/remote"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const maxFeedbackLength = 4000

// FeedbackHandler stores feedback sent from the app
type FeedbackHandler struct {
	store repository.Store
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(store repository.Store) *FeedbackHandler {
	return &FeedbackHandler{store: store}
}

// SubmitFeedback handles POST /api/v1/feedback
func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req remote.FeedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		respondError(w, "message is required", http.StatusBadRequest)
		return
	}
	if len(message) > maxFeedbackLength {
		respondError(w, "message is too long", http.StatusBadRequest)
		return
	}

	feedback := repository.Feedback{
		ID:         uuid.NewString(),
		UserID:     userID,
		Message:    message,
		Category:   req.Category,
		AppVersion: req.AppVersion,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.store.CreateFeedback(ctx, feedback); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to save feedback")
		respondError(w, "Failed to save feedback", http.StatusInternalServerError)
		return
	}

	log.Info().Str("user_id", userID).Str("feedback_id", feedback.ID).Msg("Feedback received")
	respondJSON(w, nil, http.StatusCreated)
}
