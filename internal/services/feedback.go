package services

import (
	"context"
	"errors"
	"strings"

	"sync-photo-client/internal/models"
	"sync-photo-client/internal/remote"

	"github.com/rs/zerolog/log"
)

// ErrEmptyFeedback is returned when the feedback message is blank
var ErrEmptyFeedback = errors.New("feedback message is required")

// FeedbackService sends user feedback
type FeedbackService struct {
	client     remote.Client
	appVersion string
}

// NewFeedbackService creates a new feedback service
func NewFeedbackService(client remote.Client, appVersion string) *FeedbackService {
	return &FeedbackService{
		client:     client,
		appVersion: appVersion,
	}
}

// Submit sends a feedback message tagged with the app version
func (s *FeedbackService) Submit(ctx context.Context, message string, category *string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return ErrEmptyFeedback
	}

	req := remote.FeedbackRequest{
		Message:    message,
		Category:   category,
		AppVersion: models.String(s.appVersion),
	}
	if err := s.client.SubmitFeedback(ctx, req); err != nil {
		return err
	}

	log.Info().Int("length", len(message)).Msg("Feedback submitted")
	return nil
}
