// Package remote is the typed client for the photo-sharing backend.
package remote

import (
	"context"
	"time"

	"sync-photo-client/internal/models"
)

// StatusSuccess is the only status value that marks a successful response
const StatusSuccess = "success"

// Response is the envelope every backend response is wrapped in
type Response[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
}

// SignInRequest represents a request to sign in with email and password
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpRequest represents a request to create an account
type SignUpRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Username *string `json:"username,omitempty"`
}

// AuthResult is returned by sign-in and sign-up
type AuthResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// UpdateProfileRequest represents a profile patch. Nil fields are left unchanged.
type UpdateProfileRequest struct {
	Username  *string `json:"username,omitempty"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

// CreateGroupRequest represents a request to create a group
type CreateGroupRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// JoinGroupRequest represents a request to join a group by code
type JoinGroupRequest struct {
	JoinCode string `json:"joinCode"`
}

// FeedbackRequest represents user feedback sent from the app
type FeedbackRequest struct {
	Message    string  `json:"message"`
	Category   *string `json:"category,omitempty"`
	AppVersion *string `json:"appVersion,omitempty"`
}

// LikeResult is the server's view of a photo after a like or unlike
type LikeResult struct {
	PhotoID   string `json:"photoId"`
	LikeCount int    `json:"likeCount"`
	Liked     bool   `json:"liked"`
}

// Client is the backend surface the sync layer depends on
type Client interface {
	SignIn(ctx context.Context, req SignInRequest) (AuthResult, error)
	SignUp(ctx context.Context, req SignUpRequest) (AuthResult, error)
	GetCurrentUser(ctx context.Context) (models.User, error)
	UpdateProfile(ctx context.Context, req UpdateProfileRequest) (models.User, error)
	CreateGroup(ctx context.Context, req CreateGroupRequest) (models.Group, error)
	GetAllGroups(ctx context.Context) ([]models.Group, error)
	GetGroupDetail(ctx context.Context, groupID string) (models.Group, error)
	JoinGroup(ctx context.Context, req JoinGroupRequest) (models.Group, error)
	GetGroupPhotos(ctx context.Context, groupID string) ([]models.Photo, error)
	UploadPhoto(ctx context.Context, groupID string, image []byte, capturedAt *time.Time) (models.Photo, error)
	LikePhoto(ctx context.Context, groupID, photoID string) (LikeResult, error)
	UnlikePhoto(ctx context.Context, groupID, photoID string) (LikeResult, error)
	SubmitFeedback(ctx context.Context, req FeedbackRequest) error
}
