// Package repository persists users, groups, photos, likes and feedback for the backend.
package repository

import (
	"context"
	"errors"
	"time"

	"sync-photo-client/internal/models"
)

var (
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a write would violate a uniqueness constraint
	ErrConflict = errors.New("record conflict")
)

// UserRecord is a user together with its password hash
type UserRecord struct {
	models.User
	PasswordHash string
}

// PhotoRecord is a stored photo without viewer-dependent fields
type PhotoRecord struct {
	ID               string
	GroupID          string
	OriginalImageKey string
	ThumbnailKey     *string
	UploadedBy       string
	UploadedAt       time.Time
	CapturedAt       *time.Time
	FileSizeBytes    int64
}

// Feedback is a message submitted from the app
type Feedback struct {
	ID         string
	UserID     string
	Message    string
	Category   *string
	AppVersion *string
	CreatedAt  time.Time
}

// Store is the persistence surface the handlers depend on
type Store interface {
	CreateUser(ctx context.Context, user UserRecord) error
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	UpdateUserProfile(ctx context.Context, id string, username, avatarURL *string) (models.User, error)

	CreateGroup(ctx context.Context, group models.Group, ownerID string) error
	GetGroup(ctx context.Context, id string) (models.Group, error)
	GetGroupByJoinCode(ctx context.Context, code string) (models.Group, error)
	JoinCodeExists(ctx context.Context, code string) (bool, error)
	ListGroupsByUser(ctx context.Context, userID string) ([]models.Group, error)
	AddMember(ctx context.Context, groupID, userID string) error
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	ListMembers(ctx context.Context, groupID string) ([]string, error)

	CreatePhoto(ctx context.Context, photo PhotoRecord) error
	ListPhotos(ctx context.Context, groupID, viewerID string) ([]models.Photo, error)
	SetLike(ctx context.Context, groupID, photoID, userID string, liked bool) (int, error)

	CreateFeedback(ctx context.Context, feedback Feedback) error
}

// Photo returns the record's wire shape without viewer-dependent fields
func (r PhotoRecord) Photo() models.Photo {
	return toPhoto(r)
}
