package models

import (
	"strings"
	"time"
)

// Session represents the authenticated user and credential on this device
type Session struct {
	Token     string  `json:"token,omitempty"`
	UserID    string  `json:"user_id,omitempty"`
	Email     string  `json:"email,omitempty"`
	Username  *string `json:"username,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// IsLoggedIn reports whether the session carries a token
func (s Session) IsLoggedIn() bool {
	return s.Token != ""
}

// User represents the account returned by the backend
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Username  *string    `json:"username,omitempty"`
	AvatarURL *string    `json:"avatarUrl,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Group represents a photo-sharing group
type Group struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	JoinCode    string     `json:"joinCode"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	MemberCount int        `json:"memberCount,omitempty"`

	// ImagePath is the current image field; the rest are older aliases some
	// backends still send.
	ImagePath     *string `json:"imagePath,omitempty"`
	ImageKey      *string `json:"imageKey,omitempty"`
	CoverImageKey *string `json:"coverImageKey,omitempty"`
	S3Key         *string `json:"s3Key,omitempty"`
}

// ImageSource returns the first non-empty image key, in priority order
func (g Group) ImageSource() (string, bool) {
	return firstNonEmpty(g.ImagePath, g.ImageKey, g.CoverImageKey, g.S3Key)
}

// Photo represents a photo uploaded to a group
type Photo struct {
	ID                 string     `json:"id"`
	GroupID            string     `json:"groupId,omitempty"`
	OriginalImageKey   *string    `json:"originalImageKey,omitempty"`
	ThumbnailKey       *string    `json:"thumbnailKey,omitempty"`
	S3Key              *string    `json:"s3Key,omitempty"`
	UploadedBy         *string    `json:"uploadedBy,omitempty"`
	UploadedByUsername *string    `json:"uploadedByUsername,omitempty"`
	UploadedAt         *time.Time `json:"uploadedAt,omitempty"`
	CapturedAt         *time.Time `json:"capturedAt,omitempty"`
	FileSizeBytes      *int64     `json:"fileSizeBytes,omitempty"`
	LikeCount          int        `json:"likeCount"`
	LikedByMe          bool       `json:"likedByMe"`
}

// ImageSource returns the key of the full-size image, preferring the current field
func (p Photo) ImageSource() (string, bool) {
	return firstNonEmpty(p.OriginalImageKey, p.S3Key)
}

// ThumbnailSource returns the thumbnail key if the photo has one
func (p Photo) ThumbnailSource() (string, bool) {
	return firstNonEmpty(p.ThumbnailKey)
}

// String returns a pointer to s, or nil when s is empty
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or ""
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(values ...*string) (string, bool) {
	for _, v := range values {
		if v != nil && strings.TrimSpace(*v) != "" {
			return *v, true
		}
	}
	return "", false
}
