// Package media turns storage-relative object keys into URLs the UI can load.
package media

import (
	"context"
	"regexp"
	"strings"

	"sync-photo-client/internal/models"

	"github.com/rs/zerolog/log"
)

var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// Presigner issues time-limited URLs for private objects
type Presigner interface {
	PresignGet(ctx context.Context, key string) (string, error)
}

// Resolver builds media URLs from object keys
type Resolver struct {
	baseURL   string
	bucket    string
	presigner Presigner
}

// NewResolver creates a resolver for <baseURL>/<bucket>/<key> URLs.
// presigner may be nil.
func NewResolver(baseURL, bucket string, presigner Presigner) *Resolver {
	return &Resolver{
		baseURL:   strings.TrimRight(baseURL, "/"),
		bucket:    strings.Trim(bucket, "/"),
		presigner: presigner,
	}
}

// PublicURL returns the public URL for key. Keys that already carry a URL
// scheme are returned verbatim. ok is false for an empty key.
func (r *Resolver) PublicURL(key string) (string, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false
	}
	if schemePattern.MatchString(key) {
		return key, true
	}
	return r.baseURL + "/" + r.bucket + "/" + strings.TrimLeft(key, "/"), true
}

// GroupImageURL resolves the group's image from its primary or legacy fields
func (r *Resolver) GroupImageURL(g models.Group) (string, bool) {
	key, ok := g.ImageSource()
	if !ok {
		return "", false
	}
	return r.PublicURL(key)
}

// PhotoURL resolves the full-size image of a photo
func (r *Resolver) PhotoURL(p models.Photo) (string, bool) {
	key, ok := p.ImageSource()
	if !ok {
		return "", false
	}
	return r.PublicURL(key)
}

// ThumbnailURL resolves the thumbnail, falling back to the full-size image
func (r *Resolver) ThumbnailURL(p models.Photo) (string, bool) {
	if key, ok := p.ThumbnailSource(); ok {
		return r.PublicURL(key)
	}
	return r.PhotoURL(p)
}

// ViewURL prefers a presigned URL and falls back to the public one when
// presigning is not configured or fails. Absolute URLs are never presigned.
func (r *Resolver) ViewURL(ctx context.Context, key string) (string, bool) {
	public, ok := r.PublicURL(key)
	if !ok {
		return "", false
	}
	if r.presigner == nil || schemePattern.MatchString(strings.TrimSpace(key)) {
		return public, true
	}

	signed, err := r.presigner.PresignGet(ctx, strings.TrimLeft(strings.TrimSpace(key), "/"))
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to presign media URL")
		return public, true
	}
	return signed, true
}
