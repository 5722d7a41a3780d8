package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"sync-photo-client/internal/cache"
	"sync-photo-client/internal/media"
	"sync-photo-client/internal/models"
	"sync-photo-client/internal/remote"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const defaultFeedConcurrency = 4

// ErrEmptyImage is returned when uploading zero bytes
var ErrEmptyImage = errors.New("image is empty")

// PhotoService handles photo listing, feed and upload flows
type PhotoService struct {
	client      remote.Client
	cache       *cache.Cache
	likes       *LikeService
	resolver    *media.Resolver
	concurrency int
}

// NewPhotoService creates a new photo service
func NewPhotoService(client remote.Client, c *cache.Cache, likes *LikeService, resolver *media.Resolver, concurrency int) *PhotoService {
	if concurrency <= 0 {
		concurrency = defaultFeedConcurrency
	}
	return &PhotoService{
		client:      client,
		cache:       c,
		likes:       likes,
		resolver:    resolver,
		concurrency: concurrency,
	}
}

// LoadGroupPhotos fetches a group's photos and replaces its cached list.
// On failure the cache is left as it was.
func (s *PhotoService) LoadGroupPhotos(ctx context.Context, groupID string) ([]models.Photo, error) {
	photos, err := s.client.GetGroupPhotos(ctx, groupID)
	if err != nil {
		log.Warn().Err(err).Str("group_id", groupID).Msg("Failed to load group photos")
		return nil, err
	}

	s.cache.ReplaceGroupPhotos(groupID, photos)
	s.likes.Seed(photos)
	return photos, nil
}

// LoadFeed fetches every group and its photos, then replaces the groups, each
// group's photos and the feed. Any failure leaves the cache untouched.
func (s *PhotoService) LoadFeed(ctx context.Context) ([]models.Photo, error) {
	groups, err := s.client.GetAllGroups(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load feed groups")
		return nil, err
	}

	perGroup := make([][]models.Photo, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, group := range groups {
		g.Go(func() error {
			photos, err := s.client.GetGroupPhotos(gctx, group.ID)
			if err != nil {
				return fmt.Errorf("failed to load photos of group %s: %w", group.ID, err)
			}
			perGroup[i] = photos
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Msg("Failed to load feed")
		return nil, err
	}

	feed := make([]models.Photo, 0)
	for _, photos := range perGroup {
		feed = append(feed, photos...)
	}
	sortNewestFirst(feed)

	s.cache.ReplaceGroups(groups)
	for i, group := range groups {
		s.cache.ReplaceGroupPhotos(group.ID, perGroup[i])
	}
	s.cache.ReplaceFeed(feed)
	s.likes.Seed(feed)

	log.Debug().Int("groups", len(groups)).Int("photos", len(feed)).Msg("Feed loaded")
	return feed, nil
}

// UploadPhoto uploads an image to a group and refreshes that group's photos
func (s *PhotoService) UploadPhoto(ctx context.Context, groupID string, image []byte, capturedAt *time.Time) (models.Photo, error) {
	if strings.TrimSpace(groupID) == "" {
		return models.Photo{}, fmt.Errorf("group id is required")
	}
	if len(image) == 0 {
		return models.Photo{}, ErrEmptyImage
	}

	photo, err := s.client.UploadPhoto(ctx, groupID, image, capturedAt)
	if err != nil {
		return models.Photo{}, err
	}

	log.Info().Str("group_id", groupID).Str("photo_id", photo.ID).Int("bytes", len(image)).Msg("Photo uploaded")
	if _, err := s.LoadGroupPhotos(ctx, groupID); err != nil {
		log.Warn().Err(err).Str("group_id", groupID).Msg("Failed to refresh photos after upload")
	}
	return photo, nil
}

// ImageURL returns a viewable URL for the photo's full image
func (s *PhotoService) ImageURL(ctx context.Context, photo models.Photo) (string, bool) {
	key, ok := photo.ImageSource()
	if !ok || s.resolver == nil {
		return "", false
	}
	return s.resolver.ViewURL(ctx, key)
}

// ThumbnailURL returns a viewable URL for the photo's thumbnail, or its image
func (s *PhotoService) ThumbnailURL(ctx context.Context, photo models.Photo) (string, bool) {
	key, ok := photo.ThumbnailSource()
	if !ok {
		key, ok = photo.ImageSource()
	}
	if !ok || s.resolver == nil {
		return "", false
	}
	return s.resolver.ViewURL(ctx, key)
}

// sortNewestFirst orders photos by upload time, newest first. Photos without
// an upload time go last; ties keep fetch order.
func sortNewestFirst(photos []models.Photo) {
	slices.SortStableFunc(photos, func(a, b models.Photo) int {
		switch {
		case a.UploadedAt == nil && b.UploadedAt == nil:
			return 0
		case a.UploadedAt == nil:
			return 1
		case b.UploadedAt == nil:
			return -1
		default:
			return b.UploadedAt.Compare(*a.UploadedAt)
		}
	})
}
