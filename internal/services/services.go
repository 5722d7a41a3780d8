// Package services coordinates the remote client, session store and entity cache.
package services

import (
	"fmt"

	"sync-photo-client/internal/cache"
	"sync-photo-client/internal/config"
	"sync-photo-client/internal/media"
	"sync-photo-client/internal/remote"
	"sync-photo-client/internal/session"
)

// Services bundles the coordinators the app drives
type Services struct {
	Users    *UserService
	Groups   *GroupService
	Photos   *PhotoService
	Likes    *LikeService
	Feedback *FeedbackService
}

// New wires the coordinators around shared client, session and cache instances
func New(
	client remote.Client,
	store *session.Store,
	c *cache.Cache,
	resolver *media.Resolver,
	cfg config.SyncConfig,
	appVersion string,
) (*Services, error) {
	policy, err := ParseRollbackPolicy(cfg.LikeRollback)
	if err != nil {
		return nil, fmt.Errorf("failed to configure likes: %w", err)
	}

	likes := NewLikeService(client, policy)
	groups := NewGroupService(client, c)
	return &Services{
		Users:    NewUserService(client, store, c, likes),
		Groups:   groups,
		Photos:   NewPhotoService(client, c, likes, resolver, cfg.FeedConcurrency),
		Likes:    likes,
		Feedback: NewFeedbackService(client, appVersion),
	}, nil
}
