package services

import (
	"context"
	"errors"
	"strings"

	"sync-photo-client/internal/cache"
	"sync-photo-client/internal/models"
	"sync-photo-client/internal/remote"

	"github.com/rs/zerolog/log"
)

var (
	// ErrEmptyGroupName is returned when creating a group without a name
	ErrEmptyGroupName = errors.New("group name is required")
	// ErrEmptyJoinCode is returned when joining without a code
	ErrEmptyJoinCode = errors.New("join code is required")
)

// GroupService handles group-related flows
type GroupService struct {
	client remote.Client
	cache  *cache.Cache
}

// NewGroupService creates a new group service
func NewGroupService(client remote.Client, c *cache.Cache) *GroupService {
	return &GroupService{
		client: client,
		cache:  c,
	}
}

// LoadGroups fetches the user's groups and replaces the cached list.
// On failure the cache is left as it was.
func (s *GroupService) LoadGroups(ctx context.Context) ([]models.Group, error) {
	groups, err := s.client.GetAllGroups(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load groups")
		return nil, err
	}

	s.cache.ReplaceGroups(groups)
	return groups, nil
}

// LoadGroupDetail fetches one group and updates its cached entry
func (s *GroupService) LoadGroupDetail(ctx context.Context, groupID string) (models.Group, error) {
	group, err := s.client.GetGroupDetail(ctx, groupID)
	if err != nil {
		log.Warn().Err(err).Str("group_id", groupID).Msg("Failed to load group")
		return models.Group{}, err
	}

	s.cache.UpsertGroup(group)
	return group, nil
}

// CreateGroup creates a group and refreshes the group list
func (s *GroupService) CreateGroup(ctx context.Context, name string, description *string) (models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Group{}, ErrEmptyGroupName
	}

	group, err := s.client.CreateGroup(ctx, remote.CreateGroupRequest{Name: name, Description: description})
	if err != nil {
		return models.Group{}, err
	}

	log.Info().Str("group_id", group.ID).Msg("Group created")
	s.refresh(ctx)
	return group, nil
}

// JoinGroup joins a group by code and refreshes the group list
func (s *GroupService) JoinGroup(ctx context.Context, joinCode string) (models.Group, error) {
	joinCode = strings.TrimSpace(joinCode)
	if joinCode == "" {
		return models.Group{}, ErrEmptyJoinCode
	}

	group, err := s.client.JoinGroup(ctx, remote.JoinGroupRequest{JoinCode: joinCode})
	if err != nil {
		return models.Group{}, err
	}

	log.Info().Str("group_id", group.ID).Msg("Group joined")
	s.refresh(ctx)
	return group, nil
}

// refresh reloads the group list; the mutation already succeeded, so a
// failure here only leaves the list stale
func (s *GroupService) refresh(ctx context.Context) {
	if _, err := s.LoadGroups(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to refresh groups")
	}
}
