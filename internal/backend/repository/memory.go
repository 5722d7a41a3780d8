package repository

import (
	"context"
	"slices"
	"strings"
	"sync"

	"sync-photo-client/internal/models"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a Store kept in process memory, for development and tests
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]UserRecord
	emails   map[string]string
	groups   map[string]models.Group
	order    []string
	codes    map[string]string
	members  map[string][]string
	photos   map[string][]PhotoRecord
	likes    map[string]map[string]struct{}
	feedback []Feedback
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]UserRecord),
		emails:  make(map[string]string),
		groups:  make(map[string]models.Group),
		codes:   make(map[string]string),
		members: make(map[string][]string),
		photos:  make(map[string][]PhotoRecord),
		likes:   make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, user UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := s.emails[email]; exists {
		return ErrConflict
	}
	if _, exists := s.users[user.ID]; exists {
		return ErrConflict
	}
	s.users[user.ID] = user
	s.emails[email] = user.ID
	return nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return UserRecord{}, ErrNotFound
	}
	return s.users[id], nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user.User, nil
}

func (s *MemoryStore) UpdateUserProfile(_ context.Context, id string, username, avatarURL *string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	if username != nil {
		user.Username = username
	}
	if avatarURL != nil {
		user.AvatarURL = avatarURL
	}
	s.users[id] = user
	return user.User, nil
}

func (s *MemoryStore) CreateGroup(_ context.Context, group models.Group, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.groups[group.ID]; exists {
		return ErrConflict
	}
	if _, exists := s.codes[group.JoinCode]; exists {
		return ErrConflict
	}
	s.groups[group.ID] = group
	s.order = append(s.order, group.ID)
	s.codes[group.JoinCode] = group.ID
	s.members[group.ID] = []string{ownerID}
	return nil
}

func (s *MemoryStore) GetGroup(_ context.Context, id string) (models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	group, ok := s.groups[id]
	if !ok {
		return models.Group{}, ErrNotFound
	}
	return s.withMembersLocked(group), nil
}

func (s *MemoryStore) GetGroupByJoinCode(_ context.Context, code string) (models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.codes[code]
	if !ok {
		return models.Group{}, ErrNotFound
	}
	return s.withMembersLocked(s.groups[id]), nil
}

func (s *MemoryStore) JoinCodeExists(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.codes[code]
	return ok, nil
}

func (s *MemoryStore) ListGroupsByUser(_ context.Context, userID string) ([]models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]models.Group, 0)
	for _, id := range s.order {
		if slices.Contains(s.members[id], userID) {
			groups = append(groups, s.withMembersLocked(s.groups[id]))
		}
	}
	return groups, nil
}

func (s *MemoryStore) AddMember(_ context.Context, groupID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[groupID]; !ok {
		return ErrNotFound
	}
	if !slices.Contains(s.members[groupID], userID) {
		s.members[groupID] = append(s.members[groupID], userID)
	}
	return nil
}

func (s *MemoryStore) IsMember(_ context.Context, groupID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Contains(s.members[groupID], userID), nil
}

func (s *MemoryStore) ListMembers(_ context.Context, groupID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.members[groupID]), nil
}

func (s *MemoryStore) CreatePhoto(_ context.Context, photo PhotoRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[photo.GroupID]; !ok {
		return ErrNotFound
	}
	s.photos[photo.GroupID] = append(s.photos[photo.GroupID], photo)
	return nil
}

func (s *MemoryStore) ListPhotos(_ context.Context, groupID, viewerID string) ([]models.Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := slices.Clone(s.photos[groupID])
	slices.SortStableFunc(records, func(a, b PhotoRecord) int {
		return b.UploadedAt.Compare(a.UploadedAt)
	})

	photos := make([]models.Photo, 0, len(records))
	for _, rec := range records {
		photo := toPhoto(rec)
		if uploader, ok := s.users[rec.UploadedBy]; ok {
			photo.UploadedByUsername = uploader.Username
		}
		likers := s.likes[rec.ID]
		photo.LikeCount = len(likers)
		_, photo.LikedByMe = likers[viewerID]
		photos = append(photos, photo)
	}
	return photos, nil
}

func (s *MemoryStore) SetLike(_ context.Context, groupID, photoID, userID string, liked bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.ContainsFunc(s.photos[groupID], func(p PhotoRecord) bool { return p.ID == photoID }) {
		return 0, ErrNotFound
	}

	likers := s.likes[photoID]
	if likers == nil {
		likers = make(map[string]struct{})
		s.likes[photoID] = likers
	}
	if liked {
		likers[userID] = struct{}{}
	} else {
		delete(likers, userID)
	}
	return len(likers), nil
}

func (s *MemoryStore) CreateFeedback(_ context.Context, feedback Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.feedback = append(s.feedback, feedback)
	return nil
}

// Feedback returns every stored feedback message
func (s *MemoryStore) Feedback() []Feedback {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.feedback)
}

func (s *MemoryStore) withMembersLocked(group models.Group) models.Group {
	group.MemberCount = len(s.members[group.ID])
	return group
}

// toPhoto maps a record to its wire shape; the current key is mirrored into
// the legacy s3Key field for older clients
func toPhoto(rec PhotoRecord) models.Photo {
	uploadedAt := rec.UploadedAt
	size := rec.FileSizeBytes
	return models.Photo{
		ID:               rec.ID,
		GroupID:          rec.GroupID,
		OriginalImageKey: models.String(rec.OriginalImageKey),
		ThumbnailKey:     rec.ThumbnailKey,
		S3Key:            models.String(rec.OriginalImageKey),
		UploadedBy:       models.String(rec.UploadedBy),
		UploadedAt:       &uploadedAt,
		CapturedAt:       rec.CapturedAt,
		FileSizeBytes:    &size,
	}
}
