// Package cache holds the latest known groups and photos, published to observers.
package cache

import (
	"maps"
	"slices"

	"sync-photo-client/internal/models"
	"sync-photo-client/internal/observe"
)

// Snapshot is a point-in-time copy of every cached collection
type Snapshot struct {
	Groups        []models.Group
	PhotosByGroup map[string][]models.Photo
	FeedPhotos    []models.Photo
	CurrentUser   *models.User
}

// Cache is the in-memory entity cache. Every mutation replaces a whole collection.
// Each collection is guarded on its own, so a mutation is atomic for its field only.
type Cache struct {
	groups      *observe.Value[[]models.Group]
	photos      *observe.Value[map[string][]models.Photo]
	feed        *observe.Value[[]models.Photo]
	currentUser *observe.Value[*models.User]
}

// New returns an empty cache
func New() *Cache {
	return &Cache{
		groups:      observe.NewValue([]models.Group{}, nil),
		photos:      observe.NewValue(map[string][]models.Photo{}, nil),
		feed:        observe.NewValue([]models.Photo{}, nil),
		currentUser: observe.NewValue[*models.User](nil, nil),
	}
}

// ReplaceGroups replaces the groups collection. A repeated id keeps its first occurrence.
func (c *Cache) ReplaceGroups(groups []models.Group) {
	seen := make(map[string]struct{}, len(groups))
	unique := make([]models.Group, 0, len(groups))
	for _, g := range groups {
		if _, dup := seen[g.ID]; dup {
			continue
		}
		seen[g.ID] = struct{}{}
		unique = append(unique, g)
	}
	c.groups.Set(unique)
}

// UpsertGroup replaces the cached group with the same id, or appends it
func (c *Cache) UpsertGroup(group models.Group) {
	c.groups.Update(func(current []models.Group) []models.Group {
		next := slices.Clone(current)
		if i := slices.IndexFunc(next, func(g models.Group) bool { return g.ID == group.ID }); i >= 0 {
			next[i] = group
			return next
		}
		return append(next, group)
	})
}

// ReplaceGroupPhotos replaces the photo list of one group, inserting the entry if absent.
// Other groups are left as they are.
func (c *Cache) ReplaceGroupPhotos(groupID string, photos []models.Photo) {
	list := clonePhotos(photos)
	c.photos.Update(func(current map[string][]models.Photo) map[string][]models.Photo {
		next := maps.Clone(current)
		if next == nil {
			next = make(map[string][]models.Photo)
		}
		next[groupID] = list
		return next
	})
}

// ReplaceFeed replaces the feed collection
func (c *Cache) ReplaceFeed(photos []models.Photo) {
	c.feed.Set(clonePhotos(photos))
}

// SetCurrentUser caches the signed-in user's profile
func (c *Cache) SetCurrentUser(user *models.User) {
	if user != nil {
		u := *user
		user = &u
	}
	c.currentUser.Set(user)
}

// Clear empties every collection and drops the cached user
func (c *Cache) Clear() {
	c.groups.Set([]models.Group{})
	c.photos.Set(map[string][]models.Photo{})
	c.feed.Set([]models.Photo{})
	c.currentUser.Set(nil)
}

// Groups returns a copy of the cached groups
func (c *Cache) Groups() []models.Group {
	return slices.Clone(c.groups.Get())
}

// GroupPhotos returns the cached photos of a group. ok is false when the group
// was never fetched, which differs from a fetched, empty list.
func (c *Cache) GroupPhotos(groupID string) (photos []models.Photo, ok bool) {
	list, ok := c.photos.Get()[groupID]
	if !ok {
		return nil, false
	}
	return slices.Clone(list), true
}

// Feed returns a copy of the cached feed
func (c *Cache) Feed() []models.Photo {
	return slices.Clone(c.feed.Get())
}

// CurrentUser returns the cached user, or nil
func (c *Cache) CurrentUser() *models.User {
	user := c.currentUser.Get()
	if user == nil {
		return nil
	}
	u := *user
	return &u
}

// Snapshot copies every collection
func (c *Cache) Snapshot() Snapshot {
	photos := make(map[string][]models.Photo)
	for id, list := range c.photos.Get() {
		photos[id] = slices.Clone(list)
	}
	return Snapshot{
		Groups:        c.Groups(),
		PhotosByGroup: photos,
		FeedPhotos:    c.Feed(),
		CurrentUser:   c.CurrentUser(),
	}
}

// WatchGroups subscribes to the groups collection.
// Delivered slices are shared and must be treated as read-only.
// The caller must Close the subscription.
func (c *Cache) WatchGroups() *observe.Subscription[[]models.Group] {
	return c.groups.Subscribe()
}

// WatchPhotos subscribes to the per-group photo lists (read-only).
// The caller must Close the subscription.
func (c *Cache) WatchPhotos() *observe.Subscription[map[string][]models.Photo] {
	return c.photos.Subscribe()
}

// WatchFeed subscribes to the feed (read-only).
// The caller must Close the subscription.
func (c *Cache) WatchFeed() *observe.Subscription[[]models.Photo] {
	return c.feed.Subscribe()
}

// WatchCurrentUser subscribes to the cached user.
// The caller must Close the subscription.
func (c *Cache) WatchCurrentUser() *observe.Subscription[*models.User] {
	return c.currentUser.Subscribe()
}

func clonePhotos(photos []models.Photo) []models.Photo {
	if photos == nil {
		return []models.Photo{}
	}
	return slices.Clone(photos)
}
