package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"sync-photo-client/internal/cache"
	"sync-photo-client/internal/models"
	"sync-photo-client/internal/remote"
	"sync-photo-client/internal/session"
	"sync-photo-client/internal/storage"
)

var errNotStubbed = errors.New("not stubbed")

// stubClient implements remote.Client with per-method hooks
type stubClient struct {
	mu    sync.Mutex
	token string
	calls map[string]int

	signIn         func(remote.SignInRequest) (remote.AuthResult, error)
	signUp         func(remote.SignUpRequest) (remote.AuthResult, error)
	getCurrentUser func() (models.User, error)
	updateProfile  func(remote.UpdateProfileRequest) (models.User, error)
	createGroup    func(remote.CreateGroupRequest) (models.Group, error)
	getAllGroups   func() ([]models.Group, error)
	getGroupDetail func(string) (models.Group, error)
	joinGroup      func(remote.JoinGroupRequest) (models.Group, error)
	getGroupPhotos func(string) ([]models.Photo, error)
	uploadPhoto    func(string, []byte, *time.Time) (models.Photo, error)
	likePhoto      func(string, string) (remote.LikeResult, error)
	unlikePhoto    func(string, string) (remote.LikeResult, error)
	submitFeedback func(remote.FeedbackRequest) error
}

func newStubClient() *stubClient {
	return &stubClient{calls: make(map[string]int)}
}

func (c *stubClient) record(name string) {
	c.mu.Lock()
	c.calls[name]++
	c.mu.Unlock()
}

func (c *stubClient) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[name]
}

func (c *stubClient) SetAuthToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *stubClient) ClearAuthToken() {
	c.SetAuthToken("")
}

func (c *stubClient) AuthToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *stubClient) SignIn(_ context.Context, req remote.SignInRequest) (remote.AuthResult, error) {
	c.record("SignIn")
	if c.signIn == nil {
		return remote.AuthResult{}, errNotStubbed
	}
	return c.signIn(req)
}

func (c *stubClient) SignUp(_ context.Context, req remote.SignUpRequest) (remote.AuthResult, error) {
	c.record("SignUp")
	if c.signUp == nil {
		return remote.AuthResult{}, errNotStubbed
	}
	return c.signUp(req)
}

func (c *stubClient) GetCurrentUser(context.Context) (models.User, error) {
	c.record("GetCurrentUser")
	if c.getCurrentUser == nil {
		return models.User{}, errNotStubbed
	}
	return c.getCurrentUser()
}

func (c *stubClient) UpdateProfile(_ context.Context, req remote.UpdateProfileRequest) (models.User, error) {
	c.record("UpdateProfile")
	if c.updateProfile == nil {
		return models.User{}, errNotStubbed
	}
	return c.updateProfile(req)
}

func (c *stubClient) CreateGroup(_ context.Context, req remote.CreateGroupRequest) (models.Group, error) {
	c.record("CreateGroup")
	if c.createGroup == nil {
		return models.Group{}, errNotStubbed
	}
	return c.createGroup(req)
}

func (c *stubClient) GetAllGroups(context.Context) ([]models.Group, error) {
	c.record("GetAllGroups")
	if c.getAllGroups == nil {
		return nil, errNotStubbed
	}
	return c.getAllGroups()
}

func (c *stubClient) GetGroupDetail(_ context.Context, groupID string) (models.Group, error) {
	c.record("GetGroupDetail")
	if c.getGroupDetail == nil {
		return models.Group{}, errNotStubbed
	}
	return c.getGroupDetail(groupID)
}

func (c *stubClient) JoinGroup(_ context.Context, req remote.JoinGroupRequest) (models.Group, error) {
	c.record("JoinGroup")
	if c.joinGroup == nil {
		return models.Group{}, errNotStubbed
	}
	return c.joinGroup(req)
}

func (c *stubClient) GetGroupPhotos(_ context.Context, groupID string) ([]models.Photo, error) {
	c.record("GetGroupPhotos")
	if c.getGroupPhotos == nil {
		return nil, errNotStubbed
	}
	return c.getGroupPhotos(groupID)
}

func (c *stubClient) UploadPhoto(_ context.Context, groupID string, image []byte, capturedAt *time.Time) (models.Photo, error) {
	c.record("UploadPhoto")
	if c.uploadPhoto == nil {
		return models.Photo{}, errNotStubbed
	}
	return c.uploadPhoto(groupID, image, capturedAt)
}

func (c *stubClient) LikePhoto(_ context.Context, groupID, photoID string) (remote.LikeResult, error) {
	c.record("LikePhoto")
	if c.likePhoto == nil {
		return remote.LikeResult{}, errNotStubbed
	}
	return c.likePhoto(groupID, photoID)
}

func (c *stubClient) UnlikePhoto(_ context.Context, groupID, photoID string) (remote.LikeResult, error) {
	c.record("UnlikePhoto")
	if c.unlikePhoto == nil {
		return remote.LikeResult{}, errNotStubbed
	}
	return c.unlikePhoto(groupID, photoID)
}

func (c *stubClient) SubmitFeedback(_ context.Context, req remote.FeedbackRequest) error {
	c.record("SubmitFeedback")
	if c.submitFeedback == nil {
		return errNotStubbed
	}
	return c.submitFeedback(req)
}

type fixture struct {
	client  *stubClient
	kv      *storage.MemoryKV
	session *session.Store
	cache   *cache.Cache
	likes   *LikeService
}

func newFixture(policy RollbackPolicy) *fixture {
	client := newStubClient()
	kv := storage.NewMemoryKV()
	return &fixture{
		client:  client,
		kv:      kv,
		session: session.NewStore(kv, client),
		cache:   cache.New(),
		likes:   NewLikeService(client, policy),
	}
}

func at(minutes int) *time.Time {
	t := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(minutes) * time.Minute)
	return &t
}
