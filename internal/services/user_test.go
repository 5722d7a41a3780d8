package services

import (
	"context"
	"errors"
	"testing"

	"sync-photo-client/internal/models"
	"sync-photo-client/internal/remote"
	"sync-photo-client/internal/session"
)

func newUserService(f *fixture) *UserService {
	return NewUserService(f.client, f.session, f.cache, f.likes)
}

func TestSignInPersistsSessionAndCachesUser(t *testing.T) {
	f := newFixture(RollbackSymmetric)
	f.client.signIn = func(req remote.SignInRequest) (remote.AuthResult, error) {
		if req.Email != "a@x.com" || req.Password != "pw" {
			t.Fatalf("unexpected request %+v", req)
		}
		return remote.AuthResult{
			Token: "t1",
			User:  models.User{ID: "u1", Email: "a@x.com", Username: models.String("Ann")},
		}, nil
	}
	svc := newUserService(f)

	user, err := svc.SignIn(context.Background(), "  a@x.com ", "pw")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("unexpected user %+v", user)
	}

	current := f.session.Current()
	if !current.IsLoggedIn() || current.Token != "t1" || models.Deref(current.Username) != "Ann" {
		t.Fatalf("unexpected session %+v", current)
	}
	if f.client.AuthToken() != "t1" {
		t.Fatalf("expected auth header to be set, got %q", f.client.AuthToken())
	}
	if cached := f.cache.CurrentUser(); cached == nil || cached.ID != "u1" {
		t.Fatalf("expected cached user, got %+v", cached)
	}
}

func TestSignInRejectsBlankCredentials(t *testing.T) {
	f := newFixture(RollbackSymmetric)
	svc := newUserService(f)

	if _, err := svc.SignIn(context.Background(), " ", "pw"); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if f.client.count("SignIn") != 0 {
		t.Fatal("expected no remote call")
	}
}

func TestSignInFailureLeavesSessionEmpty(t *testing.T) {
	f := newFixture(RollbackSymmetric)
	f.client.signIn = func(remote.SignInRequest) (remote.AuthResult, error) {
		return remote.AuthResult{}, &remote.APIError{HTTPStatus: 401, Status: "error", Message: "Invalid credentials"}
	}
	svc := newUserService(f)

	_, err := svc.SignIn(context.Background(), "a@x.com", "bad")
	if remote.Message(err) != "Invalid credentials" {
		t.Fatalf("unexpected error %v", err)
	}
	if f.session.Current().IsLoggedIn() {
		t.Fatal("expected logged out session")
	}
	if f.kv.Len() != 0 {
		t.Fatalf("expected nothing persisted, got %d keys", f.kv.Len())
	}
}

func TestSignUpPassesUsername(t *testing.T) {
	f := newFixture(RollbackSymmetric)
	f.client.signUp = func(req remote.SignUpRequest) (remote.AuthResult, error) {
		return remote.AuthResult{Token: "t2", User: models.User{ID: "u2", Email: req.Email, Username: req.Username}}, nil
	}
	svc := newUserService(f)

	if _, err := svc.SignUp(context.Background(), "b@x.com", "pw", models.String("Bob")); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if got := models.Deref(f.session.Current().Username); got != "Bob" {
		t.Fatalf("expected username in session, got %q", got)
	}
}

func TestLoadCurrentUserRefreshesProfile(t *testing.T) {
	f := newFixture(RollbackSymmetric)
	ctx := context.Background()
	if err := f.session.Login(ctx, "t1", "u1", "a@x.com", models.String("Old"), nil); err != nil {
		t.Fatalf("login: %v", err)
	}
	f.client.getCurrentUser = func() (models.User, error) {
		return models.User{ID: "u1", Email: "a@x.com", Username: models.String("New"), AvatarURL: models.String("a.png")}, nil
	}
	svc := newUserService(f)

	if _, err := svc.LoadCurrentUser(ctx); err != nil {
		t.Fatalf("load current user: %v", err)
	}
	current := f.session.Current()
	if models.Deref(current.Username) != "New" || models.Deref(current.AvatarURL) != "a.png" {
		t.Fatalf("expected refreshed profile, got %+v", current)
	}
	if f.cache.CurrentUser().ID != "u1" {
		t.Fatal("expected cached user")
	}
}

func TestLoadCurrentUserFailureKeepsCache(t *testing.T) {
	f := newFixture(RollbackSymmetric)
	f.cache.SetCurrentUser(&models.User{ID: "u1"})
	f.client.getCurrentUser = func() (models.User, error) {
		return models.User{}, &remote.NetworkError{Method: "GET", Path: "/users/me", Err: errors.New("offline")}
	}
	svc := newUserService(f)

	if _, err := svc.LoadCurrentUser(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if f.cache.CurrentUser() == nil {
		t.Fatal("expected cached user to survive failure")
	}
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(RollbackSymmetric)
	ctx := context.Background()
	if err := f.session.Login(ctx, "t1", "u1", "a@x.com", models.String("Ann"), models.String("old.png")); err != nil {
		t.Fatalf("login: %v", err)
	}
	f.client.updateProfile = func(req remote.UpdateProfileRequest) (models.User, error) {
		if req.Username != nil {
			t.Fatalf("expected username untouched, got %q", *req.Username)
		}
		return models.User{ID: "u1", Username: models.String("Ann"), AvatarURL: req.AvatarURL}, nil
	}
	svc := newUserService(f)

	if _, err := svc.UpdateProfile(ctx, nil, models.String("new.png")); err != nil {
		t.Fatalf("update profile: %v", err)
	}
	current := f.session.Current()
	if models.Deref(current.AvatarURL) != "new.png" || models.Deref(current.Username) != "Ann" {
		t.Fatalf("unexpected session %+v", current)
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	f := newFixture(RollbackSymmetric)
	ctx := context.Background()
	if err := f.session.Login(ctx, "t1", "u1", "a@x.com", nil, nil); err != nil {
		t.Fatalf("login: %v", err)
	}
	f.cache.ReplaceGroups([]models.Group{{ID: "g1"}})
	f.cache.ReplaceFeed([]models.Photo{{ID: "p1"}})
	f.cache.SetCurrentUser(&models.User{ID: "u1"})
	seedPhoto(f.likes, "p1", true, 1)
	svc := newUserService(f)

	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if f.session.Current().IsLoggedIn() || f.client.AuthToken() != "" {
		t.Fatal("expected logged out session without auth header")
	}
	snap := f.cache.Snapshot()
	if len(snap.Groups) != 0 || len(snap.FeedPhotos) != 0 || snap.CurrentUser != nil {
		t.Fatalf("expected empty cache, got %+v", snap)
	}
	if _, ok := f.likes.State("p1"); ok {
		t.Fatal("expected like state to be forgotten")
	}
	if f.kv.Len() != 0 {
		t.Fatalf("expected no persisted keys, got %d", f.kv.Len())
	}

	var storageErr *session.StorageError
	if errors.As(svc.Logout(ctx), &storageErr) {
		t.Fatal("expected second logout to succeed")
	}
}

func TestLogoutForgetsToggleInFlight(t *testing.T) {
	f := newFixture(RollbackSymmetric)
	ctx := context.Background()
	if err := f.session.Login(ctx, "t1", "u1", "a@x.com", nil, nil); err != nil {
		t.Fatalf("login: %v", err)
	}
	started := make(chan struct{})
	release := make(chan struct{})
	f.client.likePhoto = func(string, string) (remote.LikeResult, error) {
		close(started)
		<-release
		return remote.LikeResult{}, errors.New("connection reset")
	}
	seedPhoto(f.likes, "p1", false, 3)
	svc := newUserService(f)

	done := make(chan struct{})
	go func() {
		f.likes.Toggle(ctx, "g1", "p1")
		close(done)
	}()
	<-started

	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	close(release)
	<-done

	if state, ok := f.likes.State("p1"); ok {
		t.Fatalf("expected like state to stay forgotten after logout, got %+v", state)
	}
}
