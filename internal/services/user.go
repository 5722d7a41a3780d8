package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sync-photo-client/internal/cache"
	"sync-photo-client/internal/models"
	"sync-photo-client/internal/remote"
	"sync-photo-client/internal/session"

	"github.com/rs/zerolog/log"
)

// ErrMissingCredentials is returned when email or password is blank
var ErrMissingCredentials = errors.New("email and password are required")

// UserService handles sign-in, profile and sign-out flows
type UserService struct {
	client  remote.Client
	session *session.Store
	cache   *cache.Cache
	likes   *LikeService
}

// NewUserService creates a new user service
func NewUserService(client remote.Client, store *session.Store, c *cache.Cache, likes *LikeService) *UserService {
	return &UserService{
		client:  client,
		session: store,
		cache:   c,
		likes:   likes,
	}
}

// SignIn authenticates and persists the resulting session
func (s *UserService) SignIn(ctx context.Context, email, password string) (models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.User{}, ErrMissingCredentials
	}

	result, err := s.client.SignIn(ctx, remote.SignInRequest{Email: email, Password: password})
	if err != nil {
		return models.User{}, err
	}
	return s.establish(ctx, result)
}

// SignUp creates an account and persists the resulting session
func (s *UserService) SignUp(ctx context.Context, email, password string, username *string) (models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.User{}, ErrMissingCredentials
	}

	result, err := s.client.SignUp(ctx, remote.SignUpRequest{Email: email, Password: password, Username: username})
	if err != nil {
		return models.User{}, err
	}
	return s.establish(ctx, result)
}

func (s *UserService) establish(ctx context.Context, result remote.AuthResult) (models.User, error) {
	user := result.User
	if err := s.session.Login(ctx, result.Token, user.ID, user.Email, user.Username, user.AvatarURL); err != nil {
		return models.User{}, fmt.Errorf("failed to save session: %w", err)
	}
	s.cache.SetCurrentUser(&user)

	log.Info().Str("user_id", user.ID).Msg("Signed in")
	return user, nil
}

// LoadCurrentUser fetches the signed-in user into the cache and refreshes
// the profile fields of the session
func (s *UserService) LoadCurrentUser(ctx context.Context) (models.User, error) {
	user, err := s.client.GetCurrentUser(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load current user")
		return models.User{}, err
	}

	s.cache.SetCurrentUser(&user)
	if err := s.session.UpdateProfile(ctx, user.Username, user.AvatarURL); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to refresh session profile")
	}
	return user, nil
}

// UpdateProfile patches the profile remotely, then the cache and session
func (s *UserService) UpdateProfile(ctx context.Context, username, avatarURL *string) (models.User, error) {
	user, err := s.client.UpdateProfile(ctx, remote.UpdateProfileRequest{Username: username, AvatarURL: avatarURL})
	if err != nil {
		return models.User{}, err
	}

	s.cache.SetCurrentUser(&user)
	if err := s.session.UpdateProfile(ctx, user.Username, user.AvatarURL); err != nil {
		return user, fmt.Errorf("failed to save profile: %w", err)
	}
	return user, nil
}

// Logout ends the session and forgets every cached entity.
// Local state is cleared even when the session could not be erased.
func (s *UserService) Logout(ctx context.Context) error {
	err := s.session.Logout(ctx)
	s.cache.Clear()
	s.likes.Reset()
	if err != nil {
		return fmt.Errorf("failed to erase session: %w", err)
	}

	log.Info().Msg("Signed out")
	return nil
}
