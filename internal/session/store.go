package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"sync-photo-client/internal/models"
	"sync-photo-client/internal/observe"
	"sync-photo-client/internal/storage"

	"github.com/rs/zerolog/log"
)

// Persisted keys
const (
	KeyToken     = "auth_token"
	KeyUserID    = "user_id"
	KeyEmail     = "user_email"
	KeyUsername  = "user_username"
	KeyAvatarURL = "user_avatarUrl"
)

var allKeys = []string{KeyToken, KeyUserID, KeyEmail, KeyUsername, KeyAvatarURL}

// ErrEmptyToken is returned by Login when no token is given
var ErrEmptyToken = errors.New("token must be provided")

// StorageError wraps a failure of the durable store
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("session storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Authorizer receives the bearer token attached to outgoing requests
type Authorizer interface {
	SetAuthToken(token string)
	ClearAuthToken()
}

// Store owns the session, persists it, and keeps the remote auth header in step with it
type Store struct {
	// mu serializes mutations so the persisted record, the auth header and the
	// published snapshot always describe the same session.
	mu    sync.Mutex
	kv    storage.KV
	auth  Authorizer
	value *observe.Value[models.Session]
}

// NewStore creates a session store. The initial session is empty until Load or Login.
func NewStore(kv storage.KV, auth Authorizer) *Store {
	return &Store{
		kv:    kv,
		auth:  auth,
		value: observe.NewValue(models.Session{}, nil),
	}
}

// Current returns the latest session snapshot
func (s *Store) Current() models.Session {
	return s.value.Get()
}

// Watch subscribes to session snapshots, starting with the current one.
// The caller must Close the subscription.
func (s *Store) Watch() *observe.Subscription[models.Session] {
	return s.value.Subscribe()
}

// Load restores the session persisted by a previous run
func (s *Store) Load(ctx context.Context) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.kv.Read(ctx, allKeys...)
	if err != nil {
		s.auth.ClearAuthToken()
		s.value.Set(models.Session{})
		log.Error().Err(err).Msg("Failed to load session")
		return models.Session{}, &StorageError{Op: "load", Err: err}
	}

	token := values[KeyToken]
	if token == "" {
		s.auth.ClearAuthToken()
		s.value.Set(models.Session{})
		return models.Session{}, nil
	}

	session := models.Session{
		Token:  token,
		UserID: values[KeyUserID],
		Email:  values[KeyEmail],
	}
	if v, ok := values[KeyUsername]; ok {
		session.Username = &v
	}
	if v, ok := values[KeyAvatarURL]; ok {
		session.AvatarURL = &v
	}

	s.auth.SetAuthToken(token)
	s.value.Set(session)

	log.Info().Str("user_id", session.UserID).Msg("Session restored")
	return session, nil
}

// Login persists a new session and authorizes the remote client with its token.
// Optional fields passed as nil are erased, so no value from an earlier login survives.
func (s *Store) Login(ctx context.Context, token, userID, email string, username, avatarURL *string) error {
	if token == "" {
		return ErrEmptyToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set := map[string]string{
		KeyToken:  token,
		KeyUserID: userID,
		KeyEmail:  email,
	}
	var remove []string
	if username != nil {
		set[KeyUsername] = *username
	} else {
		remove = append(remove, KeyUsername)
	}
	if avatarURL != nil {
		set[KeyAvatarURL] = *avatarURL
	} else {
		remove = append(remove, KeyAvatarURL)
	}

	// The token must be durable before the header is set.
	if err := s.kv.Write(ctx, set, remove...); err != nil {
		s.auth.ClearAuthToken()
		s.value.Set(models.Session{})
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to persist session")
		// A previous session left on disk would be restored on the next Load.
		if delErr := s.kv.Delete(ctx, allKeys...); delErr != nil {
			log.Warn().Err(delErr).Msg("Failed to erase previous session")
		}
		return &StorageError{Op: "login", Err: err}
	}

	s.auth.SetAuthToken(token)
	s.value.Set(models.Session{
		Token:     token,
		UserID:    userID,
		Email:     email,
		Username:  cloneString(username),
		AvatarURL: cloneString(avatarURL),
	})

	log.Info().Str("user_id", userID).Msg("Session started")
	return nil
}

// UpdateProfile persists the non-nil fields. Nil arguments keep their previous value.
func (s *Store) UpdateProfile(ctx context.Context, username, avatarURL *string) error {
	if username == nil && avatarURL == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set := make(map[string]string, 2)
	if username != nil {
		set[KeyUsername] = *username
	}
	if avatarURL != nil {
		set[KeyAvatarURL] = *avatarURL
	}

	if err := s.kv.Write(ctx, set); err != nil {
		log.Error().Err(err).Msg("Failed to persist profile")
		return &StorageError{Op: "update profile", Err: err}
	}

	s.value.Update(func(current models.Session) models.Session {
		if username != nil {
			current.Username = cloneString(username)
		}
		if avatarURL != nil {
			current.AvatarURL = cloneString(avatarURL)
		}
		return current
	})
	return nil
}

// Logout clears the auth header and erases the persisted session.
// The empty session is published even when erasing fails.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.auth.ClearAuthToken()
	err := s.kv.Delete(ctx, allKeys...)
	s.value.Set(models.Session{})

	if err != nil {
		log.Error().Err(err).Msg("Failed to erase session")
		return &StorageError{Op: "logout", Err: err}
	}

	log.Info().Msg("Session ended")
	return nil
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
