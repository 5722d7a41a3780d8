package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"sync-photo-client/internal/backend/middleware"
	"sync-photo-client/internal/backend/repository"
	"sync-photo-client/internal/models"
	"sync-photo-client/internal/remote"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// AuthHandler handles sign-up and sign-in requests
type AuthHandler struct {
	store  repository.Store
	tokens *middleware.JWT
	cost   int
}

// NewAuthHandler creates a new auth handler. A non-positive cost uses bcrypt.DefaultCost.
func NewAuthHandler(store repository.Store, tokens *middleware.JWT, cost int) *AuthHandler {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &AuthHandler{
		store:  store,
		tokens: tokens,
		cost:   cost,
	}
}

// SignUp handles POST /api/v1/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req remote.SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	email := strings.TrimSpace(req.Email)
	if !strings.Contains(email, "@") {
		respondError(w, "A valid email is required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < minPasswordLength {
		respondError(w, "Password must be at least 6 characters", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.cost)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password")
		respondError(w, "Failed to create account", http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	user := repository.UserRecord{
		User: models.User{
			ID:        uuid.NewString(),
			Email:     email,
			CreatedAt: &now,
		},
		PasswordHash: string(hash),
	}
	if req.Username != nil {
		user.Username = models.String(strings.TrimSpace(*req.Username))
	}

	if err := h.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			respondError(w, "Email is already registered", http.StatusConflict)
			return
		}
		log.Error().Err(err).Str("email", email).Msg("Failed to create user")
		respondError(w, "Failed to create account", http.StatusInternalServerError)
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User signed up")
	h.respondAuth(w, user.User, http.StatusCreated)
}

// SignIn handles POST /api/v1/auth/login
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req remote.SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.store.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Error().Err(err).Msg("Failed to load user")
		respondError(w, "Failed to sign in", http.StatusInternalServerError)
		return
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User signed in")
	h.respondAuth(w, user.User, http.StatusOK)
}

func (h *AuthHandler) respondAuth(w http.ResponseWriter, user models.User, statusCode int) {
	token, err := h.tokens.GenerateJWT(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate token")
		respondError(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	respondJSON(w, remote.AuthResult{Token: token, User: user}, statusCode)
}
