package handlers

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"sync-photo-client/internal/backend/hub"
	"sync-photo-client/internal/backend/middleware"
	"sync-photo-client/internal/backend/repository"
	"sync-photo-client/internal/models"
	"sync-photo-client/internal/realtime"
	"sync-photo-client/internal/remote"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	codeLength       = 6
	codeChars        = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeAttempts  = 10
	maxGroupNameSize = 100
)

// GroupHandler handles group-related HTTP requests
type GroupHandler struct {
	store repository.Store
	hub   *hub.Hub
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(store repository.Store, wsHub *hub.Hub) *GroupHandler {
	return &GroupHandler{
		store: store,
		hub:   wsHub,
	}
}

// CreateGroup handles POST /api/v1/groups
func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req remote.CreateGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondError(w, "name is required", http.StatusBadRequest)
		return
	}
	if len(name) > maxGroupNameSize {
		respondError(w, "name is too long", http.StatusBadRequest)
		return
	}

	code, err := h.generateUniqueCode(ctx)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to generate join code")
		respondError(w, "Failed to create group", http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	group := models.Group{
		ID:        uuid.NewString(),
		Name:      name,
		JoinCode:  code,
		CreatedAt: &now,
	}
	if req.Description != nil {
		group.Description = models.String(strings.TrimSpace(*req.Description))
	}

	if err := h.store.CreateGroup(ctx, group, userID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create group")
		respondError(w, "Failed to create group", storeStatus(err))
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("group_id", group.ID).
		Str("join_code", code).
		Msg("Group created")

	group.MemberCount = 1
	respondJSON(w, group, http.StatusCreated)
}

// ListGroups handles GET /api/v1/groups
func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	groups, err := h.store.ListGroupsByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list groups")
		respondError(w, "Failed to list groups", http.StatusInternalServerError)
		return
	}
	respondJSON(w, groups, http.StatusOK)
}

// GetGroup handles GET /api/v1/groups/{group_id}
func (h *GroupHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	groupID := chi.URLParam(r, "group_id")

	if !requireMember(w, r, h.store, groupID, userID) {
		return
	}

	group, err := h.store.GetGroup(ctx, groupID)
	if err != nil {
		log.Error().Err(err).Str("group_id", groupID).Msg("Failed to get group")
		respondError(w, "Group not found", storeStatus(err))
		return
	}
	respondJSON(w, group, http.StatusOK)
}

// JoinGroup handles POST /api/v1/groups/join
func (h *GroupHandler) JoinGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req remote.JoinGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.JoinCode))
	if len(code) != codeLength {
		respondError(w, "joinCode must be 6 characters", http.StatusBadRequest)
		return
	}

	group, err := h.store.GetGroupByJoinCode(ctx, code)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Error().Err(err).Str("join_code", code).Msg("Failed to find group")
		}
		respondError(w, "Group not found", storeStatus(err))
		return
	}

	alreadyMember, err := h.store.IsMember(ctx, group.ID, userID)
	if err != nil {
		log.Error().Err(err).Str("group_id", group.ID).Msg("Failed to check membership")
		respondError(w, "Failed to join group", http.StatusInternalServerError)
		return
	}
	if !alreadyMember {
		if err := h.store.AddMember(ctx, group.ID, userID); err != nil {
			log.Error().Err(err).Str("group_id", group.ID).Str("user_id", userID).Msg("Failed to join group")
			respondError(w, "Failed to join group", storeStatus(err))
			return
		}
		log.Info().Str("group_id", group.ID).Str("user_id", userID).Msg("Member joined")
		h.hub.BroadcastToGroup(ctx, group.ID, realtime.Event{
			Type:    realtime.EventMemberJoined,
			ActorID: userID,
		})
	}

	joined, err := h.store.GetGroup(ctx, group.ID)
	if err != nil {
		log.Error().Err(err).Str("group_id", group.ID).Msg("Failed to reload group")
		respondError(w, "Failed to join group", storeStatus(err))
		return
	}
	respondJSON(w, joined, http.StatusOK)
}

// generateUniqueCode generates a join code not used by any group
func (h *GroupHandler) generateUniqueCode(ctx context.Context) (string, error) {
	for range maxCodeAttempts {
		code, err := generateCode()
		if err != nil {
			return "", err
		}
		exists, err := h.store.JoinCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check code existence: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique code after %d attempts", maxCodeAttempts)
}

// generateCode generates a random 6-character code
func generateCode() (string, error) {
	code := make([]byte, codeLength)
	limit := big.NewInt(int64(len(codeChars)))
	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to read random: %w", err)
		}
		code[i] = codeChars[n.Int64()]
	}
	return string(code), nil
}

// requireMember responds 404 or 403 unless userID belongs to groupID
func requireMember(w http.ResponseWriter, r *http.Request, store repository.Store, groupID, userID string) bool {
	ctx := r.Context()

	if _, err := store.GetGroup(ctx, groupID); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Error().Err(err).Str("group_id", groupID).Msg("Failed to get group")
		}
		respondError(w, "Group not found", storeStatus(err))
		return false
	}

	member, err := store.IsMember(ctx, groupID, userID)
	if err != nil {
		log.Error().Err(err).Str("group_id", groupID).Msg("Failed to check membership")
		respondError(w, "Failed to check membership", http.StatusInternalServerError)
		return false
	}
	if !member {
		respondError(w, "user is not a member of this group", http.StatusForbidden)
		return false
	}
	return true
}
