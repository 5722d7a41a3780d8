package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sync-photo-client/internal/backend/blob"
	"sync-photo-client/internal/backend/hub"
	"sync-photo-client/internal/backend/middleware"
	"sync-photo-client/internal/backend/repository"
	"sync-photo-client/internal/realtime"
	"sync-photo-client/internal/remote"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultMaxUpload bounds the size of an uploaded photo
const DefaultMaxUpload = 20 << 20

// PhotoHandler handles photo and like requests within a group
type PhotoHandler struct {
	store     repository.Store
	blobs     blob.Store
	hub       *hub.Hub
	maxUpload int64
	now       func() time.Time
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(store repository.Store, blobs blob.Store, wsHub *hub.Hub, maxUpload int64) *PhotoHandler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	return &PhotoHandler{
		store:     store,
		blobs:     blobs,
		hub:       wsHub,
		maxUpload: maxUpload,
		now:       time.Now,
	}
}

// ListPhotos handles GET /api/v1/groups/{group_id}/photos
func (h *PhotoHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	groupID := chi.URLParam(r, "group_id")

	if !requireMember(w, r, h.store, groupID, userID) {
		return
	}

	photos, err := h.store.ListPhotos(ctx, groupID, userID)
	if err != nil {
		log.Error().Err(err).Str("group_id", groupID).Msg("Failed to list photos")
		respondError(w, "Failed to list photos", http.StatusInternalServerError)
		return
	}
	respondJSON(w, photos, http.StatusOK)
}

// UploadPhoto handles POST /api/v1/groups/{group_id}/photos
func (h *PhotoHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	groupID := chi.URLParam(r, "group_id")

	if !requireMember(w, r, h.store, groupID, userID) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+(1<<20))
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		respondError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("photo")
	if err != nil {
		respondError(w, "photo is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		respondError(w, "Failed to read photo", http.StatusBadRequest)
		return
	}
	if len(data) == 0 {
		respondError(w, "photo is empty", http.StatusBadRequest)
		return
	}
	if int64(len(data)) > h.maxUpload {
		respondError(w, "photo is too large", http.StatusRequestEntityTooLarge)
		return
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		respondError(w, "photo must be an image", http.StatusUnsupportedMediaType)
		return
	}

	var capturedAt *time.Time
	if raw := r.FormValue("capturedAt"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, "capturedAt must be RFC3339", http.StatusBadRequest)
			return
		}
		capturedAt = &parsed
	}

	photoID := uuid.NewString()
	key := fmt.Sprintf("%s/%s%s", groupID, photoID, extension(contentType))
	if err := h.blobs.Put(ctx, key, contentType, data); err != nil {
		log.Error().Err(err).Str("group_id", groupID).Str("key", key).Msg("Failed to store photo")
		respondError(w, "Failed to store photo", http.StatusBadGateway)
		return
	}

	record := repository.PhotoRecord{
		ID:               photoID,
		GroupID:          groupID,
		OriginalImageKey: key,
		UploadedBy:       userID,
		UploadedAt:       h.now().UTC(),
		CapturedAt:       capturedAt,
		FileSizeBytes:    int64(len(data)),
	}
	if err := h.store.CreatePhoto(ctx, record); err != nil {
		log.Error().Err(err).Str("group_id", groupID).Str("photo_id", photoID).Msg("Failed to save photo")
		respondError(w, "Failed to save photo", storeStatus(err))
		return
	}

	photo := record.Photo()
	if user, err := h.store.GetUserByID(ctx, userID); err == nil {
		photo.UploadedByUsername = user.Username
	}

	log.Info().
		Str("user_id", userID).
		Str("group_id", groupID).
		Str("photo_id", photoID).
		Int("size", len(data)).
		Msg("Photo uploaded")

	h.hub.BroadcastToGroup(ctx, groupID, realtime.Event{
		Type:    realtime.EventPhotoUploaded,
		PhotoID: photoID,
		ActorID: userID,
	})

	respondJSON(w, photo, http.StatusCreated)
}

// LikePhoto handles POST /api/v1/groups/{group_id}/photos/{photo_id}/like
func (h *PhotoHandler) LikePhoto(w http.ResponseWriter, r *http.Request) {
	h.setLike(w, r, true)
}

// UnlikePhoto handles DELETE /api/v1/groups/{group_id}/photos/{photo_id}/like
func (h *PhotoHandler) UnlikePhoto(w http.ResponseWriter, r *http.Request) {
	h.setLike(w, r, false)
}

func (h *PhotoHandler) setLike(w http.ResponseWriter, r *http.Request, liked bool) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	groupID := chi.URLParam(r, "group_id")
	photoID := chi.URLParam(r, "photo_id")

	if !requireMember(w, r, h.store, groupID, userID) {
		return
	}

	count, err := h.store.SetLike(ctx, groupID, photoID, userID, liked)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, "Photo not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("photo_id", photoID).Bool("liked", liked).Msg("Failed to update like")
		respondError(w, "Failed to update like", http.StatusInternalServerError)
		return
	}

	eventType := realtime.EventPhotoUnliked
	if liked {
		eventType = realtime.EventPhotoLiked
	}
	h.hub.BroadcastToGroup(ctx, groupID, realtime.Event{
		Type:      eventType,
		PhotoID:   photoID,
		ActorID:   userID,
		LikeCount: &count,
	})

	respondJSON(w, remote.LikeResult{PhotoID: photoID, LikeCount: count, Liked: liked}, http.StatusOK)
}

func extension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
